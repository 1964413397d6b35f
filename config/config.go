/*
Package config loads rosterctl configuration.

SOURCES (later wins):
  1. DefaultConfig()
  2. YAML file (missing file = defaults)
  3. .env file in the working directory, if present
  4. ROSTER_* environment variables

ENVIRONMENT:
  ROSTER_PORT, ROSTER_DB_PATH, ROSTER_LOG_LEVEL, ROSTER_LOG_FORMAT,
  ROSTER_CATALOG_LOCAL_PATH, ROSTER_CATALOG_REMOTE_PATH,
  ROSTER_CATALOG_REMOTE_URL, ROSTER_CATALOG_REFRESH,
  ROSTER_WARDS (comma separated), ROSTER_CONTRACTED_HOURS,
  ROSTER_PARALLELISM
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Roster   RosterConfig   `yaml:"roster"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // ":memory:" for an in-memory database
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// CatalogConfig names the two catalog tiers. The local tier is a sheet
// (xlsx or csv); the remote tier is either a file path or a CSV URL.
type CatalogConfig struct {
	LocalPath       string `yaml:"local_path"`
	LocalSheet      string `yaml:"local_sheet"`
	RemotePath      string `yaml:"remote_path"`
	RemoteURL       string `yaml:"remote_url"`
	RefreshInterval string `yaml:"refresh_interval"`
}

type RosterConfig struct {
	Wards           []string   `yaml:"wards"`
	WardSynonyms    [][]string `yaml:"ward_synonyms"`
	ContractedHours string     `yaml:"contracted_hours"`
	Parallelism     int        `yaml:"parallelism"`
	Sheet           string     `yaml:"sheet"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{Path: "roster.db"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Catalog:  CatalogConfig{RefreshInterval: "15m"},
		Roster: RosterConfig{
			WardSynonyms:    [][]string{{"WARD2", "W2"}, {"ECU", "PBCU"}},
			ContractedHours: "150",
			Parallelism:     1,
		},
	}
}

// Load reads path over the defaults, then applies .env and environment
// overrides. An empty or missing path yields defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// .env is optional; real environment variables are never overwritten.
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ROSTER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ROSTER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ROSTER_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ROSTER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ROSTER_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ROSTER_CATALOG_LOCAL_PATH"); v != "" {
		c.Catalog.LocalPath = v
	}
	if v := os.Getenv("ROSTER_CATALOG_REMOTE_PATH"); v != "" {
		c.Catalog.RemotePath = v
	}
	if v := os.Getenv("ROSTER_CATALOG_REMOTE_URL"); v != "" {
		c.Catalog.RemoteURL = v
	}
	if v := os.Getenv("ROSTER_CATALOG_REFRESH"); v != "" {
		c.Catalog.RefreshInterval = v
	}
	if v := os.Getenv("ROSTER_WARDS"); v != "" {
		c.Roster.Wards = splitList(v)
	}
	if v := os.Getenv("ROSTER_CONTRACTED_HOURS"); v != "" {
		c.Roster.ContractedHours = v
	}
	if v := os.Getenv("ROSTER_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ROSTER_PARALLELISM %q: %w", v, err)
		}
		c.Roster.Parallelism = n
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := c.Contracted(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Catalog.RefreshInterval); err != nil {
		return fmt.Errorf("invalid catalog.refresh_interval %q: %w", c.Catalog.RefreshInterval, err)
	}
	return nil
}

// Contracted parses roster.contracted_hours.
func (c *Config) Contracted() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Roster.ContractedHours)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid roster.contracted_hours %q: %w", c.Roster.ContractedHours, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("roster.contracted_hours must be positive, got %s", d)
	}
	return d, nil
}

// RefreshInterval returns the catalog refresh interval, 15 minutes when
// unparseable.
func (c *Config) RefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.Catalog.RefreshInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

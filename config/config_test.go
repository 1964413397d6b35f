package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-ledger/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rosterctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFile_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := config.DefaultConfig()
	assert.Equal(t, def.Server.Port, cfg.Server.Port)
	assert.Equal(t, "roster.db", cfg.Database.Path)
	assert.Equal(t, [][]string{{"WARD2", "W2"}, {"ECU", "PBCU"}}, cfg.Roster.WardSynonyms)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval())

	contracted, err := cfg.Contracted()
	require.NoError(t, err)
	assert.Equal(t, "150", contracted.String())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	// GIVEN: A file naming wards, a remote catalog and a faster refresh
	// WHEN: Loading it
	// THEN: Named fields change and the rest keep their defaults

	path := writeConfig(t, `
server:
  port: 9090
catalog:
  remote_url: https://example.org/hours.csv
  refresh_interval: 5m
roster:
  wards: [WARD2, WARD3]
  contracted_hours: "112.5"
  parallelism: 4
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.org/hours.csv", cfg.Catalog.RemoteURL)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, []string{"WARD2", "WARD3"}, cfg.Roster.Wards)
	assert.Equal(t, 4, cfg.Roster.Parallelism)
	assert.Equal(t, "info", cfg.Logging.Level)

	contracted, err := cfg.Contracted()
	require.NoError(t, err)
	assert.Equal(t, "112.5", contracted.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("ROSTER_PORT", "7070")
	t.Setenv("ROSTER_DB_PATH", ":memory:")
	t.Setenv("ROSTER_WARDS", " WARD2, ,ECU ")
	t.Setenv("ROSTER_LOG_FORMAT", "console")
	t.Setenv("ROSTER_PARALLELISM", "2")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, []string{"WARD2", "ECU"}, cfg.Roster.Wards)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 2, cfg.Roster.Parallelism)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "port out of range", yaml: "server:\n  port: 70000\n"},
		{name: "zero contracted hours", yaml: "roster:\n  contracted_hours: \"0\"\n"},
		{name: "non-numeric contracted hours", yaml: "roster:\n  contracted_hours: lots\n"},
		{name: "bad refresh interval", yaml: "catalog:\n  refresh_interval: often\n"},
		{name: "bad yaml", yaml: "server: [\n"},
		{name: "bad env port", env: map[string]string{"ROSTER_PORT": "eighty"}},
		{name: "bad env parallelism", env: map[string]string{"ROSTER_PARALLELISM": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.yaml)

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Roster.Wards = []string{"WARD3"}
	cfg.Catalog.LocalPath = "hours.xlsx"

	path := filepath.Join(t.TempDir(), "nested", "rosterctl.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Roster.Wards, loaded.Roster.Wards)
	assert.Equal(t, "hours.xlsx", loaded.Catalog.LocalPath)
}

func TestRefreshInterval_FallsBack(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Catalog.RefreshInterval = "-1m"
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval())
}

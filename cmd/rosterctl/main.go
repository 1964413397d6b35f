/*
main.go - rosterctl entry point

PURPOSE:
  Command-line front end for the roster reconciliation engine.

COMMANDS:
  serve     Start the HTTP API (see serve.go)
  run       Reconcile one roster file and print the run summary
  catalog   Resolve and print the hours catalog

GLOBAL FLAGS:
  --config   YAML config file (default: rosterctl.yaml, missing = defaults)
  --verbose  Debug logging, overrides logging.level

ENVIRONMENT:
  See package config for ROSTER_* overrides. A .env file in the working
  directory is loaded first.

EXAMPLES:
  rosterctl serve --config=./deploy/rosterctl.yaml
  rosterctl run --roster march.xlsx --ward WARD2 --ward WARD3
  ROSTER_CATALOG_LOCAL_PATH=hours.xlsx rosterctl catalog

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/config"
	"github.com/warp/roster-ledger/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rosterctl",
	Short: "Shift-code classification and ward ledger reconciliation",
	Long: `rosterctl classifies hospital roster cells against an hours catalog,
builds the redeployment, TOIL and payback ledgers, and nets redeployed
hours into ward-to-ward settlements.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rosterctl.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, runCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

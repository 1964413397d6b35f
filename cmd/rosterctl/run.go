package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/api"
	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/roster"
	"github.com/warp/roster-ledger/sheet"
	"github.com/warp/roster-ledger/store/sqlite"
)

// runCmd reconciles a single roster file offline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile one roster file and print the run report as JSON",
	Long: `Reads a roster matrix (xlsx or csv), resolves the hours catalog,
processes each ward and prints the run summary, ward settlements and
anomalies. With --db the run is also saved for the API to serve.`,
	Args: cobra.NoArgs,
	RunE: runRoster,
}

var (
	runRosterPath  string
	runWards       []string
	runDBPath      string
	runCatalogPath string
	runSheet       string
)

func init() {
	runCmd.Flags().StringVar(&runRosterPath, "roster", "", "roster file (xlsx or csv)")
	runCmd.Flags().StringArrayVar(&runWards, "ward", nil, "ward to process, repeatable (default: roster.wards, else every department)")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "save the run to this SQLite database")
	runCmd.Flags().StringVar(&runCatalogPath, "catalog", "", "local catalog file (overrides catalog.local_path)")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "xlsx sheet name (overrides roster.sheet)")
	_ = runCmd.MarkFlagRequired("roster")
}

func runRoster(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if runCatalogPath != "" {
		cfg.Catalog.LocalPath = runCatalogPath
	}
	sheetName := cfg.Roster.Sheet
	if runSheet != "" {
		sheetName = runSheet
	}
	wards := cfg.Roster.Wards
	if len(runWards) > 0 {
		wards = runWards
	}

	matrix, err := readRosterFile(runRosterPath, sheetName)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, logger, nil)
	if err != nil {
		return err
	}
	cat := newResolver(cfg, logger).Resolve(ctx)

	run, err := eng.Run(ctx, engine.Input{Matrix: matrix, Catalog: cat, Wards: wards})
	if err != nil {
		return err
	}

	if runDBPath != "" {
		store, err := sqlite.New(runDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		if err := store.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("run saved", zap.String("run_id", string(run.ID)), zap.String("db", runDBPath))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewRunReport(run))
}

func readRosterFile(path, sheetName string) (roster.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return roster.Matrix{}, fmt.Errorf("failed to read roster: %w", err)
	}
	format, err := sheet.FormatOf(path, data)
	if err != nil {
		return roster.Matrix{}, err
	}
	return roster.ReadMatrix(bytes.NewReader(data), format, sheetName)
}

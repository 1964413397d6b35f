package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/warp/roster-ledger/api"
)

// catalogCmd prints the catalog that a run would use right now.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Resolve and print the hours catalog with its tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := newResolver(cfg, logger).Resolve(cmd.Context())
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewCatalog(cat))
	},
}

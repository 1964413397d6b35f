package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/config"
	"github.com/warp/roster-ledger/engine"
)

// newResolver builds the two catalog tiers from config. A remote URL wins
// over a remote path when both are set.
func newResolver(c *config.Config, log *zap.Logger) *catalog.Resolver {
	var local, remote catalog.RowSource
	if c.Catalog.LocalPath != "" {
		local = catalog.FileSource{Path: c.Catalog.LocalPath, Sheet: c.Catalog.LocalSheet}
	}
	switch {
	case c.Catalog.RemoteURL != "":
		remote = catalog.HTTPSource{URL: c.Catalog.RemoteURL}
	case c.Catalog.RemotePath != "":
		remote = catalog.FileSource{Path: c.Catalog.RemotePath}
	}
	return catalog.NewResolver(local, remote, log.Named("catalog"))
}

// newEngine builds an engine from config. reg may be nil to skip metrics.
func newEngine(c *config.Config, log *zap.Logger, reg prometheus.Registerer) (*engine.Engine, error) {
	contracted, err := c.Contracted()
	if err != nil {
		return nil, err
	}
	var metrics *engine.Metrics
	if reg != nil {
		metrics = engine.NewMetrics(reg)
	}
	return engine.New(engine.Options{
		Synonyms:        c.Roster.WardSynonyms,
		ContractedHours: contracted,
		Parallelism:     c.Roster.Parallelism,
		Logger:          log.Named("engine"),
		Metrics:         metrics,
	}), nil
}

package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/shift"
)

// =============================================================================
// METRICS
// =============================================================================

// Metrics are the engine's Prometheus collectors. A nil *Metrics records
// nothing, so tests and the CLI can run without a registry.
type Metrics struct {
	CellsClassified *prometheus.CounterVec
	LedgerEntries   *prometheus.CounterVec
	Anomalies       *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CellsClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "cells_classified_total",
			Help:      "Populated roster cells classified, by category.",
		}, []string{"category"}),
		LedgerEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "ledger_entries_total",
			Help:      "Ledger entries emitted, by kind.",
		}, []string{"kind"}),
		Anomalies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "anomalies_total",
			Help:      "Data-quality anomalies raised, by kind.",
		}, []string{"kind"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Name:      "runs_total",
			Help:      "Reconciliation runs, by outcome (ok, partial, failed).",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roster",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a reconciliation run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) observeCell(c shift.Classified) {
	if m == nil {
		return
	}
	m.CellsClassified.WithLabelValues(string(c.Category)).Inc()
}

func (m *Metrics) observeRun(run *Run, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.LedgerEntries.WithLabelValues(string(generic.KindRedeployment)).Add(float64(len(run.Ledgers.Redeployments())))
	m.LedgerEntries.WithLabelValues(string(generic.KindToilDebt)).Add(float64(len(run.Ledgers.Toil())))
	m.LedgerEntries.WithLabelValues(string(generic.KindPayback)).Add(float64(len(run.Ledgers.Paybacks())))
	for _, a := range run.Anomalies {
		m.Anomalies.WithLabelValues(a.Kind).Inc()
	}
}

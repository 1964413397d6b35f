/*
Package engine runs one reconciliation over a roster matrix.

PURPOSE:
  A run takes a roster matrix and a resolved hours catalog, processes every
  requested ward, collects the three ledgers and nets the redeployment
  ledger into ward settlements. Everything in a Run except its ID and
  timestamps is a pure function of the inputs.

FLOW:
  Input{Matrix, Catalog, Wards}
      |
      v
  for each ward (in order, or fanned out with errgroup):
      roster.Processor.ProcessWard -> WardReport + ledger entries
      |
      v
  merge per-ward books in ward order
      |
      v
  settlement.Reconcile(redeployments)

FAILURE ISOLATION:
  A malformed roster fails each ward on its own; the run still completes
  with that ward's WardReport.Err set and zero staff. Only a cancelled
  context fails the whole run.

SEE ALSO:
  - roster/aggregate.go: Ward processing
  - settlement: Pairwise netting
  - store/sqlite: Persists finished runs
*/
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/ledger"
	"github.com/warp/roster-ledger/roster"
	"github.com/warp/roster-ledger/settlement"
	"github.com/warp/roster-ledger/shift"
)

// Run outcomes, also used as the roster_runs_total label.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial" // some wards failed
	OutcomeFailed  = "failed"  // every ward failed, or the run was cancelled
)

// =============================================================================
// TYPES
// =============================================================================

// Options configure an Engine. Zero values fall back to defaults.
type Options struct {
	Synonyms        [][]string // nil means roster.DefaultSynonyms
	ContractedHours decimal.Decimal
	Parallelism     int
	Logger          *zap.Logger
	Metrics         *Metrics
}

// Input is one run request.
type Input struct {
	Matrix  roster.Matrix
	Catalog *catalog.Catalog // nil means the default table
	Wards   []string         // empty means every department in the matrix
}

// Run is a finished reconciliation.
type Run struct {
	ID          generic.RunID
	Catalog     *catalog.Catalog
	CatalogTier catalog.Tier
	Wards       []roster.WardReport
	Ledgers     *ledger.Book
	Settlement  settlement.Result
	Anomalies   []roster.Anomaly
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Staff flattens every ward's records in ward order.
func (r *Run) Staff() []roster.StaffRecord {
	var out []roster.StaffRecord
	for _, w := range r.Wards {
		out = append(out, w.Staff...)
	}
	return out
}

// Outcome summarizes ward failures.
func (r *Run) Outcome() string {
	failed := 0
	for _, w := range r.Wards {
		if w.Err != nil {
			failed++
		}
	}
	switch {
	case len(r.Wards) > 0 && failed == len(r.Wards):
		return OutcomeFailed
	case failed > 0:
		return OutcomePartial
	}
	return OutcomeOK
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	wards       *roster.WardMatcher
	contracted  decimal.Decimal
	parallelism int
	log         *zap.Logger
	metrics     *Metrics
}

func New(opts Options) *Engine {
	synonyms := opts.Synonyms
	if synonyms == nil {
		synonyms = roster.DefaultSynonyms()
	}
	contracted := opts.ContractedHours
	if !contracted.IsPositive() {
		contracted = roster.DefaultContractedHours
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		wards:       roster.NewWardMatcher(synonyms),
		contracted:  contracted,
		parallelism: parallelism,
		log:         log,
		metrics:     opts.Metrics,
	}
}

// WardMatcher exposes the matcher so callers can list wards the same way.
func (e *Engine) WardMatcher() *roster.WardMatcher {
	return e.wards
}

// Run processes in. The returned error is non-nil only when ctx is done.
func (e *Engine) Run(ctx context.Context, in Input) (*Run, error) {
	start := time.Now()
	cat := in.Catalog
	if cat == nil {
		cat = catalog.New(catalog.DefaultEntries(), catalog.TierDefault)
	}

	run := &Run{
		ID:          generic.RunID(uuid.NewString()),
		Catalog:     cat,
		CatalogTier: cat.Tier(),
		Ledgers:     ledger.NewBook(),
		StartedAt:   start.UTC(),
	}
	log := e.log.With(zap.String("run_id", string(run.ID)))

	wards := in.Wards
	if len(wards) == 0 {
		discovered, err := e.wards.Wards(in.Matrix)
		if err != nil {
			// Nothing to discover wards from; surface the shape error as one
			// failed pseudo-ward so the run is still reported.
			wards = []string{""}
		} else {
			wards = discovered
		}
	}

	proc := &roster.Processor{
		Classifier:      shift.NewClassifier(cat, log),
		Wards:           e.wards,
		ContractedHours: e.contracted,
		Logger:          log,
		OnClassified:    e.metrics.observeCell,
	}

	reports, books, err := e.processWards(ctx, proc, in.Matrix, wards)
	if err != nil {
		e.metrics.observeRun(run, OutcomeFailed, time.Since(start))
		log.Error("run cancelled", zap.Error(err))
		return nil, err
	}

	for i := range reports {
		run.Ledgers.Merge(books[i])
		run.Anomalies = append(run.Anomalies, reports[i].Anomalies...)
	}
	run.Wards = reports
	run.Settlement = settlement.Reconcile(run.Ledgers.Redeployments())
	run.FinishedAt = time.Now().UTC()

	outcome := run.Outcome()
	e.metrics.observeRun(run, outcome, time.Since(start))
	log.Info("run finished",
		zap.String("outcome", outcome),
		zap.String("catalog_tier", string(run.CatalogTier)),
		zap.Int("wards", len(run.Wards)),
		zap.Int("ledger_entries", run.Ledgers.Len()),
		zap.Int("anomalies", len(run.Anomalies)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run, nil
}

// processWards gives each ward its own book so that merging in ward order
// yields the same ledgers whether wards ran sequentially or not.
func (e *Engine) processWards(ctx context.Context, proc *roster.Processor, m roster.Matrix, wards []string) ([]roster.WardReport, []*ledger.Book, error) {
	reports := make([]roster.WardReport, len(wards))
	books := make([]*ledger.Book, len(wards))

	if e.parallelism == 1 {
		for i, w := range wards {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			books[i] = ledger.NewBook()
			reports[i] = proc.ProcessWard(m, w, books[i])
		}
		return reports, books, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, w := range wards {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			books[i] = ledger.NewBook()
			reports[i] = proc.ProcessWard(m, w, books[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return reports, books, nil
}

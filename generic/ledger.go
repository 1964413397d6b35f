/*
ledger.go - Append-only persisted ledger

PURPOSE:
  The Ledger is the durable copy of the three run ledgers (redeployment,
  hours owed, paid back). A run builds its ledgers in memory; once the run
  finishes they are committed here in emission order and never touched again.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. ORDERED: Entries come back in Seq order within (run, kind).
  3. IDEMPOTENT: Same idempotency key = same entry (no duplicates).

CORRECTIONS:
  A wrong roster is corrected by re-running the corrected roster, which
  produces a new run. Ledger rows of the old run stay as they were.

SEE ALSO:
  - store.go: Low-level persistence interface
  - ledger/book.go: In-run builder that commits through this interface
*/
package generic

import "context"

// =============================================================================
// LEDGER - Append-only entry log
// =============================================================================

// Ledger is the durable record of what a run emitted.
//
// INVARIANTS:
//   - Append-only: No Update, No Delete.
//   - Immutable: Once written, entries cannot be modified.
type Ledger interface {
	// AppendBatch adds entries atomically. Fails if any idempotency key
	// exists or repeats within the batch.
	AppendBatch(ctx context.Context, es []Entry) error

	// Entries returns one kind of a run's ledger in Seq order.
	Entries(ctx context.Context, runID RunID, kind EntryKind) ([]Entry, error)

	// EntriesForEntity returns every kind for one staff member in a run.
	EntriesForEntity(ctx context.Context, runID RunID, entityID EntityID) ([]Entry, error)

	// Total sums the deltas of one kind in a run.
	Total(ctx context.Context, runID RunID, kind EntryKind) (Amount, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, es []Entry) error {
	seen := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if seen[e.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[e.IdempotencyKey] = true

		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, es)
}

func (l *DefaultLedger) Entries(ctx context.Context, runID RunID, kind EntryKind) ([]Entry, error) {
	return l.Store.Load(ctx, runID, kind)
}

func (l *DefaultLedger) EntriesForEntity(ctx context.Context, runID RunID, entityID EntityID) ([]Entry, error) {
	return l.Store.LoadByEntity(ctx, runID, entityID)
}

func (l *DefaultLedger) Total(ctx context.Context, runID RunID, kind EntryKind) (Amount, error) {
	es, err := l.Store.Load(ctx, runID, kind)
	if err != nil {
		return Amount{}, err
	}

	total := NewAmount(0, UnitHours)
	for _, e := range es {
		total = total.Add(e.Delta)
	}
	return total, nil
}

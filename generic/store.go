/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the boundary between the ledger and whatever holds its rows.
  The Store keeps append-only semantics; there is no Update or Delete.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for tests

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// Store handles persistence of ledger entries.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete.
type Store interface {
	// AppendBatch persists entries atomically. Either all succeed or none do.
	AppendBatch(ctx context.Context, es []Entry) error

	// Load returns a run's entries of one kind ordered by Seq.
	Load(ctx context.Context, runID RunID, kind EntryKind) ([]Entry, error)

	// LoadByEntity returns a run's entries for one entity, ordered by kind then Seq.
	LoadByEntity(ctx context.Context, runID RunID, entityID EntityID) ([]Entry, error)

	// Exists checks if an idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

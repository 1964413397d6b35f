package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/shift"
)

// =============================================================================
// BOOK - The three run ledgers
// =============================================================================

// Book holds one run's ledgers. Appends are serialized by a lock so wards
// may be processed concurrently; for a reproducible order give each ward its
// own Book and Merge them in ward order.
type Book struct {
	mu            sync.Mutex
	redeployments []RedeploymentEntry
	toil          []ToilEntry
	paybacks      []PaybackEntry
}

func NewBook() *Book {
	return &Book{}
}

// Record appends whatever entry a classified cell implies and reports
// whether one was appended. SICK, UNPAID, NON_WORKING, UNKNOWN and
// unmarked NORMAL cells append nothing.
func (b *Book) Record(c shift.Classified, staff shift.Staff) bool {
	switch {
	case c.Category == shift.CategoryRedeployment:
		b.AppendRedeployment(RedeploymentEntry{
			Date:       staff.Date,
			FromWard:   staff.Ward,
			ToDept:     c.Destination,
			EmployeeID: staff.EmployeeID,
			StaffName:  staff.Name,
			Role:       staff.Role,
			ShiftCode:  c.Code,
			Hours:      c.Hours,
		})
		return true
	case c.Category == shift.CategoryHoursOwed:
		b.AppendToil(ToilEntry{
			Date:       staff.Date,
			Ward:       staff.Ward,
			EmployeeID: staff.EmployeeID,
			StaffName:  staff.Name,
			Role:       staff.Role,
			ShiftCode:  c.Code,
			Hours:      c.Hours,
			Kind:       generic.KindToilDebt,
		})
		return true
	case c.Category == shift.CategoryNormal && c.PaidBack():
		b.AppendPayback(PaybackEntry{
			Date:       staff.Date,
			Ward:       staff.Ward,
			EmployeeID: staff.EmployeeID,
			StaffName:  staff.Name,
			Role:       staff.Role,
			ShiftCode:  c.Code,
			Hours:      c.Hours,
			Kind:       generic.KindPayback,
		})
		return true
	}
	return false
}

func (b *Book) AppendRedeployment(e RedeploymentEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.redeployments = append(b.redeployments, e)
}

func (b *Book) AppendToil(e ToilEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e.Kind = generic.KindToilDebt
	b.toil = append(b.toil, e)
}

func (b *Book) AppendPayback(e PaybackEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e.Kind = generic.KindPayback
	b.paybacks = append(b.paybacks, e)
}

// Merge appends every entry of other, preserving its order.
func (b *Book) Merge(other *Book) {
	if other == nil || other == b {
		return
	}
	other.mu.Lock()
	redeployments := append([]RedeploymentEntry(nil), other.redeployments...)
	toil := append([]ToilEntry(nil), other.toil...)
	paybacks := append([]PaybackEntry(nil), other.paybacks...)
	other.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.redeployments = append(b.redeployments, redeployments...)
	b.toil = append(b.toil, toil...)
	b.paybacks = append(b.paybacks, paybacks...)
}

// Redeployments returns a copy of the redeployment ledger.
func (b *Book) Redeployments() []RedeploymentEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RedeploymentEntry(nil), b.redeployments...)
}

// Toil returns a copy of the hours-owed ledger.
func (b *Book) Toil() []ToilEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ToilEntry(nil), b.toil...)
}

// Paybacks returns a copy of the paid-back ledger.
func (b *Book) Paybacks() []PaybackEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PaybackEntry(nil), b.paybacks...)
}

// Len returns the number of entries across all three ledgers.
func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.redeployments) + len(b.toil) + len(b.paybacks)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Entries flattens the book into persisted rows for runID. Seq restarts at
// zero per kind and idempotency keys are run/kind/seq, so committing the
// same run twice is rejected.
func (b *Book) Entries(runID generic.RunID) []generic.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]generic.Entry, 0, len(b.redeployments)+len(b.toil)+len(b.paybacks))
	add := func(seq int, e generic.Entry) {
		e.RunID = runID
		e.Seq = seq
		e.IdempotencyKey = fmt.Sprintf("%s/%s/%d", runID, e.Kind, seq)
		e.ID = generic.EntryID(e.IdempotencyKey)
		out = append(out, e)
	}
	for i, e := range b.redeployments {
		add(i, e.toGeneric())
	}
	for i, e := range b.toil {
		add(i, e.toGeneric())
	}
	for i, e := range b.paybacks {
		add(i, e.toGeneric())
	}
	return out
}

// Commit writes the whole book to l in one atomic batch.
func (b *Book) Commit(ctx context.Context, runID generic.RunID, l generic.Ledger) error {
	entries := b.Entries(runID)
	if len(entries) == 0 {
		return nil
	}
	if err := l.AppendBatch(ctx, entries); err != nil {
		return fmt.Errorf("failed to commit ledgers for run %s: %w", runID, err)
	}
	return nil
}

// Load rebuilds a run's book from a persisted ledger.
func Load(ctx context.Context, runID generic.RunID, l generic.Ledger) (*Book, error) {
	b := NewBook()

	redeployments, err := l.Entries(ctx, runID, generic.KindRedeployment)
	if err != nil {
		return nil, err
	}
	for _, e := range redeployments {
		b.redeployments = append(b.redeployments, RedeploymentFromGeneric(e))
	}

	toil, err := l.Entries(ctx, runID, generic.KindToilDebt)
	if err != nil {
		return nil, err
	}
	for _, e := range toil {
		b.toil = append(b.toil, ToilEntry{
			Date: e.EffectiveAt, Ward: e.Ward, EmployeeID: string(e.EntityID),
			StaffName: e.StaffName, Role: e.Role, ShiftCode: e.ShiftCode,
			Hours: e.Delta.Value, Kind: generic.KindToilDebt,
		})
	}

	paybacks, err := l.Entries(ctx, runID, generic.KindPayback)
	if err != nil {
		return nil, err
	}
	for _, e := range paybacks {
		b.paybacks = append(b.paybacks, PaybackEntry{
			Date: e.EffectiveAt, Ward: e.Ward, EmployeeID: string(e.EntityID),
			StaffName: e.StaffName, Role: e.Role, ShiftCode: e.ShiftCode,
			Hours: e.Delta.Value, Kind: generic.KindPayback,
		})
	}
	return b, nil
}

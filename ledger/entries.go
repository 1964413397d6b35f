/*
Package ledger builds the three append-only ledgers of a roster run.

PURPOSE:
  Classification has side effects beyond a staff member's totals: a shift
  worked on another department is owed back between wards, an HO cell is a
  TOIL debt, a PB cell repays one. Each of those becomes an entry here, in
  the order the cells were processed.

LEDGERS:
  Redeployments: staff rostered on one ward who worked on another
  TOIL debts:    HO cells (kind HO_DEBT)
  Paybacks:      NORMAL cells carrying the PB marker (kind PB_REPAYMENT)

INVARIANTS:
  1. APPEND-ONLY: entries are never edited, deduplicated or removed
  2. ORDERED: emission order; date-wise monotonic within a staff row,
     not globally sorted
  3. RUN-SCOPED: a Book belongs to exactly one run

SEE ALSO:
  - book.go: The Book and its commit to generic.Ledger
  - settlement: Consumes the redeployment ledger
*/
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/generic"
)

// RedeploymentEntry records hours a staff member worked away from FromWard.
type RedeploymentEntry struct {
	Date       generic.TimePoint
	FromWard   string
	ToDept     string
	EmployeeID string
	StaffName  string
	Role       string
	ShiftCode  string
	Hours      decimal.Decimal
}

// ToilEntry records hours owed by a staff member sent home but paid.
type ToilEntry struct {
	Date       generic.TimePoint
	Ward       string
	EmployeeID string
	StaffName  string
	Role       string
	ShiftCode  string
	Hours      decimal.Decimal
	Kind       generic.EntryKind // always KindToilDebt
}

// PaybackEntry records a shift worked to repay hours owed.
type PaybackEntry struct {
	Date       generic.TimePoint
	Ward       string
	EmployeeID string
	StaffName  string
	Role       string
	ShiftCode  string
	Hours      decimal.Decimal
	Kind       generic.EntryKind // always KindPayback
}

func (e RedeploymentEntry) toGeneric() generic.Entry {
	return generic.Entry{
		Kind:         generic.KindRedeployment,
		EffectiveAt:  e.Date,
		EntityID:     generic.EntityID(e.EmployeeID),
		Ward:         e.FromWard,
		Counterparty: e.ToDept,
		StaffName:    e.StaffName,
		Role:         e.Role,
		ShiftCode:    e.ShiftCode,
		Delta:        generic.HoursOf(e.Hours),
	}
}

func (e ToilEntry) toGeneric() generic.Entry {
	return generic.Entry{
		Kind:        generic.KindToilDebt,
		EffectiveAt: e.Date,
		EntityID:    generic.EntityID(e.EmployeeID),
		Ward:        e.Ward,
		StaffName:   e.StaffName,
		Role:        e.Role,
		ShiftCode:   e.ShiftCode,
		Delta:       generic.HoursOf(e.Hours),
	}
}

func (e PaybackEntry) toGeneric() generic.Entry {
	return generic.Entry{
		Kind:        generic.KindPayback,
		EffectiveAt: e.Date,
		EntityID:    generic.EntityID(e.EmployeeID),
		Ward:        e.Ward,
		StaffName:   e.StaffName,
		Role:        e.Role,
		ShiftCode:   e.ShiftCode,
		Delta:       generic.HoursOf(e.Hours),
	}
}

// RedeploymentFromGeneric rebuilds a typed entry from a persisted row.
func RedeploymentFromGeneric(e generic.Entry) RedeploymentEntry {
	return RedeploymentEntry{
		Date:       e.EffectiveAt,
		FromWard:   e.Ward,
		ToDept:     e.Counterparty,
		EmployeeID: string(e.EntityID),
		StaffName:  e.StaffName,
		Role:       e.Role,
		ShiftCode:  e.ShiftCode,
		Hours:      e.Delta.Value,
	}
}

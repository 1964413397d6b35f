/*
Package generic provides the domain-agnostic primitives of the roster engine.

PURPOSE:
  This package contains the types every other package leans on: decimal
  quantities, day-granular time points, identifiers, and the append-only
  ledger row that finished runs are persisted as. It knows nothing about
  shift codes, wards or staff records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 12.5 hours)
  - Entry: An immutable persisted ledger row (redeployment, TOIL, payback)
  - RunID / EntityID / EntryID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified after they are appended
  2. Precision: Uses decimal.Decimal to avoid floating-point drift in hours
  3. Type Safety: Strong typing for IDs prevents mixing run/entity IDs

USAGE:
  h := generic.Hours(12.5)
  e := generic.Entry{
      RunID:    "run-1",
      Kind:     generic.KindRedeployment,
      EntityID: "E100",
      Delta:    h,
  }

SEE ALSO:
  - ledger.go: Ledger interface over a Store
  - store.go: Persistence contract
  - time.go: TimePoint and roster date-header parsing
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// Hours is shorthand for NewAmount(value, UnitHours).
func Hours(value float64) Amount {
	return NewAmount(value, UnitHours)
}

// HoursOf wraps an existing decimal as an hours amount.
func HoursOf(value decimal.Decimal) Amount {
	return Amount{Value: value, Unit: UnitHours}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount              { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool       { return a.Unit == b.Unit && a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) String() string            { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RunID string
type EntityID string
type EntryID string

// =============================================================================
// ENTRY - Persisted ledger row
// =============================================================================

// EntryKind discriminates the three run ledgers once they are flattened
// into a single append-only table.
type EntryKind string

const (
	KindRedeployment EntryKind = "REDEPLOYMENT"
	KindToilDebt     EntryKind = "HO_DEBT"
	KindPayback      EntryKind = "PB_REPAYMENT"
)

// Valid reports whether k is one of the known ledger kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindRedeployment, KindToilDebt, KindPayback:
		return true
	}
	return false
}

// Entry is one persisted ledger row. Seq is the emission order within
// (RunID, Kind) and is the only ordering a reader may rely on.
type Entry struct {
	ID           EntryID
	RunID        RunID
	Kind         EntryKind
	Seq          int
	EffectiveAt  TimePoint
	EntityID     EntityID
	Ward         string // home ward (fromWard for redeployments)
	Counterparty string // destination department, redeployments only
	StaffName    string
	Role         string
	ShiftCode    string
	Delta        Amount

	IdempotencyKey string
	CreatedAt      TimePoint
}

package roster

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/shift"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// StaffRef identifies one staff row within a ward.
type StaffRef struct {
	EmployeeID string
	Name       string
	Role       string
	Ward       string
}

// Key is the reference cells are filed under: the employee id, else the name.
func (s StaffRef) Key() string {
	if s.EmployeeID != "" {
		return s.EmployeeID
	}
	return s.Name
}

// RosterCell is one date cell of a staff row.
type RosterCell struct {
	EmployeeRef string
	Date        generic.TimePoint
	RawValue    string
}

// =============================================================================
// STAFF RECORD
// =============================================================================

// DefaultContractedHours is the monthly contract assumed for every row.
var DefaultContractedHours = decimal.NewFromInt(150)

// StaffRecord is one staff member's totals for a run. ToilBalance,
// NetWardHours and WardBalance are derived; records are only built through
// Aggregate or Sum, which compute them from their components.
type StaffRecord struct {
	EmployeeID string
	Name       string
	Role       string
	Ward       string

	ContractedHours     decimal.Decimal
	RosteredToWardHours decimal.Decimal
	ActualHours         decimal.Decimal

	ShiftCount      int
	DayShiftCount   int
	NightShiftCount int
	SickCount       int
	SickHours       decimal.Decimal
	UnpaidCount     int
	UnpaidHours     decimal.Decimal

	HoursOwed          decimal.Decimal
	HoursPaidBack      decimal.Decimal
	ToilBalance        decimal.Decimal // HoursOwed - HoursPaidBack
	RedeployedOutHours decimal.Decimal
	NetWardHours       decimal.Decimal // ActualHours - RedeployedOutHours
	WardBalance        decimal.Decimal // NetWardHours - RosteredToWardHours
}

// accumulator is the mutable form of a StaffRecord while cells are folded in.
type accumulator struct {
	rec StaffRecord
}

func newAccumulator(ref StaffRef, contracted decimal.Decimal) *accumulator {
	return &accumulator{rec: StaffRecord{
		EmployeeID:      ref.EmployeeID,
		Name:            ref.Name,
		Role:            ref.Role,
		Ward:            ref.Ward,
		ContractedHours: contracted,
	}}
}

func (a *accumulator) apply(e shift.Effect) {
	r := &a.rec
	r.ActualHours = r.ActualHours.Add(e.ActualHours)
	r.RosteredToWardHours = r.RosteredToWardHours.Add(e.RosteredToWardHours)
	r.SickHours = r.SickHours.Add(e.SickHours)
	r.UnpaidHours = r.UnpaidHours.Add(e.UnpaidHours)
	r.HoursOwed = r.HoursOwed.Add(e.HoursOwed)
	r.HoursPaidBack = r.HoursPaidBack.Add(e.HoursPaidBack)
	r.RedeployedOutHours = r.RedeployedOutHours.Add(e.RedeployedOutHours)
	r.ShiftCount += e.Shifts
	r.DayShiftCount += e.DayShifts
	r.NightShiftCount += e.NightShifts
	r.SickCount += e.SickCount
	r.UnpaidCount += e.UnpaidCount
}

func (a *accumulator) add(other StaffRecord) {
	r := &a.rec
	r.ContractedHours = r.ContractedHours.Add(other.ContractedHours)
	r.ActualHours = r.ActualHours.Add(other.ActualHours)
	r.RosteredToWardHours = r.RosteredToWardHours.Add(other.RosteredToWardHours)
	r.SickHours = r.SickHours.Add(other.SickHours)
	r.UnpaidHours = r.UnpaidHours.Add(other.UnpaidHours)
	r.HoursOwed = r.HoursOwed.Add(other.HoursOwed)
	r.HoursPaidBack = r.HoursPaidBack.Add(other.HoursPaidBack)
	r.RedeployedOutHours = r.RedeployedOutHours.Add(other.RedeployedOutHours)
	r.ShiftCount += other.ShiftCount
	r.DayShiftCount += other.DayShiftCount
	r.NightShiftCount += other.NightShiftCount
	r.SickCount += other.SickCount
	r.UnpaidCount += other.UnpaidCount
}

// finalize computes the derived fields and hands out the immutable record.
func (a *accumulator) finalize() StaffRecord {
	return finalized(a.rec)
}

func finalized(r StaffRecord) StaffRecord {
	r.ToilBalance = r.HoursOwed.Sub(r.HoursPaidBack)
	r.NetWardHours = r.ActualHours.Sub(r.RedeployedOutHours)
	r.WardBalance = r.NetWardHours.Sub(r.RosteredToWardHours)
	return r
}

// Recompute re-derives a record loaded from storage, discarding whatever
// derived values it carried.
func Recompute(r StaffRecord) StaffRecord {
	return finalized(r)
}

// Sum totals records into one row for ward. Derived fields are computed
// from the summed components.
func Sum(ward string, records []StaffRecord) StaffRecord {
	acc := &accumulator{rec: StaffRecord{Name: "TOTAL", Ward: ward}}
	for _, r := range records {
		acc.add(r)
	}
	return acc.finalize()
}

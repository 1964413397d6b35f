package shift

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is the single classification of a populated roster cell.
type Category string

const (
	CategoryNormal       Category = "NORMAL"
	CategorySick         Category = "SICK"
	CategoryUnpaid       Category = "UNPAID"
	CategoryHoursOwed    Category = "HOURS_OWED"
	CategoryPaidBackMark Category = "PAID_BACK_MARK" // marker layered on NORMAL, never a Category on its own
	CategoryRedeployment Category = "REDEPLOYMENT"
	CategoryNonWorking   Category = "NON_WORKING"
	CategoryUnknown      Category = "UNKNOWN"
)

// ShiftKind tells day and night work apart for NORMAL shifts.
type ShiftKind string

const (
	ShiftNone  ShiftKind = ""
	ShiftDay   ShiftKind = "day"
	ShiftNight ShiftKind = "night"
)

// HoursSource records where a shift's hours came from.
type HoursSource string

const (
	SourceNone      HoursSource = ""
	SourceCatalog   HoursSource = "catalog"
	SourceRange     HoursSource = "range"
	SourceBasic     HoursSource = "basic"
	SourceHeuristic HoursSource = "heuristic" // sick/unpaid substring sniffing
	SourceFallback  HoursSource = "fallback"  // unresolvable, defaulted
)

// AdvisoryKind names a non-blocking data-quality finding.
type AdvisoryKind string

const (
	AdvisoryUnknownCode          AdvisoryKind = "unknown_code"
	AdvisoryHOBaseUnresolved     AdvisoryKind = "ho_base_unresolved"
	AdvisoryDestinationUnknown   AdvisoryKind = "destination_unknown"
	AdvisorySameWardRedeployment AdvisoryKind = "same_ward_redeployment"
	AdvisoryZeroHourRedeployment AdvisoryKind = "zero_hour_redeployment"
)

// Advisory is a finding attached to one classified cell.
type Advisory struct {
	Kind    AdvisoryKind
	Message string
}

// =============================================================================
// CLASSIFIED SHIFT
// =============================================================================

// Classified is derived from a cell and never stored.
type Classified struct {
	Category    Category
	Marker      Category // CategoryPaidBackMark or ""
	Code        string   // normalized cell text
	BaseCode    string   // code with HO/PB markers stripped
	Hours       decimal.Decimal
	HoursSource HoursSource
	Destination string // REDEPLOYMENT only
	Shift       ShiftKind
	Advisories  []Advisory
}

// PaidBack reports whether the cell carries the PB marker on top of NORMAL.
func (c Classified) PaidBack() bool {
	return c.Marker == CategoryPaidBackMark
}

// Effect is the change a classified cell makes to a staff record.
// All fields are deltas; zero values mean "no change".
type Effect struct {
	ActualHours         decimal.Decimal
	RosteredToWardHours decimal.Decimal
	SickHours           decimal.Decimal
	UnpaidHours         decimal.Decimal
	HoursOwed           decimal.Decimal
	HoursPaidBack       decimal.Decimal
	RedeployedOutHours  decimal.Decimal

	Shifts      int
	DayShifts   int
	NightShifts int
	SickCount   int
	UnpaidCount int
}

// Effect returns the staff-record deltas implied by the classification.
//
//	SICK          sick += h, rostered -= h, actual -= h
//	UNPAID        unpaid += h, rostered -= h, actual -= h
//	HOURS_OWED    owed += h, rostered -= h, actual -= h
//	REDEPLOYMENT  redeployedOut += h, actual += h, shifts++
//	NORMAL        actual += h, rostered += h, shifts++, day/night++, paidBack += h when marked
//	NON_WORKING, UNKNOWN: nothing
func (c Classified) Effect() Effect {
	h := c.Hours
	switch c.Category {
	case CategorySick:
		return Effect{
			SickHours:           h,
			SickCount:           1,
			RosteredToWardHours: h.Neg(),
			ActualHours:         h.Neg(),
		}
	case CategoryUnpaid:
		return Effect{
			UnpaidHours:         h,
			UnpaidCount:         1,
			RosteredToWardHours: h.Neg(),
			ActualHours:         h.Neg(),
		}
	case CategoryHoursOwed:
		return Effect{
			HoursOwed:           h,
			RosteredToWardHours: h.Neg(),
			ActualHours:         h.Neg(),
		}
	case CategoryRedeployment:
		return Effect{
			RedeployedOutHours: h,
			ActualHours:        h,
			Shifts:             1,
		}
	case CategoryNormal:
		e := Effect{
			ActualHours:         h,
			RosteredToWardHours: h,
			Shifts:              1,
		}
		switch c.Shift {
		case ShiftDay:
			e.DayShifts = 1
		case ShiftNight:
			e.NightShifts = 1
		}
		if c.PaidBack() {
			e.HoursPaidBack = h
		}
		return e
	}
	return Effect{}
}

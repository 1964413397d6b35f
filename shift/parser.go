/*
Package shift turns roster cell text into classified shifts.

PURPOSE:
  A roster cell is free text typed by a ward manager: "LD", "N", "SICK",
  "E HO", "LD PB", "LD W3", "PBCU", "9-13", "08:00-14:00". This package
  normalizes that text, derives hours for free-form time ranges, and
  assigns every populated cell exactly one category.

FILES:
  - parser.go:     Cell normalization and time-range hours
  - category.go:   Categories, shift kinds and per-category effects
  - classifier.go: The ordered rule chain

SEE ALSO:
  - catalog: Hours table consulted by the classifier
  - roster/aggregate.go: Folds classified cells into staff records
*/
package shift

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/generic"
)

// =============================================================================
// PARSED CELL
// =============================================================================

// CellKind says what ParseCell found.
type CellKind int

const (
	CellEmpty CellKind = iota // nothing to classify, skipped upstream
	CellRange                 // free-form time range with derived hours
	CellCode                  // shift code for the classifier
)

// Cell is the result of parsing one raw roster value.
type Cell struct {
	Kind       CellKind
	Code       string // normalized text, set for CellRange and CellCode
	Hours      decimal.Decimal
	Descriptor string
	FinanceTag string
}

var (
	// 9-13, 20 - 8
	simpleRangePattern = regexp.MustCompile(`^(\d{1,2})\s*-\s*(\d{1,2})$`)

	// 08:00-14:00, 8:00am - 2:30pm
	clockRangePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)?\s*-\s*(\d{1,2}):(\d{2})\s*(AM|PM)?$`)
)

var (
	minutesPerDay  = decimal.NewFromInt(24 * 60)
	minutesPerHour = decimal.NewFromInt(60)
)

// ParseCell normalizes raw and, when it is a time range, derives its hours.
// Anything else is returned as a code for the classifier.
func ParseCell(raw string) Cell {
	code := generic.NormalizeCode(raw)
	if code == "" {
		return Cell{Kind: CellEmpty}
	}
	if hours, ok := RangeHours(code); ok {
		return Cell{
			Kind:       CellRange,
			Code:       code,
			Hours:      hours,
			Descriptor: "Time range " + code,
			FinanceTag: catalog.FinanceBillable,
		}
	}
	return Cell{Kind: CellCode, Code: code}
}

// RangeHours derives hours from a normalized "start-end" or "HH:MM-HH:MM"
// value. Ranges that end before they start wrap past midnight.
func RangeHours(code string) (decimal.Decimal, bool) {
	if m := simpleRangePattern.FindStringSubmatch(code); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end > start {
			return decimal.NewFromInt(int64(end - start)), true
		}
		return decimal.NewFromInt(int64(24 - start + end)), true
	}

	if m := clockRangePattern.FindStringSubmatch(code); m != nil {
		start := clockMinutes(m[1], m[2], m[3])
		end := clockMinutes(m[4], m[5], m[6])
		diff := decimal.NewFromInt(int64(end - start))
		if diff.IsNegative() {
			diff = diff.Add(minutesPerDay)
		}
		return diff.Div(minutesPerHour), true
	}

	return decimal.Zero, false
}

// clockMinutes converts an optionally meridiem-suffixed clock to minutes
// past midnight. 12AM is midnight, 12PM is noon.
func clockMinutes(hh, mm, meridiem string) int {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	switch meridiem {
	case "AM":
		h %= 12
	case "PM":
		h = h%12 + 12
	}
	return h*60 + m
}

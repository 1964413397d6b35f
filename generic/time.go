package generic

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Day-granular calendar date
// =============================================================================

// TimePoint is a calendar day in UTC. Roster cells never carry a time of day.
type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// TimePointOf truncates t to its calendar day.
func TimePointOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return TimePointOf(time.Now())
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) Year() int               { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month       { return tp.Time.Month() }
func (tp TimePoint) Day() int                { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool            { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.Time.Format(DateLayout)
}

// DateLayout is the canonical date form used in storage and JSON.
const DateLayout = "2006-01-02"

// ParseDate parses the canonical form only.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return TimePointOf(t), nil
}

// =============================================================================
// ROSTER DATE HEADERS
// =============================================================================

// rosterDateLayouts are tried in order. Day-first forms precede month-first
// forms because rosters are produced by UK wards.
var rosterDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
	"2/1/06",
	"2-Jan-2006",
	"02-Jan-06",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Mon 2 Jan 2006",
	"Mon 02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01-02-06", // excelize default short date
}

// Excel serials for 1954-11-03 .. 2173-10-14; anything outside is not a date header.
const (
	minExcelSerial = 20000
	maxExcelSerial = 100000
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseRosterDate interprets a roster header cell as a calendar day.
// It returns false for identity headers, totals columns and anything else
// that is not a date.
func ParseRosterDate(header string) (TimePoint, bool) {
	s := strings.TrimSpace(header)
	if s == "" {
		return TimePoint{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minExcelSerial || serial > maxExcelSerial {
			return TimePoint{}, false
		}
		return TimePointOf(excelEpoch.AddDate(0, 0, int(serial))), true
	}

	for _, layout := range rosterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TimePointOf(t), true
		}
	}
	return TimePoint{}, false
}

package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/roster-ledger/generic"
)

func TestParseRosterDate_HeaderForms(t *testing.T) {
	want := generic.NewTimePoint(2025, time.March, 4)

	tests := []struct {
		header string
	}{
		{"2025-03-04"},
		{"04/03/2025"},
		{"4/3/2025"},
		{"04-03-2025"},
		{"04.03.2025"},
		{"04/03/25"},
		{"4-Mar-2025"},
		{"04-Mar-25"},
		{"4 Mar 2025"},
		{"4 March 2025"},
		{"Tue 4 Mar 2025"},
		{"03-04-25"}, // excelize short date, month first
		{"45720"},    // Excel serial
		{" 2025-03-04 "},
	}

	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			got, ok := generic.ParseRosterDate(tc.header)
			assert.True(t, ok)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}
}

func TestParseRosterDate_DayFirstWinsWhenAmbiguous(t *testing.T) {
	// GIVEN: A UK roster header 01/02/2025
	// WHEN: Parsing it
	// THEN: It is 1 February, not 2 January

	got, ok := generic.ParseRosterDate("01/02/2025")
	assert.True(t, ok)
	assert.Equal(t, "2025-02-01", got.String())
}

func TestParseRosterDate_NotADate(t *testing.T) {
	for _, h := range []string{"", "Employee ID", "Name", "Total Hours", "7", "150", "Notes"} {
		_, ok := generic.ParseRosterDate(h)
		assert.False(t, ok, "header %q", h)
	}
}

func TestTimePoint_StringAndOrdering(t *testing.T) {
	a := generic.NewTimePoint(2025, time.March, 1)
	b := a.AddDays(1)

	assert.Equal(t, "2025-03-01", a.String())
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, "", generic.TimePoint{}.String())

	parsed, err := generic.ParseDate("2025-03-02")
	assert.NoError(t, err)
	assert.True(t, parsed.Equal(b))
}

func TestNormalizeCode_FoldsWidthAndCase(t *testing.T) {
	assert.Equal(t, "LD", generic.NormalizeCode("  ld "))
	assert.Equal(t, "LD", generic.NormalizeCode("ＬＤ")) // full-width
	assert.Equal(t, "E HO", generic.NormalizeCode("e ho"))
	assert.Equal(t, "WARD2", generic.CompactKey(" Ward 2 "))
}

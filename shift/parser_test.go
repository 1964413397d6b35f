package shift_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/shift"
)

func TestParseCell_TimeRanges(t *testing.T) {
	tests := []struct {
		raw   string
		hours string
	}{
		{"9-13", "4"},
		{"20-8", "12"}, // overnight wrap
		{"20 - 8", "12"},
		{"08:00-14:00", "6"},
		{"22:00-07:30", "9.5"},
		{"8:00am-2:30pm", "6.5"},
		{"12:00AM-12:00PM", "12"},
		{"7-7", "24"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			cell := shift.ParseCell(tc.raw)
			assert.Equal(t, shift.CellRange, cell.Kind)
			assert.True(t, cell.Hours.Equal(decimal.RequireFromString(tc.hours)), "got %s", cell.Hours)
			assert.Equal(t, catalog.FinanceBillable, cell.FinanceTag)
		})
	}
}

func TestParseCell_EmptyAndWhitespace(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t", " "} {
		assert.Equal(t, shift.CellEmpty, shift.ParseCell(raw).Kind, "%q", raw)
	}
}

func TestParseCell_CodeIsNormalizedNotClassified(t *testing.T) {
	cell := shift.ParseCell("  ld pb ")
	assert.Equal(t, shift.CellCode, cell.Kind)
	assert.Equal(t, "LD PB", cell.Code)
	assert.True(t, cell.Hours.IsZero())
}

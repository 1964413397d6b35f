package catalog

import "github.com/shopspring/decimal"

var (
	twelveAndHalf = decimal.RequireFromString("12.5")
	eight         = decimal.NewFromInt(8)
)

// DefaultEntries is the last-resort catalog used when neither the local
// sheet nor the remote lookup yields a usable row.
func DefaultEntries() []Entry {
	return []Entry{
		{Code: "LD", Hours: twelveAndHalf, Descriptor: "Long day", FinanceTag: FinanceBillable},
		{Code: "LN", Hours: twelveAndHalf, Descriptor: "Long night", FinanceTag: FinanceBillable},
		{Code: "L", Hours: eight, Descriptor: "Late", FinanceTag: FinanceBillable},
		{Code: "E", Hours: eight, Descriptor: "Early", FinanceTag: FinanceBillable},
		{Code: "N", Hours: twelveAndHalf, Descriptor: "Night", FinanceTag: FinanceBillable},
		{Code: "D", Hours: eight, Descriptor: "Day", FinanceTag: FinanceBillable},
	}
}

// basicHours backs the hard-coded fallback used after a catalog miss.
var basicHours = map[string]decimal.Decimal{
	"LD": twelveAndHalf,
	"LN": twelveAndHalf,
	"E":  eight,
	"L":  eight,
	"D":  eight,
	"N":  twelveAndHalf,
}

// BasicHours returns the hard-coded hours for the six core shift codes.
func BasicHours(code string) (decimal.Decimal, bool) {
	h, ok := basicHours[code]
	return h, ok
}

// FallbackHours is the hours assumed for sick, unpaid and unresolvable
// hours-owed cells when nothing more specific applies.
func FallbackHours() decimal.Decimal {
	return twelveAndHalf
}

// ShortShiftHours is the hours of an early, late or day shift.
func ShortShiftHours() decimal.Decimal {
	return eight
}

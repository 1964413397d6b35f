package generic

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeCode folds a raw spreadsheet value into the canonical shift-code
// form: NFKC (full-width letters, non-breaking spaces), trimmed, uppercase.
// Internal whitespace is left alone because the classifier matches on it.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(raw)))
}

// CompactKey is NormalizeCode with every whitespace rune removed. Used for
// ward and department comparisons where "Ward 2" and "WARD2" are the same.
func CompactKey(raw string) string {
	return strings.Join(strings.Fields(NormalizeCode(raw)), "")
}

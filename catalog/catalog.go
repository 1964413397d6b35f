/*
Package catalog resolves the authoritative shift-code hours table for a run.

PURPOSE:
  Every roster run needs one table mapping a shift code (LD, N, E...) to the
  hours it represents. That table can live in a sheet next to the roster, in
  a shared lookup maintained by workforce planning, or nowhere at all. This
  package picks one of those, never a blend.

TIER ORDER (first non-empty wins):
  1. Local sheet rows
  2. Remote lookup rows (same columns A-D, extra columns ignored)
  3. Built-in six-entry default table

COLUMN MAPPING (both tiers):
  A: code   B: descriptor   C: finance tag   D: hours

  Rows with an empty code or hours <= 0 are dropped. A blank finance tag
  means BILLABLE. Header rows drop out naturally since "Hours" is not a number.

FAILURE SEMANTICS:
  An unreadable source (missing file, 403, broken workbook) is logged and
  treated as empty. Resolution never returns an error.

SEE ALSO:
  - resolver.go: Tiered resolution
  - sources.go: Where rows come from
  - defaults.go: Default and basic-hours tables
*/
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/generic"
)

// FinanceBillable is the default finance tag.
const FinanceBillable = "BILLABLE"

// Entry is one row of the resolved catalog. Immutable once resolved.
type Entry struct {
	Code       string
	Hours      decimal.Decimal
	Descriptor string
	FinanceTag string
}

// IsBillable is derived from the finance tag, never stored.
func (e Entry) IsBillable() bool {
	return e.FinanceTag == FinanceBillable
}

// Tier records which source produced a catalog.
type Tier string

const (
	TierLocal   Tier = "local"
	TierRemote  Tier = "remote"
	TierDefault Tier = "default"
)

// =============================================================================
// CATALOG - Code lookup over resolved entries
// =============================================================================

// Catalog is a resolved, read-only hours table.
type Catalog struct {
	entries []Entry
	byCode  map[string]Entry
	tier    Tier
}

// New builds a catalog. When a code repeats, the first row wins.
func New(entries []Entry, tier Tier) *Catalog {
	c := &Catalog{
		byCode: make(map[string]Entry, len(entries)),
		tier:   tier,
	}
	for _, e := range entries {
		e.Code = generic.NormalizeCode(e.Code)
		if _, dup := c.byCode[e.Code]; dup {
			continue
		}
		c.byCode[e.Code] = e
		c.entries = append(c.entries, e)
	}
	return c
}

// Lookup finds a code. The code is normalized before lookup.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byCode[generic.NormalizeCode(code)]
	return e, ok
}

// Has reports whether code is in the catalog.
func (c *Catalog) Has(code string) bool {
	_, ok := c.Lookup(code)
	return ok
}

// Entries returns the entries in source order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Tier() Tier {
	if c == nil {
		return ""
	}
	return c.tier
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

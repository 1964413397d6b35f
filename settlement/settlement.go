/*
Package settlement nets the redeployment ledger between wards.

PURPOSE:
  When Ward2 lends staff to Ward3 for 8 hours and borrows 4 hours back, the
  two wards settle the 4-hour difference, not both transfers. This package
  derives that settlement, plus each ward's overall position, from the full
  redeployment ledger of a run.

PAIR SETTLEMENT:
  Entries are grouped by the unordered pair {fromWard, toDept}. The
  lexicographically smaller name is WardA.

    NetBalance = ASentToB - BSentToA
    > 0  WardB owes WardA NetBalance hours
    < 0  WardA owes WardB |NetBalance| hours
    = 0  balanced

WARD POSITION:
    NetPosition = TotalReceivedIn - TotalSentOut
    positive = in credit, negative = in debt

Both outputs are derived fresh on every call; nothing is carried between
calls and nothing here is persisted.

SEE ALSO:
  - ledger/entries.go: RedeploymentEntry
*/
package settlement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/ledger"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// PairSettlement is the netted exchange between two wards.
type PairSettlement struct {
	WardA      string
	WardB      string
	ASentToB   decimal.Decimal
	BSentToA   decimal.Decimal
	NetBalance decimal.Decimal
}

// Debtor returns who owes whom and how much. ok is false when balanced.
func (p PairSettlement) Debtor() (debtor, creditor string, hours decimal.Decimal, ok bool) {
	switch p.NetBalance.Sign() {
	case 1:
		return p.WardB, p.WardA, p.NetBalance, true
	case -1:
		return p.WardA, p.WardB, p.NetBalance.Abs(), true
	}
	return "", "", decimal.Zero, false
}

// Action is the settlement instruction in words.
func (p PairSettlement) Action() string {
	debtor, creditor, hours, ok := p.Debtor()
	if !ok {
		return "Balanced"
	}
	return fmt.Sprintf("%s owes %s %s hours", debtor, creditor, hours.String())
}

// WardPosition is one ward's overall lending position.
type WardPosition struct {
	Ward            string
	TotalSentOut    decimal.Decimal
	TotalReceivedIn decimal.Decimal
	NetPosition     decimal.Decimal
}

// Standing describes the position in words.
func (w WardPosition) Standing() string {
	switch w.NetPosition.Sign() {
	case 1:
		return "In credit"
	case -1:
		return "In debt"
	}
	return "Balanced"
}

// Result holds both reconciliations, sorted by ward name.
type Result struct {
	Pairs     []PairSettlement
	Positions []WardPosition
}

// =============================================================================
// RECONCILE
// =============================================================================

type pairKey struct {
	a, b string
}

// Reconcile nets the redeployment ledger. Ward names are compared after
// trimming; case is preserved as entered.
func Reconcile(entries []ledger.RedeploymentEntry) Result {
	pairs := make(map[pairKey]*PairSettlement)
	positions := make(map[string]*WardPosition)

	position := func(ward string) *WardPosition {
		p, ok := positions[ward]
		if !ok {
			p = &WardPosition{Ward: ward}
			positions[ward] = p
		}
		return p
	}

	for _, e := range entries {
		from := strings.TrimSpace(e.FromWard)
		to := strings.TrimSpace(e.ToDept)

		k := pairKey{a: from, b: to}
		if to < from {
			k = pairKey{a: to, b: from}
		}
		p, ok := pairs[k]
		if !ok {
			p = &PairSettlement{WardA: k.a, WardB: k.b}
			pairs[k] = p
		}
		if from == k.a {
			p.ASentToB = p.ASentToB.Add(e.Hours)
		} else {
			p.BSentToA = p.BSentToA.Add(e.Hours)
		}

		sender := position(from)
		sender.TotalSentOut = sender.TotalSentOut.Add(e.Hours)
		receiver := position(to)
		receiver.TotalReceivedIn = receiver.TotalReceivedIn.Add(e.Hours)
	}

	result := Result{
		Pairs:     make([]PairSettlement, 0, len(pairs)),
		Positions: make([]WardPosition, 0, len(positions)),
	}
	for _, p := range pairs {
		p.NetBalance = p.ASentToB.Sub(p.BSentToA)
		result.Pairs = append(result.Pairs, *p)
	}
	for _, w := range positions {
		w.NetPosition = w.TotalReceivedIn.Sub(w.TotalSentOut)
		result.Positions = append(result.Positions, *w)
	}

	sort.Slice(result.Pairs, func(i, j int) bool {
		if result.Pairs[i].WardA != result.Pairs[j].WardA {
			return result.Pairs[i].WardA < result.Pairs[j].WardA
		}
		return result.Pairs[i].WardB < result.Pairs[j].WardB
	})
	sort.Slice(result.Positions, func(i, j int) bool {
		return result.Positions[i].Ward < result.Positions[j].Ward
	})
	return result
}

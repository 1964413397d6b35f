package roster

import (
	"github.com/warp/roster-ledger/generic"
)

// =============================================================================
// WARD MATCHING
// =============================================================================

// DefaultSynonyms are department spellings known to name the same ward.
func DefaultSynonyms() [][]string {
	return [][]string{
		{"WARD2", "W2"},
		{"ECU", "PBCU"},
	}
}

// WardMatcher decides whether a row's department belongs to a ward.
// Names are compared after NFKC folding, upper-casing and whitespace
// removal; synonyms in the same group match each other. A nil matcher
// compares folded names only.
type WardMatcher struct {
	groups  map[string]int
	members [][]string
}

func NewWardMatcher(synonyms [][]string) *WardMatcher {
	m := &WardMatcher{groups: make(map[string]int)}
	for _, group := range synonyms {
		idx := len(m.members)
		var keys []string
		for _, name := range group {
			k := generic.CompactKey(name)
			if k == "" {
				continue
			}
			if _, taken := m.groups[k]; taken {
				continue
			}
			m.groups[k] = idx
			keys = append(keys, k)
		}
		if len(keys) > 0 {
			m.members = append(m.members, keys)
		}
	}
	return m
}

// Match reports whether department names the given ward.
func (m *WardMatcher) Match(department, ward string) bool {
	d := generic.CompactKey(department)
	w := generic.CompactKey(ward)
	if d == "" || w == "" {
		return false
	}
	if d == w {
		return true
	}
	if m == nil {
		return false
	}
	gd, okd := m.groups[d]
	gw, okw := m.groups[w]
	return okd && okw && gd == gw
}

// Aliases returns the other names of ward's synonym group, folded.
func (m *WardMatcher) Aliases(ward string) []string {
	if m == nil {
		return nil
	}
	w := generic.CompactKey(ward)
	g, ok := m.groups[w]
	if !ok {
		return nil
	}
	var out []string
	for _, k := range m.members[g] {
		if k != w {
			out = append(out, k)
		}
	}
	return out
}

// Wards lists the distinct departments of a matrix in first-appearance
// order. Synonyms collapse onto the first spelling seen.
func (m *WardMatcher) Wards(matrix Matrix) ([]string, error) {
	layout, err := matrix.Layout()
	if err != nil {
		return nil, err
	}
	var wards []string
	for _, row := range matrix.Rows {
		dept := layout.DepartmentOf(row)
		if dept == "" {
			continue
		}
		seen := false
		for _, w := range wards {
			if m.Match(dept, w) {
				seen = true
				break
			}
		}
		if !seen {
			wards = append(wards, dept)
		}
	}
	return wards, nil
}

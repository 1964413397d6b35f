package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/roster"
)

func TestWardMatcher_Match(t *testing.T) {
	m := roster.NewWardMatcher(roster.DefaultSynonyms())

	assert.True(t, m.Match("ward 2", "WARD2"))
	assert.True(t, m.Match("W2", "WARD2"))
	assert.True(t, m.Match("PBCU", "ecu"))
	assert.False(t, m.Match("W2", "ECU"))
	assert.False(t, m.Match("", "WARD2"))
	assert.False(t, m.Match("WARD3", "WARD2"))
}

func TestWardMatcher_NilComparesFoldedNamesOnly(t *testing.T) {
	var m *roster.WardMatcher
	assert.True(t, m.Match("Ward 3", "WARD3"))
	assert.False(t, m.Match("W2", "WARD2"))
	assert.Nil(t, m.Aliases("WARD2"))
}

func TestWardMatcher_Aliases(t *testing.T) {
	m := roster.NewWardMatcher(roster.DefaultSynonyms())
	assert.Equal(t, []string{"W2"}, m.Aliases("Ward 2"))
	assert.Equal(t, []string{"ECU"}, m.Aliases("PBCU"))
	assert.Nil(t, m.Aliases("WARD3"))
}

func TestWardMatcher_Wards_FirstAppearanceSynonymsCollapsed(t *testing.T) {
	m := roster.NewWardMatcher(roster.DefaultSynonyms())
	wards, err := m.Wards(matrix(
		[]string{"1", "WARD3", "", "a", "LD"},
		[]string{"2", "W2", "", "b", "LD"},
		[]string{"3", "WARD2", "", "c", "LD"},
		[]string{"4", "", "", "d", "LD"},
		[]string{"5", "ward 3", "", "e", "LD"},
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"WARD3", "W2"}, wards)
}

func TestWardMatcher_Wards_MalformedMatrix(t *testing.T) {
	_, err := roster.NewWardMatcher(nil).Wards(roster.NewMatrix(nil))
	assert.ErrorIs(t, err, generic.ErrNoDataRows)
}

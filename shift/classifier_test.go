package shift_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/shift"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func defaultCatalog() *catalog.Catalog {
	return catalog.New(catalog.DefaultEntries(), catalog.TierDefault)
}

func ward2Staff() shift.Staff {
	return shift.Staff{
		EmployeeID: "1001",
		Name:       "Ada Byron",
		Role:       "Staff Nurse",
		Ward:       "WARD2",
		Date:       generic.NewTimePoint(2025, time.March, 4),
	}
}

func classify(code string) shift.Classified {
	return shift.NewClassifier(defaultCatalog(), nil).Classify(code, ward2Staff())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func advisoryKinds(c shift.Classified) []shift.AdvisoryKind {
	var kinds []shift.AdvisoryKind
	for _, a := range c.Advisories {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

// =============================================================================
// RULE ORDER
// =============================================================================

func TestRuleOrder_IsPinned(t *testing.T) {
	assert.Equal(t, []shift.Category{
		shift.CategorySick,
		shift.CategoryUnpaid,
		shift.CategoryHoursOwed,
		shift.CategoryNonWorking,
		shift.CategoryRedeployment,
	}, shift.RuleOrder())
}

func TestClassify_ExactlyOneCategory(t *testing.T) {
	// GIVEN: Codes that overlap under substring matching
	// WHEN: Classifying each
	// THEN: The first rule in order wins

	tests := []struct {
		code string
		want shift.Category
	}{
		{"SICK", shift.CategorySick},
		{"SK", shift.CategorySick},
		{"S", shift.CategorySick},
		{"SICKNESS", shift.CategorySick},
		{"SIC", shift.CategorySick},
		{"SICKNSS", shift.CategorySick},
		{"E SICK", shift.CategorySick},
		{"S HO", shift.CategorySick},          // sick before hours owed
		{"SICK LEAVE", shift.CategorySick},    // sick before non-working
		{"UL", shift.CategoryUnpaid},
		{"UPL", shift.CategoryUnpaid},
		{"UNPAID LEAVE", shift.CategoryUnpaid}, // unpaid before non-working
		{"UNPAIDLEAVE", shift.CategoryUnpaid},
		{"LD UL", shift.CategoryUnpaid},
		{"UL HO", shift.CategoryUnpaid}, // unpaid before hours owed
		{"E HO", shift.CategoryHoursOwed},
		{"ZZ HO", shift.CategoryHoursOwed},
		{"AL", shift.CategoryNonWorking},
		{"ANNUAL LEAVE", shift.CategoryNonWorking},
		{"OFF", shift.CategoryNonWorking},
		{"TRAINING", shift.CategoryNonWorking},
		{"LD W3", shift.CategoryRedeployment},
		{"PBCU", shift.CategoryRedeployment},
		{"LD", shift.CategoryNormal},
		{"LD PB", shift.CategoryNormal},
		{"LD DM", shift.CategoryNormal},
		{"N NIC", shift.CategoryNormal},
		{"PBNIC", shift.CategoryUnknown},
		{"XYZ", shift.CategoryUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.code).Category)
		})
	}
}

// =============================================================================
// SICK / UNPAID
// =============================================================================

func TestClassify_Sick_NoTypeHint(t *testing.T) {
	// GIVEN: A SICK cell with no shift-type hint
	// WHEN: Classifying and taking its effect
	// THEN: 12.5 hours lost, counted against rostered and actual

	c := classify("SICK")
	require.Equal(t, shift.CategorySick, c.Category)
	assert.True(t, c.Hours.Equal(dec("12.5")))

	e := c.Effect()
	assert.True(t, e.SickHours.Equal(dec("12.5")))
	assert.True(t, e.RosteredToWardHours.Equal(dec("-12.5")))
	assert.True(t, e.ActualHours.Equal(dec("-12.5")))
	assert.Equal(t, 1, e.SickCount)
	assert.Equal(t, 0, e.Shifts)
	assert.True(t, e.UnpaidHours.IsZero())
}

func TestClassify_LeaveHourHeuristics(t *testing.T) {
	tests := []struct {
		code  string
		hours string
	}{
		{"SICK LD", "12.5"},
		{"LN SICK", "12.5"},
		{"E SICK", "8"},
		{"SK L", "8"},
		{"SICKNESS", "12.5"}, // contains N
		{"UL", "12.5"},
		{"UL E", "8"},
		{"D UL", "8"},
		{"UNPAID LEAVE", "8"}, // LEAVE starts with L
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			c := classify(tc.code)
			assert.True(t, c.Hours.Equal(dec(tc.hours)), "got %s", c.Hours)
			assert.Equal(t, shift.SourceHeuristic, c.HoursSource)
		})
	}
}

func TestClassify_Unpaid_EffectIsDeduction(t *testing.T) {
	e := classify("UL").Effect()
	assert.True(t, e.UnpaidHours.Equal(dec("12.5")))
	assert.Equal(t, 1, e.UnpaidCount)
	assert.True(t, e.SickHours.IsZero())
	assert.Equal(t, 0, e.SickCount)
}

// =============================================================================
// HOURS OWED
// =============================================================================

func TestClassify_HoursOwed_BaseFromCatalog(t *testing.T) {
	c := classify("E HO")
	require.Equal(t, shift.CategoryHoursOwed, c.Category)
	assert.Equal(t, "E", c.BaseCode)
	assert.True(t, c.Hours.Equal(dec("8")))
	assert.Equal(t, shift.SourceCatalog, c.HoursSource)

	e := c.Effect()
	assert.True(t, e.HoursOwed.Equal(dec("8")))
	assert.True(t, e.ActualHours.Equal(dec("-8")))
	assert.True(t, e.RosteredToWardHours.Equal(dec("-8")))
}

func TestClassify_HoursOwed_RangeBase(t *testing.T) {
	c := classify("9-13 HO")
	assert.True(t, c.Hours.Equal(dec("4")))
	assert.Equal(t, shift.SourceRange, c.HoursSource)
}

func TestClassify_HoursOwed_BasicsWhenCatalogLacksBase(t *testing.T) {
	cat := catalog.New([]catalog.Entry{{Code: "TWI", Hours: dec("6")}}, catalog.TierLocal)
	c := shift.NewClassifier(cat, nil).Classify("LN HO", ward2Staff())

	assert.True(t, c.Hours.Equal(dec("12.5")))
	assert.Equal(t, shift.SourceBasic, c.HoursSource)
	assert.Empty(t, c.Advisories)
}

func TestClassify_HoursOwed_UnresolvedBase_DefaultsAndWarns(t *testing.T) {
	// GIVEN: An HO cell whose base code is unknown everywhere
	// WHEN: Classifying with an observed logger
	// THEN: 12.5 hours, an advisory, and a Warn log with context fields

	core, logs := observer.New(zapcore.WarnLevel)
	c := shift.NewClassifier(defaultCatalog(), zap.New(core)).Classify("ZZ HO", ward2Staff())

	assert.True(t, c.Hours.Equal(dec("12.5")))
	assert.Equal(t, shift.SourceFallback, c.HoursSource)
	assert.Equal(t, []shift.AdvisoryKind{shift.AdvisoryHOBaseUnresolved}, advisoryKinds(c))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "WARD2", fields["ward"])
	assert.Equal(t, "1001", fields["employee_id"])
	assert.Equal(t, "2025-03-04", fields["date"])
	assert.Equal(t, "ZZ HO", fields["code"])
}

// =============================================================================
// NON-WORKING
// =============================================================================

func TestClassify_NonWorking_NoEffect(t *testing.T) {
	c := classify("AL")
	assert.Equal(t, shift.Effect{}, c.Effect())
}

// =============================================================================
// REDEPLOYMENT
// =============================================================================

func TestIsRedeployment(t *testing.T) {
	cat := defaultCatalog()

	assert.False(t, shift.IsRedeployment("LD DM", cat))
	assert.True(t, shift.IsRedeployment("LD W3", cat))
	assert.False(t, shift.IsRedeployment("PBNIC", cat))
	assert.False(t, shift.IsRedeployment("PBDM", cat))
	assert.False(t, shift.IsRedeployment("PBDMNIC", cat))
	assert.True(t, shift.IsRedeployment("PBCU", cat))
	assert.False(t, shift.IsRedeployment("PB", cat))
	assert.False(t, shift.IsRedeployment("LD W3 NIC", cat))
	assert.False(t, shift.IsRedeployment("E HO", cat))

	noLD := catalog.New([]catalog.Entry{{Code: "N", Hours: dec("12.5")}}, catalog.TierLocal)
	assert.False(t, shift.IsRedeployment("LD W3", noLD))
}

func TestClassify_Redeployment_SpaceForm(t *testing.T) {
	c := classify("LD WARD3")
	require.Equal(t, shift.CategoryRedeployment, c.Category)
	assert.Equal(t, "LD", c.BaseCode)
	assert.Equal(t, "WARD3", c.Destination)
	assert.True(t, c.Hours.Equal(dec("12.5")))
	assert.Empty(t, c.Advisories)

	e := c.Effect()
	assert.True(t, e.RedeployedOutHours.Equal(dec("12.5")))
	assert.True(t, e.ActualHours.Equal(dec("12.5")))
	assert.True(t, e.RosteredToWardHours.IsZero())
	assert.Equal(t, 1, e.Shifts)
}

func TestClassify_Redeployment_DestinationStartingWithPB(t *testing.T) {
	// GIVEN: Space-form redeployments to wards whose names start with PB
	// WHEN: Classifying
	// THEN: The destination is kept whole and hours come from the base shift

	tests := []struct {
		code  string
		base  string
		dest  string
		hours string
	}{
		{code: "LD PBCU", base: "LD", dest: "PBCU", hours: "12.5"},
		{code: "N PBCU", base: "N", dest: "PBCU", hours: "12.5"},
		{code: "E PBW3", base: "E", dest: "PBW3", hours: "8"},
		{code: "LD PBCU PB", base: "LD", dest: "PBCU", hours: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := classify(tt.code)
			require.Equal(t, shift.CategoryRedeployment, c.Category)
			assert.Equal(t, tt.base, c.BaseCode)
			assert.Equal(t, tt.dest, c.Destination)
			assert.True(t, c.Hours.Equal(dec(tt.hours)), "hours %s", c.Hours)
			assert.Empty(t, c.Advisories)
			assert.True(t, shift.IsRedeployment(tt.code, defaultCatalog()))
		})
	}
}

func TestClassify_Redeployment_MultiTokenDestination(t *testing.T) {
	c := classify("E WARD 3")
	assert.Equal(t, "WARD 3", c.Destination)
	assert.True(t, c.Hours.Equal(dec("8")))
}

func TestClassify_Redeployment_CompactForm_ZeroHoursAdvisory(t *testing.T) {
	// GIVEN: PBCU with no PB entry in the catalog
	// WHEN: Classifying
	// THEN: Redeployment to CU recorded at zero hours with an advisory

	c := classify("PBCU")
	require.Equal(t, shift.CategoryRedeployment, c.Category)
	assert.Equal(t, "CU", c.Destination)
	assert.True(t, c.Hours.IsZero())
	assert.Contains(t, advisoryKinds(c), shift.AdvisoryZeroHourRedeployment)
}

func TestClassify_Redeployment_CompactForm_CatalogHours(t *testing.T) {
	cat := catalog.New(append(catalog.DefaultEntries(), catalog.Entry{Code: "PB", Hours: dec("7.5")}), catalog.TierLocal)
	c := shift.NewClassifier(cat, nil).Classify("PBCU", ward2Staff())

	assert.True(t, c.Hours.Equal(dec("7.5")))
	assert.Empty(t, c.Advisories)
}

func TestClassify_Redeployment_SameWard_StillRecorded(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := shift.NewClassifier(defaultCatalog(), zap.New(core)).Classify("LD WARD2", ward2Staff())

	assert.Equal(t, shift.CategoryRedeployment, c.Category)
	assert.Equal(t, "WARD2", c.Destination)
	assert.Equal(t, []shift.AdvisoryKind{shift.AdvisorySameWardRedeployment}, advisoryKinds(c))
	assert.Equal(t, 1, logs.Len())
}

func TestClassify_Redeployment_SameWardViaSynonym(t *testing.T) {
	staff := ward2Staff()
	staff.WardAliases = []string{"W2"}

	c := shift.NewClassifier(defaultCatalog(), nil).Classify("LD W2", staff)
	assert.Equal(t, []shift.AdvisoryKind{shift.AdvisorySameWardRedeployment}, advisoryKinds(c))
}

// =============================================================================
// NORMAL / PAID BACK / UNKNOWN
// =============================================================================

func TestClassify_Normal_DayAndNight(t *testing.T) {
	day := classify("LD")
	assert.Equal(t, shift.ShiftDay, day.Shift)
	assert.Equal(t, 1, day.Effect().DayShifts)

	night := classify("N")
	assert.Equal(t, shift.ShiftNight, night.Shift)
	assert.Equal(t, 1, night.Effect().NightShifts)

	e := classify("E").Effect()
	assert.True(t, e.ActualHours.Equal(dec("8")))
	assert.True(t, e.RosteredToWardHours.Equal(dec("8")))
	assert.Equal(t, 1, e.Shifts)
}

func TestClassify_PaidBack_CountsAsOrdinaryWork(t *testing.T) {
	// GIVEN: LD PB
	// WHEN: Classifying
	// THEN: NORMAL with the PB marker; 12.5 paid back and worked

	c := classify("LD PB")
	require.Equal(t, shift.CategoryNormal, c.Category)
	assert.True(t, c.PaidBack())
	assert.Equal(t, "LD", c.BaseCode)

	e := c.Effect()
	assert.True(t, e.HoursPaidBack.Equal(dec("12.5")))
	assert.True(t, e.ActualHours.Equal(dec("12.5")))
	assert.True(t, e.RosteredToWardHours.Equal(dec("12.5")))
	assert.Equal(t, 1, e.Shifts)
	assert.Equal(t, 1, e.DayShifts)
}

func TestClassify_InWardRoleStripped(t *testing.T) {
	// GIVEN: A base shift annotated with a home-ward role
	// WHEN: Classifying
	// THEN: It is normal work at the base shift's hours, never a redeployment

	tests := []struct {
		code  string
		base  string
		hours string
		kind  shift.ShiftKind
	}{
		{code: "N NIC", base: "N", hours: "12.5", kind: shift.ShiftNight},
		{code: "LD DM", base: "LD", hours: "12.5", kind: shift.ShiftDay},
		{code: "E DM NIC", base: "E", hours: "8", kind: shift.ShiftDay},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := classify(tt.code)
			assert.Equal(t, shift.CategoryNormal, c.Category)
			assert.Equal(t, tt.base, c.BaseCode)
			assert.True(t, c.Hours.Equal(dec(tt.hours)), "hours %s", c.Hours)
			assert.Equal(t, tt.kind, c.Shift)
			assert.Empty(t, c.Advisories)
			assert.False(t, shift.IsRedeployment(tt.code, defaultCatalog()))
		})
	}
}

func TestClassify_Unknown_ZeroHoursAndAdvisory(t *testing.T) {
	c := classify("XYZ")
	assert.True(t, c.Hours.IsZero())
	assert.Equal(t, []shift.AdvisoryKind{shift.AdvisoryUnknownCode}, advisoryKinds(c))
	assert.Equal(t, shift.Effect{}, c.Effect())
}

func TestClassifyCell_RangeIsNormalWithoutKind(t *testing.T) {
	c, ok := shift.NewClassifier(defaultCatalog(), nil).ClassifyCell("07:00-15:00", ward2Staff())
	require.True(t, ok)
	assert.Equal(t, shift.CategoryNormal, c.Category)
	assert.Equal(t, shift.SourceRange, c.HoursSource)
	assert.Equal(t, shift.ShiftNone, c.Shift)
	assert.True(t, c.Hours.Equal(dec("8")))
}

func TestClassifyCell_EmptySkipped(t *testing.T) {
	_, ok := shift.NewClassifier(defaultCatalog(), nil).ClassifyCell("  ", ward2Staff())
	assert.False(t, ok)
}

func TestClassifyCell_LowercaseInput(t *testing.T) {
	c, ok := shift.NewClassifier(defaultCatalog(), nil).ClassifyCell(" e ho ", ward2Staff())
	require.True(t, ok)
	assert.Equal(t, shift.CategoryHoursOwed, c.Category)
}

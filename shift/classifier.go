package shift

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/generic"
)

// =============================================================================
// STAFF CONTEXT
// =============================================================================

// Staff identifies whose cell is being classified. Only Ward and
// WardAliases affect the outcome (same-ward redeployment check); the rest
// is carried into log fields.
type Staff struct {
	EmployeeID  string
	Name        string
	Role        string
	Ward        string
	WardAliases []string
	Date        generic.TimePoint
}

// =============================================================================
// RULE CHAIN
// =============================================================================

// rule is one predicate/classification pair. Rules are evaluated in slice
// order and the first match wins: categories overlap under substring
// matching, so the order is part of the contract.
type rule struct {
	category Category
	match    func(code string) bool
	classify func(c *Classifier, code string, staff Staff) Classified
}

var rules = []rule{
	{category: CategorySick, match: isSick, classify: (*Classifier).classifySick},
	{category: CategoryUnpaid, match: isUnpaid, classify: (*Classifier).classifyUnpaid},
	{category: CategoryHoursOwed, match: isHoursOwed, classify: (*Classifier).classifyHoursOwed},
	{category: CategoryNonWorking, match: isNonWorking, classify: classifyNonWorking},
	// Terminal rule: REDEPLOYMENT, else NORMAL, else UNKNOWN.
	{category: CategoryRedeployment, match: func(string) bool { return true }, classify: (*Classifier).classifyWork},
}

// RuleOrder lists the categories in evaluation order.
func RuleOrder() []Category {
	out := make([]Category, len(rules))
	for i, r := range rules {
		out[i] = r.category
	}
	return out
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier assigns categories against one resolved catalog. It is
// stateless apart from its inputs and safe for concurrent use.
type Classifier struct {
	catalog *catalog.Catalog
	log     *zap.Logger
}

// NewClassifier creates a classifier. A nil logger discards advisories
// from the log; they are still returned on each Classified.
func NewClassifier(cat *catalog.Catalog, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{catalog: cat, log: logger}
}

// Catalog returns the catalog the classifier resolves hours against.
func (c *Classifier) Catalog() *catalog.Catalog {
	return c.catalog
}

// ClassifyCell parses a raw cell and classifies it. ok is false for empty
// cells, which must be skipped entirely. Time ranges are NORMAL work with
// the derived hours.
func (c *Classifier) ClassifyCell(raw string, staff Staff) (Classified, bool) {
	cell := ParseCell(raw)
	switch cell.Kind {
	case CellEmpty:
		return Classified{}, false
	case CellRange:
		return Classified{
			Category:    CategoryNormal,
			Code:        cell.Code,
			BaseCode:    cell.Code,
			Hours:       cell.Hours,
			HoursSource: SourceRange,
		}, true
	}
	return c.Classify(cell.Code, staff), true
}

// Classify assigns exactly one category to an already-normalized code.
func (c *Classifier) Classify(code string, staff Staff) Classified {
	for _, r := range rules {
		if !r.match(code) {
			continue
		}
		result := r.classify(c, code, staff)
		c.report(result, staff)
		return result
	}
	// unreachable: the terminal rule always matches
	return Classified{Category: CategoryUnknown, Code: code, BaseCode: code}
}

func (c *Classifier) report(result Classified, staff Staff) {
	for _, a := range result.Advisories {
		c.log.Warn(a.Message,
			zap.String("advisory", string(a.Kind)),
			zap.String("ward", staff.Ward),
			zap.String("employee_id", staff.EmployeeID),
			zap.String("date", staff.Date.String()),
			zap.String("code", result.Code),
		)
	}
}

// =============================================================================
// SICK / UNPAID
// =============================================================================
// SICK is paid leave that leaves a hole in ward cover. UNPAID claws back
// salary. Swapping them produces a wrong payroll deduction, which is why
// SICK is checked first and both use disjoint token lists.

var sickCodes = stringSet("SICK", "SK", "S", "SICKNESS", "SIC", "SICKNSS")

var unpaidCodes = stringSet("UL", "UPL", "UNL", "UNPL", "UNLP", "UNPAID", "UNPAID LEAVE", "UNPAIDLEAVE")

var unpaidTokens = []string{"UL", "UPL", "UNL", "UNPL", "UNLP"}

func isSick(code string) bool {
	if sickCodes[code] {
		return true
	}
	if containsWord(code, "SICK") || containsWord(code, "SK") {
		return true
	}
	return strings.Contains(code, " S ") || strings.HasPrefix(code, "S ")
}

func isUnpaid(code string) bool {
	if unpaidCodes[code] {
		return true
	}
	for _, tok := range unpaidTokens {
		if containsWord(code, tok) {
			return true
		}
	}
	return strings.Contains(code, "UNPAID")
}

func (c *Classifier) classifySick(code string, _ Staff) Classified {
	return Classified{
		Category:    CategorySick,
		Code:        code,
		BaseCode:    code,
		Hours:       leaveHours(code),
		HoursSource: SourceHeuristic,
	}
}

func (c *Classifier) classifyUnpaid(code string, _ Staff) Classified {
	return Classified{
		Category:    CategoryUnpaid,
		Code:        code,
		BaseCode:    code,
		Hours:       leaveHours(code),
		HoursSource: SourceHeuristic,
	}
}

// leaveHours sniffs the shift length out of a sick or unpaid code.
// The trailing "contains N" branch is kept even though it can match
// letters that are not a night shift; SICKNESS resolves to 12.5 through it.
func leaveHours(code string) decimal.Decimal {
	if strings.Contains(code, "LD") || strings.Contains(code, "LN") {
		return catalog.FallbackHours()
	}
	for _, word := range strings.Fields(code) {
		switch word[0] {
		case 'E', 'L', 'D':
			return catalog.ShortShiftHours()
		}
	}
	if strings.Contains(code, "N") {
		return catalog.FallbackHours()
	}
	return catalog.FallbackHours()
}

// =============================================================================
// HOURS OWED
// =============================================================================

const (
	hoursOwedMarker = " HO"
	paidBackMarker  = " PB"
)

func isHoursOwed(code string) bool {
	return strings.Contains(code, hoursOwedMarker)
}

func (c *Classifier) classifyHoursOwed(code string, _ Staff) Classified {
	base := stripMarker(code, hoursOwedMarker)
	result := Classified{
		Category: CategoryHoursOwed,
		Code:     code,
		BaseCode: base,
	}

	switch {
	case c.catalogHours(base, &result):
	case rangeHours(base, &result):
	case basicHours(base, &result):
	default:
		result.Hours = catalog.FallbackHours()
		result.HoursSource = SourceFallback
		result.Advisories = append(result.Advisories, Advisory{
			Kind:    AdvisoryHOBaseUnresolved,
			Message: "hours-owed base code not resolvable, assuming 12.5 hours",
		})
	}
	return result
}

// =============================================================================
// NON-WORKING
// =============================================================================

var nonWorkingMarkers = []string{"ANNUAL LEAVE", "AL", "OFF", "LEAVE", "TRAINING"}

func isNonWorking(code string) bool {
	for _, m := range nonWorkingMarkers {
		if strings.Contains(code, m) {
			return true
		}
	}
	return false
}

func classifyNonWorking(_ *Classifier, code string, _ Staff) Classified {
	return Classified{Category: CategoryNonWorking, Code: code, BaseCode: code}
}

// =============================================================================
// WORK: REDEPLOYMENT, NORMAL, UNKNOWN
// =============================================================================

const compactRedeploymentPrefix = "PB"

// destinations that are roles on the home ward (duty manager, nurse in
// charge), not other departments
var inWardDestinations = stringSet("DM", "NIC", "DMNIC")

var (
	dayShiftCodes   = stringSet("LD", "D", "E", "L")
	nightShiftCodes = stringSet("N", "LN")
)

// IsRedeployment reports whether a normalized code records work done on
// another department.
func IsRedeployment(code string, cat *catalog.Catalog) bool {
	if isSick(code) || isUnpaid(code) || isHoursOwed(code) || isNonWorking(code) {
		return false
	}
	_, _, ok := detectRedeployment(stripMarker(code, paidBackMarker), cat)
	return ok
}

// detectRedeployment recognizes the compact form (PBCU) and the
// space-separated form (LD W3).
func detectRedeployment(base string, cat *catalog.Catalog) (baseType, dest string, ok bool) {
	tokens := strings.Fields(base)
	if len(tokens) <= 1 {
		if strings.HasPrefix(base, compactRedeploymentPrefix) && len(base) > len(compactRedeploymentPrefix) {
			dest = base[len(compactRedeploymentPrefix):]
			if inWardDestinations[dest] {
				return "", "", false
			}
			return compactRedeploymentPrefix, dest, true
		}
		return "", "", false
	}

	baseType, destTokens := tokens[0], tokens[1:]
	for _, t := range destTokens {
		if t == "DM" || t == "NIC" {
			return "", "", false
		}
	}
	if !cat.Has(baseType) {
		return "", "", false
	}
	return baseType, strings.Join(destTokens, " "), true
}

func (c *Classifier) classifyWork(code string, staff Staff) Classified {
	base := stripMarker(code, paidBackMarker)

	if baseType, dest, ok := detectRedeployment(base, c.catalog); ok {
		return c.classifyRedeployment(code, baseType, dest, staff)
	}

	base = stripInWardRoles(base)
	result := Classified{
		Category: CategoryNormal,
		Code:     code,
		BaseCode: base,
	}
	switch {
	case rangeHours(base, &result):
	case c.catalogHours(base, &result):
	case basicHours(base, &result):
	default:
		return Classified{
			Category: CategoryUnknown,
			Code:     code,
			BaseCode: base,
			Advisories: []Advisory{{
				Kind:    AdvisoryUnknownCode,
				Message: "unrecognized shift code, counted as zero hours",
			}},
		}
	}

	switch {
	case dayShiftCodes[base]:
		result.Shift = ShiftDay
	case nightShiftCodes[base]:
		result.Shift = ShiftNight
	}
	if strings.Contains(code, paidBackMarker) {
		result.Marker = CategoryPaidBackMark
	}
	return result
}

func (c *Classifier) classifyRedeployment(code, baseType, dest string, staff Staff) Classified {
	result := Classified{
		Category:    CategoryRedeployment,
		Code:        code,
		BaseCode:    baseType,
		Destination: strings.TrimSpace(dest),
	}

	if !c.catalogHours(baseType, &result) && !basicHours(baseType, &result) {
		result.Hours = decimal.Zero
		result.HoursSource = SourceNone
		result.Advisories = append(result.Advisories, Advisory{
			Kind:    AdvisoryZeroHourRedeployment,
			Message: "redeployment base shift has no known hours, recorded as zero",
		})
	}

	if result.Destination == "" {
		result.Destination = "UNKNOWN"
		result.Advisories = append(result.Advisories, Advisory{
			Kind:    AdvisoryDestinationUnknown,
			Message: "redeployment destination empty, recorded as UNKNOWN",
		})
	} else if sameWard(result.Destination, staff) {
		result.Advisories = append(result.Advisories, Advisory{
			Kind:    AdvisorySameWardRedeployment,
			Message: "redeployment destination matches home ward, recorded as entered",
		})
	}
	return result
}

// sameWard is a data-quality guard only; the entry is recorded either way.
func sameWard(dest string, staff Staff) bool {
	d := generic.CompactKey(dest)
	if d == "" {
		return false
	}
	for _, ward := range append([]string{staff.Ward}, staff.WardAliases...) {
		home := generic.CompactKey(ward)
		if home == "" {
			continue
		}
		if strings.Contains(home, d) || strings.Contains(d, home) {
			return true
		}
	}
	return false
}

// =============================================================================
// HOURS RESOLUTION STEPS
// =============================================================================
// Each step fills result and reports success so callers can chain them in
// whatever order their category requires.

func (c *Classifier) catalogHours(code string, result *Classified) bool {
	e, ok := c.catalog.Lookup(code)
	if !ok {
		return false
	}
	result.Hours = e.Hours
	result.HoursSource = SourceCatalog
	return true
}

func rangeHours(code string, result *Classified) bool {
	h, ok := RangeHours(code)
	if !ok {
		return false
	}
	result.Hours = h
	result.HoursSource = SourceRange
	return true
}

func basicHours(code string, result *Classified) bool {
	h, ok := catalog.BasicHours(code)
	if !ok {
		return false
	}
	result.Hours = h
	result.HoursSource = SourceBasic
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

// containsWord matches tok at a space boundary on either side.
func containsWord(code, tok string) bool {
	return strings.Contains(code, " "+tok) || strings.Contains(code, tok+" ")
}

// stripInWardRoles turns "LD DM" or "N NIC" into the bare shift when every
// token after the first is a home-ward role.
func stripInWardRoles(base string) string {
	tokens := strings.Fields(base)
	if len(tokens) < 2 {
		return base
	}
	for _, t := range tokens[1:] {
		if !inWardDestinations[t] {
			return base
		}
	}
	return tokens[0]
}

// stripMarker removes a trailing marker only. A marker inside the code is
// part of a token ("LD PBCU" names the PBCU ward) and stays.
func stripMarker(code, marker string) string {
	return strings.TrimSpace(strings.TrimSuffix(code, marker))
}

func stringSet(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

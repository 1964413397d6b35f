/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - Hours as plain JSON numbers while the core keeps exact decimals
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Runs:
    RunSummaryDTO, WardOutcomeDTO, StaffRecordDTO

  Ledgers:
    LedgerEntryDTO, StaffLedgerDTO, LedgerTotalsDTO

  Settlement:
    SettlementDTO, PairSettlementDTO, WardPositionDTO

  Catalog:
    CatalogDTO, CatalogEntryDTO, ClassifyRequest, ClassifyResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/roster"
	"github.com/warp/roster-ledger/settlement"
	"github.com/warp/roster-ledger/shift"
	"github.com/warp/roster-ledger/store/sqlite"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RunSummaryDTO is a run header.
type RunSummaryDTO struct {
	ID            string           `json:"id"`
	CatalogTier   string           `json:"catalog_tier"`
	Outcome       string           `json:"outcome"`
	StaffCount    int              `json:"staff_count"`
	LedgerEntries int              `json:"ledger_entries"`
	AnomalyCount  int              `json:"anomaly_count"`
	Wards         []WardOutcomeDTO `json:"wards,omitempty"`
	StartedAt     string           `json:"started_at"`
	FinishedAt    string           `json:"finished_at"`
}

// WardOutcomeDTO is one ward's result within a run.
type WardOutcomeDTO struct {
	Ward       string          `json:"ward"`
	StaffCount int             `json:"staff_count"`
	Error      string          `json:"error,omitempty"`
	Totals     *StaffRecordDTO `json:"totals,omitempty"`
}

// RunReportDTO is a full run report for offline runs.
type RunReportDTO struct {
	Run        RunSummaryDTO `json:"run"`
	Settlement SettlementDTO `json:"settlement"`
	Anomalies  []AnomalyDTO  `json:"anomalies"`
}

// StaffRecordDTO represents one staff member's totals.
type StaffRecordDTO struct {
	EmployeeID          string  `json:"employee_id"`
	Name                string  `json:"name"`
	Role                string  `json:"role"`
	Ward                string  `json:"ward"`
	ContractedHours     float64 `json:"contracted_hours"`
	RosteredToWardHours float64 `json:"rostered_to_ward_hours"`
	ActualHours         float64 `json:"actual_hours"`
	ShiftCount          int     `json:"shift_count"`
	DayShiftCount       int     `json:"day_shift_count"`
	NightShiftCount     int     `json:"night_shift_count"`
	SickCount           int     `json:"sick_count"`
	SickHours           float64 `json:"sick_hours"`
	UnpaidCount         int     `json:"unpaid_count"`
	UnpaidHours         float64 `json:"unpaid_hours"`
	HoursOwed           float64 `json:"hours_owed"`
	HoursPaidBack       float64 `json:"hours_paid_back"`
	ToilBalance         float64 `json:"toil_balance"`
	RedeployedOutHours  float64 `json:"redeployed_out_hours"`
	NetWardHours        float64 `json:"net_ward_hours"`
	WardBalance         float64 `json:"ward_balance"`
}

// LedgerEntryDTO represents one ledger entry of any kind.
type LedgerEntryDTO struct {
	Date       string  `json:"date"`
	Kind       string  `json:"kind"`
	Ward       string  `json:"ward"`
	ToDept     string  `json:"to_dept,omitempty"` // redeployments only
	EmployeeID string  `json:"employee_id"`
	StaffName  string  `json:"staff_name"`
	Role       string  `json:"role"`
	ShiftCode  string  `json:"shift_code"`
	Hours      float64 `json:"hours"`
}

// StaffLedgerDTO is one staff member's slice of a run's ledgers.
type StaffLedgerDTO struct {
	EmployeeID string             `json:"employee_id"`
	Entries    []LedgerEntryDTO   `json:"entries"`
	Hours      map[string]float64 `json:"hours"` // per ledger: redeployment, toil, payback
}

// LedgerTotalsDTO sums each of a run's ledgers.
type LedgerTotalsDTO struct {
	RunID string             `json:"run_id"`
	Hours map[string]float64 `json:"hours"`
}

// PairSettlementDTO is the netted exchange between two wards.
type PairSettlementDTO struct {
	WardA      string  `json:"ward_a"`
	WardB      string  `json:"ward_b"`
	ASentToB   float64 `json:"a_sent_to_b"`
	BSentToA   float64 `json:"b_sent_to_a"`
	NetBalance float64 `json:"net_balance"`
	Action     string  `json:"action"`
}

// WardPositionDTO is one ward's overall position.
type WardPositionDTO struct {
	Ward            string  `json:"ward"`
	TotalSentOut    float64 `json:"total_sent_out"`
	TotalReceivedIn float64 `json:"total_received_in"`
	NetPosition     float64 `json:"net_position"`
	Standing        string  `json:"standing"`
}

// SettlementDTO holds both reconciliations of a run.
type SettlementDTO struct {
	Pairs     []PairSettlementDTO `json:"pairs"`
	Positions []WardPositionDTO   `json:"positions"`
}

// AnomalyDTO is a data-quality finding.
type AnomalyDTO struct {
	Kind       string `json:"kind"`
	Ward       string `json:"ward"`
	EmployeeID string `json:"employee_id,omitempty"`
	StaffName  string `json:"staff_name,omitempty"`
	Date       string `json:"date,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

// CatalogEntryDTO is one hours catalog row.
type CatalogEntryDTO struct {
	Code       string  `json:"code"`
	Hours      float64 `json:"hours"`
	Descriptor string  `json:"descriptor,omitempty"`
	FinanceTag string  `json:"finance_tag"`
}

// CatalogDTO is a resolved catalog.
type CatalogDTO struct {
	Tier    string            `json:"tier"`
	Entries []CatalogEntryDTO `json:"entries"`
}

// ClassifyRequest asks how a single cell would be classified.
type ClassifyRequest struct {
	Code        string   `json:"code"`
	Ward        string   `json:"ward,omitempty"`
	WardAliases []string `json:"ward_aliases,omitempty"`
}

// ClassifyResponse is the diagnostic classification of one cell.
type ClassifyResponse struct {
	Empty       bool     `json:"empty,omitempty"`
	Category    string   `json:"category,omitempty"`
	Marker      string   `json:"marker,omitempty"`
	Code        string   `json:"code,omitempty"`
	BaseCode    string   `json:"base_code,omitempty"`
	Hours       float64  `json:"hours"`
	HoursSource string   `json:"hours_source,omitempty"`
	Destination string   `json:"destination,omitempty"`
	Shift       string   `json:"shift,omitempty"`
	Advisories  []string `json:"advisories,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Wards       []string `json:"wards,omitempty"`
}

// LoadScenarioRequest selects a scenario to run.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func hours(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toRunSummaryDTO(run *engine.Run) RunSummaryDTO {
	dto := RunSummaryDTO{
		ID:            string(run.ID),
		CatalogTier:   string(run.CatalogTier),
		Outcome:       run.Outcome(),
		StaffCount:    len(run.Staff()),
		LedgerEntries: run.Ledgers.Len(),
		AnomalyCount:  len(run.Anomalies),
		StartedAt:     formatTime(run.StartedAt),
		FinishedAt:    formatTime(run.FinishedAt),
	}
	for _, w := range run.Wards {
		totals := toStaffRecordDTO(w.Totals)
		out := WardOutcomeDTO{Ward: w.Ward, StaffCount: len(w.Staff), Totals: &totals}
		if w.Err != nil {
			out.Error = w.Err.Error()
		}
		dto.Wards = append(dto.Wards, out)
	}
	return dto
}

func toRunRecordDTO(r sqlite.RunRecord) RunSummaryDTO {
	dto := RunSummaryDTO{
		ID:            string(r.ID),
		CatalogTier:   string(r.CatalogTier),
		Outcome:       r.Outcome,
		StaffCount:    r.StaffCount,
		LedgerEntries: r.LedgerEntries,
		AnomalyCount:  r.AnomalyCount,
		StartedAt:     formatTime(r.StartedAt),
		FinishedAt:    formatTime(r.FinishedAt),
	}
	for _, w := range r.Wards {
		dto.Wards = append(dto.Wards, WardOutcomeDTO{Ward: w.Ward, StaffCount: w.StaffCount, Error: w.Error})
	}
	return dto
}

func toStaffRecordDTO(r roster.StaffRecord) StaffRecordDTO {
	return StaffRecordDTO{
		EmployeeID:          r.EmployeeID,
		Name:                r.Name,
		Role:                r.Role,
		Ward:                r.Ward,
		ContractedHours:     hours(r.ContractedHours),
		RosteredToWardHours: hours(r.RosteredToWardHours),
		ActualHours:         hours(r.ActualHours),
		ShiftCount:          r.ShiftCount,
		DayShiftCount:       r.DayShiftCount,
		NightShiftCount:     r.NightShiftCount,
		SickCount:           r.SickCount,
		SickHours:           hours(r.SickHours),
		UnpaidCount:         r.UnpaidCount,
		UnpaidHours:         hours(r.UnpaidHours),
		HoursOwed:           hours(r.HoursOwed),
		HoursPaidBack:       hours(r.HoursPaidBack),
		ToilBalance:         hours(r.ToilBalance),
		RedeployedOutHours:  hours(r.RedeployedOutHours),
		NetWardHours:        hours(r.NetWardHours),
		WardBalance:         hours(r.WardBalance),
	}
}

func toStaffRecordDTOs(records []roster.StaffRecord) []StaffRecordDTO {
	dtos := make([]StaffRecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toStaffRecordDTO(r)
	}
	return dtos
}

func toStaffLedgerDTO(employee string, entries []generic.Entry) StaffLedgerDTO {
	sums := map[generic.EntryKind]generic.Amount{}
	for _, e := range entries {
		sums[e.Kind] = sums[e.Kind].Add(e.Delta)
	}

	totals := make(map[string]float64, len(ledgerNames))
	for _, name := range ledgerNames {
		totals[name] = hours(sums[ledgerKinds[name]].Value)
	}
	return StaffLedgerDTO{
		EmployeeID: employee,
		Entries:    toLedgerEntryDTOs(entries),
		Hours:      totals,
	}
}

func toLedgerEntryDTOs(entries []generic.Entry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			Date:       e.EffectiveAt.String(),
			Kind:       string(e.Kind),
			Ward:       e.Ward,
			ToDept:     e.Counterparty,
			EmployeeID: string(e.EntityID),
			StaffName:  e.StaffName,
			Role:       e.Role,
			ShiftCode:  e.ShiftCode,
			Hours:      hours(e.Delta.Value),
		}
	}
	return dtos
}

func toSettlementDTO(res settlement.Result) SettlementDTO {
	dto := SettlementDTO{
		Pairs:     make([]PairSettlementDTO, len(res.Pairs)),
		Positions: make([]WardPositionDTO, len(res.Positions)),
	}
	for i, p := range res.Pairs {
		dto.Pairs[i] = PairSettlementDTO{
			WardA:      p.WardA,
			WardB:      p.WardB,
			ASentToB:   hours(p.ASentToB),
			BSentToA:   hours(p.BSentToA),
			NetBalance: hours(p.NetBalance),
			Action:     p.Action(),
		}
	}
	for i, w := range res.Positions {
		dto.Positions[i] = WardPositionDTO{
			Ward:            w.Ward,
			TotalSentOut:    hours(w.TotalSentOut),
			TotalReceivedIn: hours(w.TotalReceivedIn),
			NetPosition:     hours(w.NetPosition),
			Standing:        w.Standing(),
		}
	}
	return dto
}

func toAnomalyDTOs(anomalies []roster.Anomaly) []AnomalyDTO {
	dtos := make([]AnomalyDTO, len(anomalies))
	for i, a := range anomalies {
		dtos[i] = AnomalyDTO{
			Kind:       a.Kind,
			Ward:       a.Ward,
			EmployeeID: a.EmployeeID,
			StaffName:  a.StaffName,
			Date:       a.Date.String(),
			Code:       a.Code,
			Message:    a.Message,
		}
	}
	return dtos
}

func toCatalogDTO(tier catalog.Tier, entries []catalog.Entry) CatalogDTO {
	dto := CatalogDTO{Tier: string(tier), Entries: make([]CatalogEntryDTO, len(entries))}
	for i, e := range entries {
		dto.Entries[i] = CatalogEntryDTO{
			Code:       e.Code,
			Hours:      hours(e.Hours),
			Descriptor: e.Descriptor,
			FinanceTag: e.FinanceTag,
		}
	}
	return dto
}

func toClassifyResponse(c shift.Classified) ClassifyResponse {
	resp := ClassifyResponse{
		Category:    string(c.Category),
		Marker:      string(c.Marker),
		Code:        c.Code,
		BaseCode:    c.BaseCode,
		Hours:       hours(c.Hours),
		HoursSource: string(c.HoursSource),
		Destination: c.Destination,
		Shift:       string(c.Shift),
	}
	for _, a := range c.Advisories {
		resp.Advisories = append(resp.Advisories, string(a.Kind))
	}
	return resp
}

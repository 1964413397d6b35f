/*
scenarios.go - Demo roster scenarios for testing and demonstrations

PURPOSE:

	Provides pre-built roster matrices that exercise specific behaviour of
	the engine end to end. Loading a scenario resets the database, runs the
	roster through the engine against the current catalog and saves the run.

AVAILABLE SCENARIOS:

	ward-exchange: Two wards lending staff to each other; nets to one debt
	toil-cycle:    Hours owed, paid back, sick and unpaid leave on one ward
	data-quality:  Unknown codes, same-ward redeployment, unresolved HO base,
	               a ward synonym

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "ward-exchange"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add its rows to scenarioRows

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Run endpoints used to inspect the loaded run
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/roster"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "ward-exchange",
		Name:        "Ward Exchange",
		Description: "WARD2 lends a long day to WARD3 and borrows an early back",
		Wards:       []string{"WARD2", "WARD3"},
	},
	{
		ID:          "toil-cycle",
		Name:        "TOIL Cycle",
		Description: "Staff sent home on HO, repaying with PB shifts, plus sick and unpaid leave",
		Wards:       []string{"ECU"},
	},
	{
		ID:          "data-quality",
		Name:        "Data Quality",
		Description: "Unknown codes, same-ward redeployment, unresolvable HO base and a ward synonym",
		Wards:       []string{"WARD2"},
	},
}

var scenarioHeader = []string{
	"Employee ID", "Department", "Role", "Name",
	"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07",
}

var scenarioRows = map[string][][]string{
	"ward-exchange": {
		{"1001", "WARD2", "Staff Nurse", "Ada Byron", "LD", "LD", "", "LD WARD3", "OFF", "N", "N"},
		{"1002", "WARD2", "HCA", "Grace Hopper", "E", "L", "E", "", "AL", "AL", "D"},
		{"2001", "WARD3", "Staff Nurse", "Alan Turing", "N", "N", "OFF", "E WARD2", "LD", "", "LD"},
		{"2002", "WARD3", "Sister", "Mary Seacole", "LD DM", "LD", "LD", "OFF", "N NIC", "N", ""},
	},
	"toil-cycle": {
		{"3001", "ECU", "Staff Nurse", "Edith Cavell", "LD", "E HO", "LD", "LD PB", "OFF", "E PB", "N"},
		{"3002", "ECU", "HCA", "Clara Barton", "SICK", "SICK", "E", "E", "UL", "L", "OFF"},
		{"3003", "PBCU", "Staff Nurse", "Dorothy Hodgkin", "07:00-15:00", "20-8", "LN HO", "", "LN", "LN PB", "TRAINING"},
	},
	"data-quality": {
		{"4001", "WARD2", "Staff Nurse", "Rosalind Franklin", "LD", "XYZ", "LD WARD2", "ZZ HO", "", "N", "N"},
		{"4002", "W2", "HCA", "Lise Meitner", "E", "E", "PB", "PBCU", "PBNIC", "L", "D"},
	},
}

// ScenarioMatrix returns the roster matrix of a scenario.
func ScenarioMatrix(id string) (roster.Matrix, bool) {
	rows, ok := scenarioRows[id]
	if !ok {
		return roster.Matrix{}, false
	}
	all := make([][]string, 0, len(rows)+1)
	all = append(all, scenarioHeader)
	all = append(all, rows...)
	return roster.NewMatrix(all), true
}

func scenarioByID(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and runs a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	scenario, ok := scenarioByID(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	matrix, _ := ScenarioMatrix(scenario.ID)

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.summaries.Flush()

	run, err := h.Engine.Run(ctx, engine.Input{
		Matrix:  matrix,
		Catalog: h.Catalogs.Current(),
		Wards:   scenario.Wards,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to run scenario: %v", err), err)
		return
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save scenario run", err)
		return
	}

	summary := NewRunSummary(run)
	h.summaries.SetDefault(summary.ID, summary)
	h.log.Info("scenario loaded", zap.String("scenario", scenario.ID), zap.String("run_id", summary.ID))

	writeJSON(w, http.StatusOK, summary)
}

/*
handlers_test.go - HTTP tests for the run, catalog and classify endpoints

Tests for:
- Roster upload (multipart) and the run read endpoints
- Not-found and bad-input error mapping
- Catalog and single-code classification
- /metrics exposure
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewHandler(store, engine.New(engine.Options{}), nil, nil)
}

func setupTestServer(t *testing.T) (*httptest.Server, *Handler) {
	h := setupTestHandler(t)
	reg := prometheus.NewRegistry()
	h.Engine = engine.New(engine.Options{Metrics: engine.NewMetrics(reg)})

	srv := httptest.NewServer(NewRouter(h, RouterConfig{Gatherer: reg}))
	t.Cleanup(srv.Close)
	return srv, h
}

const exchangeCSV = `Employee ID,Department,Role,Name,2025-03-01,2025-03-02,2025-03-03
1001,WARD2,Staff Nurse,Ada,LD,LD WARD3,E HO
1002,W2,HCA,Grace,E,SICK,XYZ
2001,WARD3,Staff Nurse,Alan,N,E WARD2,OFF
`

func uploadRoster(t *testing.T, srv *httptest.Server, filename, content string, wards ...string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("roster", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	for _, w := range wards {
		require.NoError(t, mw.WriteField("ward", w))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/runs", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, in, out any) int {
	t.Helper()
	data, err := json.Marshal(in)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createExchangeRun(t *testing.T, srv *httptest.Server) RunSummaryDTO {
	t.Helper()
	resp := uploadRoster(t, srv, "roster.csv", exchangeCSV, "WARD2", "WARD3")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary RunSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	return summary
}

// =============================================================================
// RUNS
// =============================================================================

func TestCreateRun_CSVUpload(t *testing.T) {
	// GIVEN: A CSV roster where WARD2 and WARD3 exchange one shift each
	// WHEN: Uploading it for both wards
	// THEN: The run is created with per-ward totals

	srv, _ := setupTestServer(t)
	summary := createExchangeRun(t, srv)

	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "default", summary.CatalogTier)
	assert.Equal(t, engine.OutcomeOK, summary.Outcome)
	assert.Equal(t, 3, summary.StaffCount)
	assert.Equal(t, 3, summary.LedgerEntries) // two redeployments, one HO debt
	assert.Equal(t, 1, summary.AnomalyCount)
	require.Len(t, summary.Wards, 2)
	assert.Equal(t, "WARD2", summary.Wards[0].Ward)
	assert.Equal(t, 2, summary.Wards[0].StaffCount)
	require.NotNil(t, summary.Wards[0].Totals)
}

func TestCreateRun_MissingRoster_BadRequest(t *testing.T) {
	srv, _ := setupTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("ward", "WARD2"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/runs", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRun_UnsupportedFormat_BadRequest(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := uploadRoster(t, srv, "roster.bin", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRun_MalformedRoster_StillRecorded(t *testing.T) {
	// GIVEN: A CSV roster without date columns
	// WHEN: Uploading it
	// THEN: The run is saved as failed with the ward error attached

	srv, _ := setupTestServer(t)
	resp := uploadRoster(t, srv, "roster.csv", "Employee ID,Department,Role,Name,Notes\n1001,WARD2,Nurse,Ada,LD\n", "WARD2")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary RunSummaryDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, engine.OutcomeFailed, summary.Outcome)
	require.Len(t, summary.Wards, 1)
	assert.NotEmpty(t, summary.Wards[0].Error)
}

func TestListAndGetRun(t *testing.T) {
	srv, h := setupTestServer(t)
	created := createExchangeRun(t, srv)

	var runs []RunSummaryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, created.ID, runs[0].ID)

	// Served from the summary cache.
	var cached RunSummaryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+created.ID, &cached))
	assert.Equal(t, created.ID, cached.ID)
	assert.NotNil(t, cached.Wards[0].Totals)

	// Served from the store once the cache forgets it.
	h.summaries.Flush()
	var stored RunSummaryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+created.ID, &stored))
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, 3, stored.StaffCount)
	require.Len(t, stored.Wards, 2)
	assert.Nil(t, stored.Wards[0].Totals)
}

func TestGetRun_Unknown_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)

	var resp ErrorResponse
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist", &resp))
	assert.Equal(t, "Run not found", resp.Error)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist/staff", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist/settlements", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist/ledgers/toil", nil))
}

func TestGetRunStaff_FilterByWard(t *testing.T) {
	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var all []StaffRecordDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/staff", &all))
	assert.Len(t, all, 3)

	var ward3 []StaffRecordDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/staff?ward=WARD3", &ward3))
	require.Len(t, ward3, 1)
	assert.Equal(t, "2001", ward3[0].EmployeeID)
	assert.Equal(t, 8.0, ward3[0].RedeployedOutHours)
}

func TestGetRunLedger(t *testing.T) {
	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var redeployments []LedgerEntryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/ledgers/redeployment", &redeployments))
	require.Len(t, redeployments, 2)
	assert.Equal(t, "WARD2", redeployments[0].Ward)
	assert.Equal(t, "WARD3", redeployments[0].ToDept)
	assert.Equal(t, 12.5, redeployments[0].Hours)

	var toil []LedgerEntryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/ledgers/toil", &toil))
	require.Len(t, toil, 1)
	assert.Equal(t, "1001", toil[0].EmployeeID)

	var paybacks []LedgerEntryDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/ledgers/payback", &paybacks))
	assert.Empty(t, paybacks)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/ledgers/holiday", nil))
}

func TestGetRunLedgerTotals(t *testing.T) {
	// GIVEN: A run with a 12.5h and an 8h redeployment and one 8h HO shift
	// WHEN: Totalling its ledgers
	// THEN: Every ledger is listed with its summed hours

	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var totals LedgerTotalsDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/ledgers", &totals))
	assert.Equal(t, run.ID, totals.RunID)
	assert.Equal(t, map[string]float64{"redeployment": 20.5, "toil": 8, "payback": 0}, totals.Hours)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist/ledgers", nil))
}

func TestGetRunStaffLedger(t *testing.T) {
	// GIVEN: Ada lent a long day to WARD3 and was sent home on an early
	// WHEN: Reading her ledger
	// THEN: Both entries come back with per-ledger hours

	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var ada StaffLedgerDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/staff/1001/ledger", &ada))
	assert.Equal(t, "1001", ada.EmployeeID)
	require.Len(t, ada.Entries, 2)
	kinds := []string{ada.Entries[0].Kind, ada.Entries[1].Kind}
	assert.ElementsMatch(t, []string{"REDEPLOYMENT", "HO_DEBT"}, kinds)
	for _, e := range ada.Entries {
		assert.Equal(t, "1001", e.EmployeeID)
	}
	assert.Equal(t, map[string]float64{"redeployment": 12.5, "toil": 8, "payback": 0}, ada.Hours)

	var grace StaffLedgerDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/staff/1002/ledger", &grace))
	assert.Empty(t, grace.Entries)
	assert.Equal(t, 0.0, grace.Hours["toil"])

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/runs/does-not-exist/staff/1001/ledger", nil))
}

func TestGetRunSettlements(t *testing.T) {
	// GIVEN: A run where WARD2 sent 12.5 hours and received 8
	// WHEN: Fetching settlements
	// THEN: WARD3 owes WARD2 the 4.5 hour difference

	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var res SettlementDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/settlements", &res))
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "WARD3 owes WARD2 4.5 hours", res.Pairs[0].Action)
	assert.Len(t, res.Positions, 2)
}

func TestGetRunAnomalies(t *testing.T) {
	srv, _ := setupTestServer(t)
	run := createExchangeRun(t, srv)

	var anomalies []AnomalyDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/runs/"+run.ID+"/anomalies", &anomalies))
	require.Len(t, anomalies, 1)
	assert.Equal(t, "unknown_code", anomalies[0].Kind)
	assert.Equal(t, "XYZ", anomalies[0].Code)
	assert.Equal(t, "2025-03-03", anomalies[0].Date)
}

// =============================================================================
// CATALOG AND CLASSIFY
// =============================================================================

func TestGetCatalog_DefaultTier(t *testing.T) {
	srv, _ := setupTestServer(t)

	var cat CatalogDTO
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/catalog", &cat))
	assert.Equal(t, "default", cat.Tier)
	assert.NotEmpty(t, cat.Entries)
}

func TestClassify(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name     string
		req      ClassifyRequest
		category string
		hours    float64
		empty    bool
	}{
		{name: "normal", req: ClassifyRequest{Code: "LD", Ward: "WARD2"}, category: "NORMAL", hours: 12.5},
		{name: "redeployment", req: ClassifyRequest{Code: "E WARD3", Ward: "WARD2"}, category: "REDEPLOYMENT", hours: 8},
		{name: "same ward via synonym", req: ClassifyRequest{Code: "LD W2", Ward: "WARD2"}, category: "REDEPLOYMENT", hours: 12.5},
		{name: "sick", req: ClassifyRequest{Code: "SICK"}, category: "SICK", hours: 12.5},
		{name: "empty", req: ClassifyRequest{Code: "  "}, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ClassifyResponse
			assert.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/classify", tt.req, &resp))
			assert.Equal(t, tt.empty, resp.Empty)
			assert.Equal(t, tt.category, resp.Category)
			if !tt.empty {
				assert.Equal(t, tt.hours, resp.Hours)
			}
		})
	}
}

func TestClassify_InvalidBody(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Post(srv.URL+"/api/classify", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// METRICS
// =============================================================================

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)
	createExchangeRun(t, srv)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "roster_runs_total")
	assert.Contains(t, string(body), "roster_cells_classified_total")
}

/*
handlers.go - HTTP API handlers for roster reconciliation runs

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine and
  the run store.

ENDPOINTS:
  Runs:
    POST   /api/runs                      Upload a roster and run it
    GET    /api/runs                      List runs, newest first
    GET    /api/runs/{id}                 Run summary with ward outcomes
    GET    /api/runs/{id}/staff?ward=     Staff records
    GET    /api/runs/{id}/staff/{employee}/ledger
                                          One staff member's entries, all kinds
    GET    /api/runs/{id}/ledgers         Hours total per ledger
    GET    /api/runs/{id}/ledgers/{kind}  redeployment | toil | payback
    GET    /api/runs/{id}/settlements     Ward pair settlements and positions
    GET    /api/runs/{id}/anomalies       Data-quality findings

  Catalog:
    GET    /api/catalog                   Currently resolved hours catalog
    POST   /api/classify                  Classify one code (diagnostic)

  Scenarios:
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Run a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Run persistence
  - Engine: Reconciliation runs
  - Catalogs: The refreshed hours catalog
  - Cached run summaries (go-cache) for quick lookups

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the engine or the store
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed roster, unsupported upload, invalid input
  - 404: Run not found
  - 409: Run already saved
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/roster"
	"github.com/warp/roster-ledger/sheet"
	"github.com/warp/roster-ledger/shift"
	"github.com/warp/roster-ledger/store/sqlite"
)

const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *engine.Engine
	Catalogs *CatalogRefresher

	// Wards processed when an upload names none; empty means every
	// department in the roster.
	Wards []string
	// Sheet read from xlsx uploads; empty means the first sheet.
	Sheet string

	log       *zap.Logger
	summaries *cache.Cache
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, eng *engine.Engine, catalogs *CatalogRefresher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalogs == nil {
		catalogs = NewCatalogRefresher(nil, logger)
	}
	return &Handler{
		Store:     store,
		Engine:    eng,
		Catalogs:  catalogs,
		log:       logger.Named("api"),
		summaries: cache.New(30*time.Minute, 10*time.Minute),
	}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CreateRun runs an uploaded roster.
// POST /api/runs (multipart: roster, optional catalog, optional ward...)
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	matrix, err := h.readRoster(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid roster file", err)
		return
	}

	cat, err := h.uploadedCatalog(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid catalog file", err)
		return
	}

	wards := r.MultipartForm.Value["ward"]
	if len(wards) == 0 {
		wards = h.Wards
	}

	ctx := r.Context()
	run, err := h.Engine.Run(ctx, engine.Input{Matrix: matrix, Catalog: cat, Wards: wards})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Run failed", err)
		return
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		h.writeStoreError(w, "Failed to save run", err)
		return
	}

	summary := NewRunSummary(run)
	h.summaries.SetDefault(summary.ID, summary)

	writeJSON(w, http.StatusCreated, summary)
}

func (h *Handler) readRoster(r *http.Request) (roster.Matrix, error) {
	data, name, err := formFile(r, "roster")
	if err != nil {
		return roster.Matrix{}, err
	}
	if data == nil {
		return roster.Matrix{}, errors.New("roster file is required")
	}
	format, err := sheet.FormatOf(name, data)
	if err != nil {
		return roster.Matrix{}, err
	}
	matrix, err := roster.ReadMatrix(bytes.NewReader(data), format, h.Sheet)
	if err != nil {
		return roster.Matrix{}, fmt.Errorf("%w: %v", generic.ErrUnsupportedFormat, err)
	}
	return matrix, nil
}

// uploadedCatalog returns the catalog for a run: an uploaded sheet wins as
// the local tier when it yields entries, else the refreshed catalog.
func (h *Handler) uploadedCatalog(r *http.Request) (*catalog.Catalog, error) {
	data, name, err := formFile(r, "catalog")
	if err != nil || data == nil {
		return h.Catalogs.Current(), err
	}
	format, err := sheet.FormatOf(name, data)
	if err != nil {
		return nil, err
	}
	rows, err := sheet.Read(bytes.NewReader(data), format, "")
	if err != nil {
		return nil, err
	}
	entries := catalog.ParseRows(rows)
	if len(entries) == 0 {
		return h.Catalogs.Current(), nil
	}
	return catalog.New(entries, catalog.TierLocal), nil
}

// formFile reads an optional multipart file. A missing field is not an error.
func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// ListRuns returns stored runs, newest first.
// GET /api/runs?limit=
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunRecordDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run summary. Runs finished by this process are served
// from cache with ward totals; older runs come from the store.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if cached, ok := h.summaries.Get(id); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	run, err := h.Store.GetRun(r.Context(), generic.RunID(id))
	if err != nil {
		h.writeStoreError(w, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunRecordDTO(*run))
}

// GetRunStaff returns a run's staff records, optionally for one ward.
// GET /api/runs/{id}/staff?ward=
func (h *Handler) GetRunStaff(w http.ResponseWriter, r *http.Request) {
	id := generic.RunID(chi.URLParam(r, "id"))
	records, err := h.Store.ListStaffRecords(r.Context(), id, r.URL.Query().Get("ward"))
	if err != nil {
		h.writeStoreError(w, "Failed to list staff records", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffRecordDTOs(records))
}

var ledgerKinds = map[string]generic.EntryKind{
	"redeployment": generic.KindRedeployment,
	"toil":         generic.KindToilDebt,
	"payback":      generic.KindPayback,
}

// ledgerNames orders the ledgers in responses.
var ledgerNames = []string{"redeployment", "toil", "payback"}

// GetRunStaffLedger returns every ledger entry of one staff member.
// GET /api/runs/{id}/staff/{employee}/ledger
func (h *Handler) GetRunStaffLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.RunID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetRun(ctx, id); err != nil {
		h.writeStoreError(w, "Failed to get run", err)
		return
	}

	employee := chi.URLParam(r, "employee")
	entries, err := generic.NewLedger(h.Store).EntriesForEntity(ctx, id, generic.EntityID(employee))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffLedgerDTO(employee, entries))
}

// GetRunLedgerTotals returns the hours total of each of a run's ledgers.
// GET /api/runs/{id}/ledgers
func (h *Handler) GetRunLedgerTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.RunID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetRun(ctx, id); err != nil {
		h.writeStoreError(w, "Failed to get run", err)
		return
	}

	l := generic.NewLedger(h.Store)
	totals := make(map[string]float64, len(ledgerNames))
	for _, name := range ledgerNames {
		total, err := l.Total(ctx, id, ledgerKinds[name])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to total ledger", err)
			return
		}
		totals[name] = hours(total.Value)
	}
	writeJSON(w, http.StatusOK, LedgerTotalsDTO{RunID: string(id), Hours: totals})
}

// GetRunLedger returns one of a run's three ledgers in emission order.
// GET /api/runs/{id}/ledgers/{kind}
func (h *Handler) GetRunLedger(w http.ResponseWriter, r *http.Request) {
	kind, ok := ledgerKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown ledger, expected redeployment, toil or payback", nil)
		return
	}

	ctx := r.Context()
	id := generic.RunID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetRun(ctx, id); err != nil {
		h.writeStoreError(w, "Failed to get run", err)
		return
	}

	entries, err := generic.NewLedger(h.Store).Entries(ctx, id, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

// GetRunSettlements recomputes a run's ward settlements.
// GET /api/runs/{id}/settlements
func (h *Handler) GetRunSettlements(w http.ResponseWriter, r *http.Request) {
	id := generic.RunID(chi.URLParam(r, "id"))
	res, err := h.Store.Settlement(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to reconcile run", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementDTO(res))
}

// GetRunAnomalies returns a run's data-quality findings.
// GET /api/runs/{id}/anomalies
func (h *Handler) GetRunAnomalies(w http.ResponseWriter, r *http.Request) {
	id := generic.RunID(chi.URLParam(r, "id"))
	anomalies, err := h.Store.ListAnomalies(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to list anomalies", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnomalyDTOs(anomalies))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// GetCatalog returns the currently resolved hours catalog.
// GET /api/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.Catalogs.Current()
	writeJSON(w, http.StatusOK, toCatalogDTO(cat.Tier(), cat.Entries()))
}

// Classify classifies a single cell against the current catalog.
// POST /api/classify
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	classifier := shift.NewClassifier(h.Catalogs.Current(), nil)
	aliases := req.WardAliases
	if len(aliases) == 0 {
		aliases = h.Engine.WardMatcher().Aliases(req.Ward)
	}
	c, ok := classifier.ClassifyCell(req.Code, shift.Staff{Ward: req.Ward, WardAliases: aliases})
	if !ok {
		writeJSON(w, http.StatusOK, ClassifyResponse{Empty: true})
		return
	}
	writeJSON(w, http.StatusOK, toClassifyResponse(c))
}

// =============================================================================
// HELPERS
// =============================================================================

// NewRunSummary converts a finished run for JSON output.
func NewRunSummary(run *engine.Run) RunSummaryDTO {
	return toRunSummaryDTO(run)
}

// NewRunReport is the summary plus settlements and anomalies, as printed
// by the CLI.
func NewRunReport(run *engine.Run) RunReportDTO {
	return RunReportDTO{
		Run:        toRunSummaryDTO(run),
		Settlement: toSettlementDTO(run.Settlement),
		Anomalies:  toAnomalyDTOs(run.Anomalies),
	}
}

// NewCatalog converts a resolved catalog for JSON output.
func NewCatalog(cat *catalog.Catalog) CatalogDTO {
	return toCatalogDTO(cat.Tier(), cat.Entries())
}

func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Run not found", err)
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, "Run already saved", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

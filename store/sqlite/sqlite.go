/*
Package sqlite persists finished reconciliation runs.

PURPOSE:
  A run is computed in memory by the engine; this package keeps it so the
  API and CLI can list runs and read back staff records, ledgers and
  anomalies later. It also implements generic.Store, so the three run
  ledgers are committed through generic.Ledger with the same idempotency
  rules as the in-memory store.

INTERFACES IMPLEMENTED:
  generic.Store: Ledger entry persistence

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE on ledger_entries (Reset aside)
  - A run is saved once; saving the same run ID again fails with
    generic.ErrDuplicateIdempotencyKey

KEY TABLES:
  runs:            One row per run (tier, outcome, counts, timestamps)
  ward_reports:    Per-ward outcome, including the malformed-roster error
  catalog_entries: Snapshot of the catalog the run classified against
  staff_records:   Component fields only; derived fields are recomputed
                   on read
  ledger_entries:  Redeployment, HO debt and PB repayment entries
  anomalies:       Advisories raised during the run

  Settlements are never stored. They are recomputed from the persisted
  redeployment ledger on every read.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SaveRun writes everything in one
  database transaction.

USAGE:
  store, err := sqlite.New("./data/roster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.SaveRun(ctx, run)

SEE ALSO:
  - generic/store.go: Interface definition
  - generic/store/memory.go: In-memory implementation for testing
  - engine/engine.go: Produces the runs saved here
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/roster-ledger/catalog"
	"github.com/warp/roster-ledger/engine"
	"github.com/warp/roster-ledger/generic"
	"github.com/warp/roster-ledger/ledger"
	"github.com/warp/roster-ledger/roster"
	"github.com/warp/roster-ledger/settlement"
)

// Store implements generic.Store and the run repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		catalog_tier TEXT NOT NULL,
		outcome TEXT NOT NULL,
		staff_count INTEGER NOT NULL DEFAULT 0,
		ledger_entries INTEGER NOT NULL DEFAULT 0,
		anomaly_count INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at
		ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS ward_reports (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		ward TEXT NOT NULL,
		staff_count INTEGER NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS catalog_entries (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		code TEXT NOT NULL,
		descriptor TEXT,
		finance_tag TEXT NOT NULL,
		hours TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	-- Derived fields (toil balance, net ward hours, ward balance) are not
	-- stored; they are recomputed from these components on read.
	CREATE TABLE IF NOT EXISTS staff_records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		ward_seq INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		ward TEXT NOT NULL,
		employee_id TEXT,
		name TEXT,
		role TEXT,
		contracted_hours TEXT NOT NULL,
		rostered_to_ward_hours TEXT NOT NULL,
		actual_hours TEXT NOT NULL,
		shift_count INTEGER NOT NULL,
		day_shift_count INTEGER NOT NULL,
		night_shift_count INTEGER NOT NULL,
		sick_count INTEGER NOT NULL,
		sick_hours TEXT NOT NULL,
		unpaid_count INTEGER NOT NULL,
		unpaid_hours TEXT NOT NULL,
		hours_owed TEXT NOT NULL,
		hours_paid_back TEXT NOT NULL,
		redeployed_out_hours TEXT NOT NULL,
		PRIMARY KEY (run_id, ward_seq, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_staff_records_ward
		ON staff_records(run_id, ward);

	-- Ledger entries (append-only)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		seq INTEGER NOT NULL,
		effective_at TEXT NOT NULL,
		entity_id TEXT,
		ward TEXT,
		counterparty TEXT,
		staff_name TEXT,
		role TEXT,
		shift_code TEXT,
		delta_value TEXT NOT NULL,
		delta_unit TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_entries_run_kind_seq
		ON ledger_entries(run_id, kind, seq);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_entity
		ON ledger_entries(run_id, entity_id);

	CREATE TABLE IF NOT EXISTS anomalies (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		ward TEXT,
		employee_id TEXT,
		staff_name TEXT,
		date TEXT,
		code TEXT,
		message TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_anomalies_kind
		ON anomalies(run_id, kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEDGER STORE (generic.Store interface)
// =============================================================================

const entryColumns = `id, run_id, kind, seq, effective_at, entity_id, ward, counterparty,
		       staff_name, role, shift_code, delta_value, delta_unit, idempotency_key, created_at`

func appendEntry(ctx context.Context, db execer, e generic.Entry) error {
	createdAt := e.CreatedAt.Time
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ledger_entries
		(` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		e.ID,
		e.RunID,
		e.Kind,
		e.Seq,
		e.EffectiveAt.String(),
		e.EntityID,
		e.Ward,
		e.Counterparty,
		e.StaffName,
		e.Role,
		e.ShiftCode,
		e.Delta.Value.String(),
		e.Delta.Unit,
		nullString(e.IdempotencyKey),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// AppendBatch adds multiple entries atomically.
func (s *Store) AppendBatch(ctx context.Context, es []generic.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkBatchKeys(es); err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, e := range es {
		if err := appendEntry(ctx, sqlTx, e); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func checkBatchKeys(es []generic.Entry) error {
	keys := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if keys[e.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		keys[e.IdempotencyKey] = true
	}
	return nil
}

// Load returns a run's entries of one kind in Seq order.
func (s *Store) Load(ctx context.Context, runID generic.RunID, kind generic.EntryKind) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadEntries(ctx, s.db, runID, kind)
}

func loadEntries(ctx context.Context, db querier, runID generic.RunID, kind generic.EntryKind) ([]generic.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE run_id = ? AND kind = ?
		ORDER BY seq ASC
	`
	return queryEntries(ctx, db, query, runID, kind)
}

// LoadByEntity returns a run's entries for one staff member, by kind then Seq.
func (s *Store) LoadByEntity(ctx context.Context, runID generic.RunID, entityID generic.EntityID) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadByEntity(ctx, s.db, runID, entityID)
}

func loadByEntity(ctx context.Context, db querier, runID generic.RunID, entityID generic.EntityID) ([]generic.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE run_id = ? AND entity_id = ?
		ORDER BY kind ASC, seq ASC
	`
	return queryEntries(ctx, db, query, runID, entityID)
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return keyExists(ctx, s.db, idempotencyKey)
}

func keyExists(ctx context.Context, db querier, idempotencyKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

func queryEntries(ctx context.Context, db querier, query string, args ...any) ([]generic.Entry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (generic.Entry, error) {
	var (
		e              generic.Entry
		effectiveAt    string
		entityID       sql.NullString
		ward           sql.NullString
		counterparty   sql.NullString
		staffName      sql.NullString
		role           sql.NullString
		shiftCode      sql.NullString
		deltaValue     string
		deltaUnit      string
		idempotencyKey sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&e.ID, &e.RunID, &e.Kind, &e.Seq, &effectiveAt, &entityID, &ward, &counterparty,
		&staffName, &role, &shiftCode, &deltaValue, &deltaUnit, &idempotencyKey, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	e.EffectiveAt, _ = generic.ParseDate(effectiveAt)
	e.EntityID = generic.EntityID(entityID.String)
	e.Ward = ward.String
	e.Counterparty = counterparty.String
	e.StaffName = staffName.String
	e.Role = role.String
	e.ShiftCode = shiftCode.String
	e.Delta = parseAmount(deltaValue, deltaUnit)
	e.IdempotencyKey = idempotencyKey.String
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		e.CreatedAt = generic.TimePoint{Time: t}
	}
	return e, nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// txStore is a generic.Store bound to one open database transaction. It
// never touches the Store's lock; the caller already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendBatch(ctx context.Context, es []generic.Entry) error {
	if err := checkBatchKeys(es); err != nil {
		return err
	}
	for _, e := range es {
		if err := appendEntry(ctx, ts.tx, e); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) Load(ctx context.Context, runID generic.RunID, kind generic.EntryKind) ([]generic.Entry, error) {
	return loadEntries(ctx, ts.tx, runID, kind)
}

func (ts *txStore) LoadByEntity(ctx context.Context, runID generic.RunID, entityID generic.EntityID) ([]generic.Entry, error) {
	return loadByEntity(ctx, ts.tx, runID, entityID)
}

func (ts *txStore) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	return keyExists(ctx, ts.tx, idempotencyKey)
}

// =============================================================================
// RUN STORE
// =============================================================================

// WardOutcome is the persisted result of one ward.
type WardOutcome struct {
	Ward       string
	StaffCount int
	Error      string // empty when the ward processed
}

// RunRecord is the stored header of a run.
type RunRecord struct {
	ID            generic.RunID
	CatalogTier   catalog.Tier
	Outcome       string
	StaffCount    int
	LedgerEntries int
	AnomalyCount  int
	Wards         []WardOutcome
	StartedAt     time.Time
	FinishedAt    time.Time
	CreatedAt     time.Time
}

// SaveRun persists a finished run in one transaction. Saving a run ID that
// already exists returns generic.ErrDuplicateIdempotencyKey.
func (s *Store) SaveRun(ctx context.Context, run *engine.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	staff := run.Staff()
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO runs (id, catalog_tier, outcome, staff_count, ledger_entries,
			anomaly_count, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.CatalogTier, run.Outcome(), len(staff), run.Ledgers.Len(),
		len(run.Anomalies),
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("run %s already saved: %w", run.ID, generic.ErrDuplicateIdempotencyKey)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, w := range run.Wards {
		var errText sql.NullString
		if w.Err != nil {
			errText = nullString(w.Err.Error())
		}
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO ward_reports (run_id, seq, ward, staff_count, error)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, w.Ward, len(w.Staff), errText); err != nil {
			return fmt.Errorf("failed to save ward report: %w", err)
		}
		for j, r := range w.Staff {
			if err := saveStaffRecord(ctx, sqlTx, run.ID, i, j, r); err != nil {
				return err
			}
		}
	}

	for i, e := range run.Catalog.Entries() {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO catalog_entries (run_id, seq, code, descriptor, finance_tag, hours)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, i, e.Code, e.Descriptor, e.FinanceTag, e.Hours.String()); err != nil {
			return fmt.Errorf("failed to save catalog entry: %w", err)
		}
	}

	for i, a := range run.Anomalies {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO anomalies (run_id, seq, kind, ward, employee_id, staff_name, date, code, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, a.Kind, a.Ward, a.EmployeeID, a.StaffName,
			nullDate(a.Date), a.Code, a.Message); err != nil {
			return fmt.Errorf("failed to save anomaly: %w", err)
		}
	}

	if err := run.Ledgers.Commit(ctx, run.ID, generic.NewLedger(&txStore{tx: sqlTx})); err != nil {
		return err
	}

	return sqlTx.Commit()
}

func saveStaffRecord(ctx context.Context, db execer, runID generic.RunID, wardSeq, seq int, r roster.StaffRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO staff_records (run_id, ward_seq, seq, ward, employee_id, name, role,
			contracted_hours, rostered_to_ward_hours, actual_hours,
			shift_count, day_shift_count, night_shift_count,
			sick_count, sick_hours, unpaid_count, unpaid_hours,
			hours_owed, hours_paid_back, redeployed_out_hours)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, wardSeq, seq, r.Ward, r.EmployeeID, r.Name, r.Role,
		r.ContractedHours.String(), r.RosteredToWardHours.String(), r.ActualHours.String(),
		r.ShiftCount, r.DayShiftCount, r.NightShiftCount,
		r.SickCount, r.SickHours.String(), r.UnpaidCount, r.UnpaidHours.String(),
		r.HoursOwed.String(), r.HoursPaidBack.String(), r.RedeployedOutHours.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save staff record: %w", err)
	}
	return nil
}

// GetRun returns a run header with its ward outcomes.
func (s *Store) GetRun(ctx context.Context, id generic.RunID) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, runSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, generic.ErrRunNotFound)
	}

	run := runs[0]
	run.Wards, err = s.wardOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, runSelect+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanRuns(rows)
}

const runSelect = `
	SELECT id, catalog_tier, outcome, staff_count, ledger_entries, anomaly_count,
	       started_at, finished_at, created_at
	FROM runs`

func scanRuns(rows *sql.Rows) ([]RunRecord, error) {
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r                               RunRecord
			startedAt, finishedAt, createdAt string
		)
		if err := rows.Scan(
			&r.ID, &r.CatalogTier, &r.Outcome, &r.StaffCount, &r.LedgerEntries, &r.AnomalyCount,
			&startedAt, &finishedAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) wardOutcomes(ctx context.Context, id generic.RunID) ([]WardOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ward, staff_count, error FROM ward_reports
		WHERE run_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ward reports: %w", err)
	}
	defer rows.Close()

	var out []WardOutcome
	for rows.Next() {
		var (
			w       WardOutcome
			errText sql.NullString
		)
		if err := rows.Scan(&w.Ward, &w.StaffCount, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan ward report: %w", err)
		}
		w.Error = errText.String
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) requireRun(ctx context.Context, id generic.RunID) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("run %s: %w", id, generic.ErrRunNotFound)
	}
	return nil
}

// ListStaffRecords returns a run's staff records in processing order.
// An empty ward returns every ward. Derived fields are recomputed.
func (s *Store) ListStaffRecords(ctx context.Context, id generic.RunID, ward string) ([]roster.StaffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, id); err != nil {
		return nil, err
	}

	query := `
		SELECT ward, employee_id, name, role,
			contracted_hours, rostered_to_ward_hours, actual_hours,
			shift_count, day_shift_count, night_shift_count,
			sick_count, sick_hours, unpaid_count, unpaid_hours,
			hours_owed, hours_paid_back, redeployed_out_hours
		FROM staff_records
		WHERE run_id = ?`
	args := []any{id}
	if ward != "" {
		query += ` AND ward = ?`
		args = append(args, ward)
	}
	query += ` ORDER BY ward_seq ASC, seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff records: %w", err)
	}
	defer rows.Close()

	var out []roster.StaffRecord
	for rows.Next() {
		var (
			r                             roster.StaffRecord
			employeeID, name, role        sql.NullString
			contracted, rostered, actual  string
			sickHours, unpaidHours        string
			owed, paidBack, redeployedOut string
		)
		if err := rows.Scan(
			&r.Ward, &employeeID, &name, &role,
			&contracted, &rostered, &actual,
			&r.ShiftCount, &r.DayShiftCount, &r.NightShiftCount,
			&r.SickCount, &sickHours, &r.UnpaidCount, &unpaidHours,
			&owed, &paidBack, &redeployedOut,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff record: %w", err)
		}
		r.EmployeeID = employeeID.String
		r.Name = name.String
		r.Role = role.String
		r.ContractedHours = parseDecimal(contracted)
		r.RosteredToWardHours = parseDecimal(rostered)
		r.ActualHours = parseDecimal(actual)
		r.SickHours = parseDecimal(sickHours)
		r.UnpaidHours = parseDecimal(unpaidHours)
		r.HoursOwed = parseDecimal(owed)
		r.HoursPaidBack = parseDecimal(paidBack)
		r.RedeployedOutHours = parseDecimal(redeployedOut)
		out = append(out, roster.Recompute(r))
	}
	return out, rows.Err()
}

// ListAnomalies returns a run's anomalies in the order they were raised.
func (s *Store) ListAnomalies(ctx context.Context, id generic.RunID) ([]roster.Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, ward, employee_id, staff_name, date, code, message
		FROM anomalies WHERE run_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	var out []roster.Anomaly
	for rows.Next() {
		var (
			a                                            roster.Anomaly
			ward, employeeID, staffName, date, code, msg sql.NullString
		)
		if err := rows.Scan(&a.Kind, &ward, &employeeID, &staffName, &date, &code, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Ward = ward.String
		a.EmployeeID = employeeID.String
		a.StaffName = staffName.String
		a.Code = code.String
		a.Message = msg.String
		if date.Valid {
			a.Date, _ = generic.ParseDate(date.String)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CatalogEntries returns the catalog snapshot a run classified against.
func (s *Store) CatalogEntries(ctx context.Context, id generic.RunID) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, descriptor, finance_tag, hours
		FROM catalog_entries WHERE run_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog entries: %w", err)
	}
	defer rows.Close()

	var out []catalog.Entry
	for rows.Next() {
		var (
			e          catalog.Entry
			descriptor sql.NullString
			hours      string
		)
		if err := rows.Scan(&e.Code, &descriptor, &e.FinanceTag, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		e.Descriptor = descriptor.String
		e.Hours = parseDecimal(hours)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadBook rebuilds a run's three ledgers.
func (s *Store) LoadBook(ctx context.Context, id generic.RunID) (*ledger.Book, error) {
	if err := s.checkRun(ctx, id); err != nil {
		return nil, err
	}
	return ledger.Load(ctx, id, generic.NewLedger(s))
}

// Settlement recomputes a run's ward settlements from its stored
// redeployment ledger.
func (s *Store) Settlement(ctx context.Context, id generic.RunID) (settlement.Result, error) {
	book, err := s.LoadBook(ctx, id)
	if err != nil {
		return settlement.Result{}, err
	}
	return settlement.Reconcile(book.Redeployments()), nil
}

func (s *Store) checkRun(ctx context.Context, id generic.RunID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requireRun(ctx, id)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"ledger_entries", "anomalies", "staff_records", "catalog_entries", "ward_reports", "runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(t generic.TimePoint) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return nullString(t.String())
}

func parseDecimal(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseAmount(value, unit string) generic.Amount {
	return generic.Amount{
		Value: parseDecimal(value),
		Unit:  generic.Unit(unit),
	}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

/*
Package sqlite provides a SQLite-backed implementation of the leave storage
interfaces.

PURPOSE:
  Implements leave.Store and leave.TxStore using SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  categories: Leave category reference data
  balances:   One ledger row per (user, category, year)
  requests:   Leave requests and their lifecycle status
  audit_log:  Append-only record of workflow actions

CONCURRENCY:
  A store-level mutex serializes writers: WithTx holds the write lock for
  the whole transaction, so the check-then-act availability test inside a
  workflow operation always observes the previous writer's committed state.
  SQLite's single-writer WAL mode backs this at the database level.

GUARDED STATUS UPDATES:
  UpdateRequestStatus uses `WHERE id = ? AND status = ?` and reports whether
  a row was affected. Racing terminal transitions resolve to exactly one
  winner.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

const dateFormat = "2006-01-02"

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and a fresh pooled
	// connection to ":memory:" would otherwise see an empty database.
	db.SetMaxOpenConns(1)

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
	-- Leave categories (reference data)
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		default_allotment TEXT NOT NULL,
		requires_approval BOOLEAN NOT NULL DEFAULT TRUE,
		color TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Balance ledger rows: one per (user, category, year)
	CREATE TABLE IF NOT EXISTS balances (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		total_days TEXT NOT NULL,
		used_days TEXT NOT NULL,
		pending_days TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(user_id, category_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_balances_user_year
		ON balances(user_id, year);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_days TEXT NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		approver_id TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user
		ON requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);

	-- Overlap checks scan a user's pending/approved requests (hot path)
	CREATE INDEX IF NOT EXISTS idx_requests_user_active
		ON requests(user_id, status, start_date, end_date);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		request_id TEXT,
		user_id TEXT,
		category_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_request
		ON audit_log(request_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (s *Store) SaveCategory(ctx context.Context, c leave.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCategory(ctx, s.db, c)
}

func saveCategory(ctx context.Context, db dbtx, c leave.Category) error {
	query := `
		INSERT INTO categories (id, name, default_allotment, requires_approval, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			default_allotment = excluded.default_allotment,
			requires_approval = excluded.requires_approval,
			color = excluded.color
	`
	_, err := db.ExecContext(ctx, query,
		c.ID, c.Name, c.DefaultAllotment.String(), c.RequiresApproval, c.Color,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetCategory(ctx context.Context, id leave.CategoryID) (*leave.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCategory(ctx, s.db, id)
}

func getCategory(ctx context.Context, db dbtx, id leave.CategoryID) (*leave.Category, error) {
	row := db.QueryRowContext(ctx,
		"SELECT id, name, default_allotment, requires_approval, color, created_at FROM categories WHERE id = ?",
		id,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]leave.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCategories(ctx, s.db)
}

func listCategories(ctx context.Context, db dbtx) ([]leave.Category, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, name, default_allotment, requires_approval, color, created_at FROM categories ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []leave.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func scanCategory(row rowScanner) (*leave.Category, error) {
	var (
		c         leave.Category
		allotment string
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &allotment, &c.RequiresApproval, &c.Color, &createdAt); err != nil {
		return nil, err
	}
	c.DefaultAllotment = mustDecimal(allotment)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// =============================================================================
// BALANCES
// =============================================================================

const balanceColumns = "id, user_id, category_id, year, total_days, used_days, pending_days, created_at, updated_at"

func (s *Store) InsertBalance(ctx context.Context, b leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertBalance(ctx, s.db, b)
}

func insertBalance(ctx context.Context, db dbtx, b leave.Balance) error {
	query := `
		INSERT INTO balances (` + balanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		b.ID, b.UserID, b.CategoryID, b.Year,
		b.TotalDays.String(), b.UsedDays.String(), b.PendingDays.String(),
		b.CreatedAt.UTC().Format(time.RFC3339), b.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userID leave.UserID, categoryID leave.CategoryID, year int) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, userID, categoryID, year)
}

func getBalance(ctx context.Context, db dbtx, userID leave.UserID, categoryID leave.CategoryID, year int) (*leave.Balance, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+balanceColumns+" FROM balances WHERE user_id = ? AND category_id = ? AND year = ?",
		userID, categoryID, year,
	)
	return scanBalanceRow(row)
}

func (s *Store) GetBalanceByID(ctx context.Context, id leave.BalanceID) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalanceByID(ctx, s.db, id)
}

func getBalanceByID(ctx context.Context, db dbtx, id leave.BalanceID) (*leave.Balance, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+balanceColumns+" FROM balances WHERE id = ?", id)
	return scanBalanceRow(row)
}

func scanBalanceRow(row rowScanner) (*leave.Balance, error) {
	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) ListBalances(ctx context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listBalances(ctx, s.db, userID, year)
}

func listBalances(ctx context.Context, db dbtx, userID leave.UserID, year int) ([]leave.Balance, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+balanceColumns+" FROM balances WHERE user_id = ? AND year = ? ORDER BY category_id",
		userID, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

func scanBalance(row rowScanner) (*leave.Balance, error) {
	var (
		b                    leave.Balance
		total, used, pending string
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Year,
		&total, &used, &pending, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.TotalDays = mustDecimal(total)
	b.UsedDays = mustDecimal(used)
	b.PendingDays = mustDecimal(pending)
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &b, nil
}

func (s *Store) UpdateBalanceCounters(ctx context.Context, id leave.BalanceID, used, pending decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateBalanceCounters(ctx, s.db, id, used, pending)
}

func updateBalanceCounters(ctx context.Context, db dbtx, id leave.BalanceID, used, pending decimal.Decimal) error {
	res, err := db.ExecContext(ctx,
		"UPDATE balances SET used_days = ?, pending_days = ?, updated_at = ? WHERE id = ?",
		used.String(), pending.String(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance counters: %w", err)
	}
	return requireAffected(res, leave.ErrBalanceNotFound)
}

func (s *Store) UpdateBalanceTotal(ctx context.Context, id leave.BalanceID, total decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateBalanceTotal(ctx, s.db, id, total)
}

func updateBalanceTotal(ctx context.Context, db dbtx, id leave.BalanceID, total decimal.Decimal) error {
	res, err := db.ExecContext(ctx,
		"UPDATE balances SET total_days = ?, updated_at = ? WHERE id = ?",
		total.String(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance total: %w", err)
	}
	return requireAffected(res, leave.ErrBalanceNotFound)
}

func requireAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = "id, user_id, category_id, start_date, end_date, total_days, reason, status, approver_id, approved_at, rejection_reason, created_at, updated_at"

func (s *Store) InsertRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRequest(ctx, s.db, r)
}

func insertRequest(ctx context.Context, db dbtx, r leave.Request) error {
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		r.ID, r.UserID, r.CategoryID,
		r.StartDate.Format(dateFormat), r.EndDate.Format(dateFormat),
		r.TotalDays.String(), r.Reason, r.Status,
		nullUserID(r.ApproverID), nullTime(r.ApprovedAt), nullString(r.RejectionReason),
		r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, db dbtx, id leave.RequestID) (*leave.Request, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id = ?", id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, r leave.Request, from leave.RequestStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequestStatus(ctx, s.db, r, from)
}

// updateRequestStatus is the guarded transition write: it only applies when
// the stored status still equals from.
func updateRequestStatus(ctx context.Context, db dbtx, r leave.Request, from leave.RequestStatus) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE requests
		SET status = ?, approver_id = ?, approved_at = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		r.Status, nullUserID(r.ApproverID), nullTime(r.ApprovedAt), nullString(r.RejectionReason),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.ID, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListActiveRequests(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActiveRequests(ctx, s.db, userID)
}

func listActiveRequests(ctx context.Context, db dbtx, userID leave.UserID) ([]leave.Request, error) {
	return queryRequests(ctx, db,
		"SELECT "+requestColumns+" FROM requests WHERE user_id = ? AND status IN ('pending', 'approved') ORDER BY created_at, id",
		userID,
	)
}

func (s *Store) ListRequestsByUser(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByUser(ctx, s.db, userID)
}

func listRequestsByUser(ctx context.Context, db dbtx, userID leave.UserID) ([]leave.Request, error) {
	return queryRequests(ctx, db,
		"SELECT "+requestColumns+" FROM requests WHERE user_id = ? ORDER BY created_at, id",
		userID,
	)
}

func (s *Store) ListRequestsByStatus(ctx context.Context, status leave.RequestStatus) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByStatus(ctx, s.db, status)
}

func listRequestsByStatus(ctx context.Context, db dbtx, status leave.RequestStatus) ([]leave.Request, error) {
	return queryRequests(ctx, db,
		"SELECT "+requestColumns+" FROM requests WHERE status = ? ORDER BY created_at, id",
		status,
	)
}

func (s *Store) ListRequestsByYear(ctx context.Context, year int) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequestsByYear(ctx, s.db, year)
}

func listRequestsByYear(ctx context.Context, db dbtx, year int) ([]leave.Request, error) {
	return queryRequests(ctx, db,
		"SELECT "+requestColumns+" FROM requests WHERE start_date >= ? AND start_date <= ? ORDER BY created_at, id",
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year),
	)
}

func queryRequests(ctx context.Context, db dbtx, query string, args ...any) ([]leave.Request, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*leave.Request, error) {
	var (
		r                    leave.Request
		startDate, endDate   string
		totalDays            string
		reason               sql.NullString
		approverID           sql.NullString
		approvedAt           sql.NullString
		rejectionReason      sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&r.ID, &r.UserID, &r.CategoryID, &startDate, &endDate,
		&totalDays, &reason, &r.Status, &approverID, &approvedAt, &rejectionReason,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.StartDate, _ = time.Parse(dateFormat, startDate)
	r.EndDate, _ = time.Parse(dateFormat, endDate)
	r.TotalDays = mustDecimal(totalDays)
	r.Reason = reason.String
	if approverID.Valid {
		id := leave.UserID(approverID.String)
		r.ApproverID = &id
	}
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		r.ApprovedAt = &t
	}
	if rejectionReason.Valid {
		reason := rejectionReason.String
		r.RejectionReason = &reason
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &r, nil
}

// =============================================================================
// AUDIT LOG
// =============================================================================

func (s *Store) AppendAudit(ctx context.Context, e leave.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, e)
}

func appendAudit(ctx context.Context, db dbtx, e leave.AuditEntry) error {
	payloadJSON, _ := json.Marshal(e.Payload)
	_, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, actor_id, action, request_id, user_id, category_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC().Format(time.RFC3339), e.ActorID, e.Action,
		e.RequestID, e.UserID, e.CategoryID, string(payloadJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAudit(ctx context.Context, requestID leave.RequestID) ([]leave.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAudit(ctx, s.db, requestID)
}

func listAudit(ctx context.Context, db dbtx, requestID leave.RequestID) ([]leave.AuditEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, at, actor_id, action, request_id, user_id, category_id, payload_json
		FROM audit_log WHERE request_id = ? ORDER BY at, id`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []leave.AuditEntry
	for rows.Next() {
		var (
			e           leave.AuditEntry
			at          string
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Action,
			&e.RequestID, &e.UserID, &e.CategoryID, &payloadJSON); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339, at)
		if payloadJSON.Valid && payloadJSON.String != "" {
			json.Unmarshal([]byte(payloadJSON.String), &e.Payload)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (leave.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The store-level
// write lock is held for the duration, serializing concurrent workflow
// operations against the same balance rows.
func (s *Store) WithTx(ctx context.Context, fn func(store leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every Store method against the open transaction. No locking:
// WithTx already holds the store lock.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveCategory(ctx context.Context, c leave.Category) error {
	return saveCategory(ctx, ts.tx, c)
}

func (ts *txStore) GetCategory(ctx context.Context, id leave.CategoryID) (*leave.Category, error) {
	return getCategory(ctx, ts.tx, id)
}

func (ts *txStore) ListCategories(ctx context.Context) ([]leave.Category, error) {
	return listCategories(ctx, ts.tx)
}

func (ts *txStore) InsertBalance(ctx context.Context, b leave.Balance) error {
	return insertBalance(ctx, ts.tx, b)
}

func (ts *txStore) GetBalance(ctx context.Context, userID leave.UserID, categoryID leave.CategoryID, year int) (*leave.Balance, error) {
	return getBalance(ctx, ts.tx, userID, categoryID, year)
}

func (ts *txStore) GetBalanceByID(ctx context.Context, id leave.BalanceID) (*leave.Balance, error) {
	return getBalanceByID(ctx, ts.tx, id)
}

func (ts *txStore) ListBalances(ctx context.Context, userID leave.UserID, year int) ([]leave.Balance, error) {
	return listBalances(ctx, ts.tx, userID, year)
}

func (ts *txStore) UpdateBalanceCounters(ctx context.Context, id leave.BalanceID, used, pending decimal.Decimal) error {
	return updateBalanceCounters(ctx, ts.tx, id, used, pending)
}

func (ts *txStore) UpdateBalanceTotal(ctx context.Context, id leave.BalanceID, total decimal.Decimal) error {
	return updateBalanceTotal(ctx, ts.tx, id, total)
}

func (ts *txStore) InsertRequest(ctx context.Context, r leave.Request) error {
	return insertRequest(ctx, ts.tx, r)
}

func (ts *txStore) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) UpdateRequestStatus(ctx context.Context, r leave.Request, from leave.RequestStatus) (bool, error) {
	return updateRequestStatus(ctx, ts.tx, r, from)
}

func (ts *txStore) ListActiveRequests(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	return listActiveRequests(ctx, ts.tx, userID)
}

func (ts *txStore) ListRequestsByUser(ctx context.Context, userID leave.UserID) ([]leave.Request, error) {
	return listRequestsByUser(ctx, ts.tx, userID)
}

func (ts *txStore) ListRequestsByStatus(ctx context.Context, status leave.RequestStatus) ([]leave.Request, error) {
	return listRequestsByStatus(ctx, ts.tx, status)
}

func (ts *txStore) ListRequestsByYear(ctx context.Context, year int) ([]leave.Request, error) {
	return listRequestsByYear(ctx, ts.tx, year)
}

func (ts *txStore) AppendAudit(ctx context.Context, e leave.AuditEntry) error {
	return appendAudit(ctx, ts.tx, e)
}

func (ts *txStore) ListAudit(ctx context.Context, requestID leave.RequestID) ([]leave.AuditEntry, error) {
	return listAudit(ctx, ts.tx, requestID)
}

// =============================================================================
// HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullUserID(id *leave.UserID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

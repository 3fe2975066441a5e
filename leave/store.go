/*
store.go - Persistence interfaces for the leave core

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Row-level reads and writes (categories, balances, requests, audit)
  TxStore: Transactional scoping - WithTx runs a function against a Store
           view whose writes commit together or not at all

CONCURRENCY CONTRACT:
  WithTx must serialize writers touching the same balance row. The workflow
  performs its check-then-act availability test inside WithTx and relies on
  the second of two racing operations observing the first one's committed
  effect. Implementations satisfy this with a store-level write lock
  (sqlite, memory) - equivalent to row-level locking at this scale.

GUARDED STATUS UPDATES:
  UpdateRequestStatus compares against an expected prior status. When two
  terminal transitions race, exactly one matches; the loser gets applied=false
  and must fail with ErrInvalidStateTransition, never double-applying a
  ledger effect.

IMPLEMENTATIONS:
  - store/sqlite:      Production SQLite (WAL)
  - leave/store:       In-memory for tests and dev

SEE ALSO:
  - workflow.go: The only caller of balance mutations
*/
package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Row-level persistence
// =============================================================================

type Store interface {
	// Categories (reference data; administered upstream, read by the core)
	SaveCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id CategoryID) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	// Balances
	InsertBalance(ctx context.Context, b Balance) error
	GetBalance(ctx context.Context, userID UserID, categoryID CategoryID, year int) (*Balance, error)
	GetBalanceByID(ctx context.Context, id BalanceID) (*Balance, error)
	ListBalances(ctx context.Context, userID UserID, year int) ([]Balance, error)
	// UpdateBalanceCounters overwrites used/pending. Only the workflow calls this.
	UpdateBalanceCounters(ctx context.Context, id BalanceID, used, pending decimal.Decimal) error
	UpdateBalanceTotal(ctx context.Context, id BalanceID, total decimal.Decimal) error

	// Requests
	InsertRequest(ctx context.Context, r Request) error
	GetRequest(ctx context.Context, id RequestID) (*Request, error)
	// UpdateRequestStatus applies r's status and approval fields only if the
	// stored status still equals from. Returns applied=false otherwise.
	UpdateRequestStatus(ctx context.Context, r Request, from RequestStatus) (bool, error)
	// ListActiveRequests returns the user's pending and approved requests.
	ListActiveRequests(ctx context.Context, userID UserID) ([]Request, error)
	ListRequestsByUser(ctx context.Context, userID UserID) ([]Request, error)
	ListRequestsByStatus(ctx context.Context, status RequestStatus) ([]Request, error)
	ListRequestsByYear(ctx context.Context, year int) ([]Request, error)

	// Audit trail (append-only)
	AppendAudit(ctx context.Context, e AuditEntry) error
	ListAudit(ctx context.Context, requestID RequestID) ([]AuditEntry, error)
}

// TxStore wraps Store with transaction support.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AUDIT LOG - Who did what, when
// =============================================================================

type AuditAction string

const (
	AuditRequestSubmitted AuditAction = "request_submitted"
	AuditRequestApproved  AuditAction = "request_approved"
	AuditRequestRejected  AuditAction = "request_rejected"
	AuditRequestCancelled AuditAction = "request_cancelled"
	AuditTotalOverridden  AuditAction = "total_overridden"
)

type AuditEntry struct {
	ID         string
	At         time.Time
	ActorID    UserID
	Action     AuditAction
	RequestID  RequestID
	UserID     UserID
	CategoryID CategoryID
	Payload    map[string]string
}

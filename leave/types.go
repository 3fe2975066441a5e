/*
Package leave implements the leave balance ledger and request workflow.

PURPOSE:
  Tracks, per employee per leave category per year, how many days are
  allotted, consumed, and reserved, and mediates the full lifecycle of a
  leave request (submit -> approve/reject/cancel) while keeping the ledger
  consistent under concurrent access.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: Reference data describing a kind of leave (annual, sick, ...)
  - Balance:  The per-(user, category, year) ledger row
  - Request:  A leave request with its lifecycle status
  - Event:    A workflow transition event (submit, approve, reject, cancel)

DESIGN PRINCIPLES:
  1. Precision: day counters use decimal.Decimal, never float64
  2. Closed enums: statuses and events are closed sets; the workflow rejects
     any transition absent from its table
  3. Compute once: a request's chargeable day count is fixed at submission
     and never recomputed

SEE ALSO:
  - workflow.go: The state machine that mutates balances
  - ledger.go:   Balance reads, initialization, admin overrides
  - store.go:    Persistence interfaces
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type CategoryID string
type BalanceID string
type RequestID string

// =============================================================================
// CATEGORY - Reference data, owned by administrators
// =============================================================================

// Category describes one kind of leave. The core reads ID, DefaultAllotment
// and RequiresApproval; Name and Color exist for display only.
type Category struct {
	ID               CategoryID
	Name             string
	DefaultAllotment decimal.Decimal // days granted per year
	RequiresApproval bool
	Color            string
	CreatedAt        time.Time
}

// =============================================================================
// BALANCE - One ledger row per (user, category, year)
//
// INVARIANT (at rest, between completed transactions):
//   UsedDays >= 0 AND PendingDays >= 0 AND UsedDays+PendingDays <= TotalDays
// =============================================================================

type Balance struct {
	ID          BalanceID
	UserID      UserID
	CategoryID  CategoryID
	Year        int
	TotalDays   decimal.Decimal // allotment, may be admin-overridden
	UsedDays    decimal.Decimal
	PendingDays decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Available returns TotalDays - UsedDays - PendingDays.
// This is the canonical "remaining" figure used both for display and for
// submission validation.
func (b *Balance) Available() decimal.Decimal {
	return b.TotalDays.Sub(b.UsedDays).Sub(b.PendingDays)
}

// CheckInvariant returns false if the balance counters are inconsistent.
func (b *Balance) CheckInvariant() bool {
	if b.UsedDays.IsNegative() || b.PendingDays.IsNegative() {
		return false
	}
	return !b.UsedDays.Add(b.PendingDays).GreaterThan(b.TotalDays)
}

// =============================================================================
// REQUEST - A leave request and its lifecycle
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is legal from s.
// Approved is the one non-pending state that still accepts an event
// (cancel by the owner).
func (s RequestStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

type Request struct {
	ID         RequestID
	UserID     UserID
	CategoryID CategoryID
	StartDate  time.Time
	EndDate    time.Time

	// TotalDays is the chargeable day count, computed once at submission
	// and never recomputed.
	TotalDays decimal.Decimal

	Reason string
	Status RequestStatus

	ApproverID      *UserID
	ApprovedAt      *time.Time
	RejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Year returns the calendar year the request charges against.
// Requests never span a year boundary, so the start date decides.
func (r *Request) Year() int { return r.StartDate.Year() }

// =============================================================================
// EVENTS - Inputs to the workflow state machine
// =============================================================================

type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
)

/*
errors.go - Centralized error types for the leave core

PURPOSE:
  All business errors in one place. Every failure a caller can recover from
  is a sentinel (use errors.Is) or a structured error wrapping a sentinel
  (use errors.As for details). Infrastructure failures are returned as plain
  wrapped errors and are never part of this taxonomy.

ERROR CATEGORIES:
  1. Validation errors  - bad input (range, year boundary)
  2. Ledger errors      - balance lookups and guards
  3. Workflow errors    - illegal state transitions, authorization

USAGE:
  if errors.Is(err, leave.ErrInsufficientBalance) {
      var ib *leave.InsufficientBalanceError
      errors.As(err, &ib)
      // ib.Available, ib.Requested
  }

SEE ALSO:
  - workflow.go: Produces most of these
  - api/handlers.go: Maps them to HTTP statuses
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a request's start date is after its end date.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrCrossYearRequest is returned when a request spans a calendar year boundary.
	ErrCrossYearRequest = errors.New("request spans a year boundary")

	// ErrBalanceNotFound is returned when no ledger row exists for
	// (user, category, year). Callers should Initialize first.
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrInsufficientBalance is returned when a request exceeds available days.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverlappingRequest is returned when the date range intersects another
	// pending or approved request of the same user, in any category.
	ErrOverlappingRequest = errors.New("overlapping request")

	// ErrInvalidStateTransition is returned for any event not in the
	// workflow's transition table.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrForbidden is returned when the acting user may not perform the event
	// (e.g. cancelling someone else's request).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced request doesn't exist.
	ErrNotFound = errors.New("request not found")

	// ErrCategoryNotFound is returned when a referenced category doesn't exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTotalBelowCommitted is returned when an admin override would set
	// TotalDays below UsedDays+PendingDays, violating the ledger invariant.
	ErrTotalBelowCommitted = errors.New("total below committed days")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError carries the available vs. requested figures so the
// calling layer can present the exact shortfall.
type InsufficientBalanceError struct {
	UserID     UserID
	CategoryID CategoryID
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlapError identifies the existing request that blocks a submission.
type OverlapError struct {
	UserID     UserID
	ConflictID RequestID
	Start, End string // ISO dates of the conflicting request
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("dates overlap existing request %s (%s to %s)",
		e.ConflictID, e.Start, e.End)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// TransitionError reports which event was attempted from which status.
type TransitionError struct {
	RequestID RequestID
	From      RequestStatus
	Event     Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %s", e.Event, e.RequestID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is a recoverable business outcome
// caused by the caller's input, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrCrossYearRequest) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrTotalBelowCommitted)
}

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}

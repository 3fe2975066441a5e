/*
workflow.go - The leave request state machine

PURPOSE:
  Mediates the full lifecycle of a leave request and is the ONLY component
  allowed to mutate balance counters, always inside a single transaction
  that also mutates the request row. Both writes commit together or neither
  does - a crash mid-operation never leaves PendingDays incremented without
  a corresponding request row, or vice versa.

TRANSITION TABLE:
  from      event    to         ledger effect
  --------  -------  ---------  -------------------------------
  -         submit   pending    pending += totalDays
  pending   approve  approved   used += totalDays; pending -= totalDays
  pending   reject   rejected   pending -= totalDays
  pending   cancel   cancelled  pending -= totalDays
  approved  cancel   cancelled  used -= totalDays

  Any event absent from this table fails with ErrInvalidStateTransition.

SUBMISSION FLOW:
  validate range -> compute chargeable days -> (in tx) load balance,
  check availability, check overlap, insert request + reserve days.
  Categories that don't require approval are approved in the same
  transaction with approver "system".

RACING TRANSITIONS:
  Two concurrent terminal transitions on the same request resolve via a
  guarded status update: exactly one matches the expected prior status,
  the loser fails with ErrInvalidStateTransition and applies no ledger
  effect.

SEE ALSO:
  - store.go:   TxStore contract the atomicity relies on
  - overlap.go: Conflict detection run inside the submit transaction
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SystemActor is recorded as the approver on auto-approved requests.
const SystemActor UserID = "system"

const defaultRejectionReason = "Request rejected"

// =============================================================================
// TRANSITION TABLE
// =============================================================================

type transition struct {
	to      RequestStatus
	used    int // multiplier applied to the request's TotalDays
	pending int
}

var transitions = map[RequestStatus]map[Event]transition{
	StatusPending: {
		EventApprove: {to: StatusApproved, used: +1, pending: -1},
		EventReject:  {to: StatusRejected, pending: -1},
		EventCancel:  {to: StatusCancelled, pending: -1},
	},
	StatusApproved: {
		EventCancel: {to: StatusCancelled, used: -1},
	},
}

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	store    TxStore
	calendar HolidayCalendar
	logger   *zap.Logger
	now      func() time.Time
}

func NewWorkflow(store TxStore, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		store:    store,
		calendar: NoHolidays{},
		logger:   logger.Named("leave.workflow"),
		now:      time.Now,
	}
}

// WithCalendar sets the holiday calendar used when computing chargeable days.
func (w *Workflow) WithCalendar(cal HolidayCalendar) *Workflow {
	w.calendar = cal
	return w
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates and creates a leave request, reserving its chargeable
// days on the user's balance. The request row and the balance delta commit
// in one transaction.
func (w *Workflow) Submit(ctx context.Context, userID UserID, categoryID CategoryID, start, end time.Time, reason string) (*Request, error) {
	start = truncateDay(start)
	end = truncateDay(end)

	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if start.Year() != end.Year() {
		return nil, fmt.Errorf("%w: %d vs %d", ErrCrossYearRequest, start.Year(), end.Year())
	}

	// Computed once, stored forever. Never recomputed retroactively.
	totalDays := decimal.NewFromInt(int64(ChargeableDaysWithCalendar(start, end, w.calendar, "")))

	now := w.now().UTC()
	request := &Request{
		ID:         RequestID(uuid.NewString()),
		UserID:     userID,
		CategoryID: categoryID,
		StartDate:  start,
		EndDate:    end,
		TotalDays:  totalDays,
		Reason:     reason,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := w.store.WithTx(ctx, func(s Store) error {
		category, err := s.GetCategory(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("failed to load category: %w", err)
		}
		if category == nil {
			return ErrCategoryNotFound
		}

		balance, err := s.GetBalance(ctx, userID, categoryID, start.Year())
		if err != nil {
			return fmt.Errorf("failed to load balance: %w", err)
		}
		if balance == nil {
			return ErrBalanceNotFound
		}

		if totalDays.GreaterThan(balance.Available()) {
			return &InsufficientBalanceError{
				UserID:     userID,
				CategoryID: categoryID,
				Available:  balance.Available(),
				Requested:  totalDays,
			}
		}

		conflict, err := NewOverlapValidator(s).Conflict(ctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check overlap: %w", err)
		}
		if conflict != nil {
			return &OverlapError{
				UserID:     userID,
				ConflictID: conflict.ID,
				Start:      conflict.StartDate.Format("2006-01-02"),
				End:        conflict.EndDate.Format("2006-01-02"),
			}
		}

		if err := s.InsertRequest(ctx, *request); err != nil {
			return fmt.Errorf("failed to insert request: %w", err)
		}
		if err := s.UpdateBalanceCounters(ctx, balance.ID,
			balance.UsedDays, balance.PendingDays.Add(totalDays)); err != nil {
			return fmt.Errorf("failed to reserve days: %w", err)
		}
		if err := s.AppendAudit(ctx, w.auditEntry(userID, AuditRequestSubmitted, request, map[string]string{
			"total_days": totalDays.String(),
		})); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}

		// Fast path: categories that don't require approval are approved
		// by the system inside the same transaction.
		if !category.RequiresApproval {
			return w.applyTransition(ctx, s, request, EventApprove, SystemActor, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("request submitted",
		zap.String("request_id", string(request.ID)),
		zap.String("user_id", string(userID)),
		zap.String("category_id", string(categoryID)),
		zap.String("status", string(request.Status)),
		zap.String("total_days", totalDays.String()),
	)
	return request, nil
}

// =============================================================================
// APPROVE / REJECT / CANCEL
// =============================================================================

// Approve moves a pending request to approved, converting its reserved days
// into consumed days.
func (w *Workflow) Approve(ctx context.Context, requestID RequestID, approverID UserID) (*Request, error) {
	return w.transitionTx(ctx, requestID, EventApprove, approverID, "", nil)
}

// Reject moves a pending request to rejected, releasing its reserved days.
// An empty reason is replaced with a generic message.
func (w *Workflow) Reject(ctx context.Context, requestID RequestID, approverID UserID, reason string) (*Request, error) {
	if reason == "" {
		reason = defaultRejectionReason
	}
	return w.transitionTx(ctx, requestID, EventReject, approverID, reason, nil)
}

// Cancel moves a pending or approved request to cancelled. Only the owner
// may cancel; the ledger effect depends on the prior status.
func (w *Workflow) Cancel(ctx context.Context, requestID RequestID, requestingUserID UserID) (*Request, error) {
	guard := func(r *Request) error {
		if r.UserID != requestingUserID {
			return fmt.Errorf("%w: request belongs to another user", ErrForbidden)
		}
		return nil
	}
	return w.transitionTx(ctx, requestID, EventCancel, requestingUserID, "", guard)
}

// transitionTx loads the request inside a transaction, runs the optional
// guard, and applies the transition table entry for (status, event).
func (w *Workflow) transitionTx(ctx context.Context, requestID RequestID, event Event, actorID UserID, reason string, guard func(*Request) error) (*Request, error) {
	var result *Request

	err := w.store.WithTx(ctx, func(s Store) error {
		request, err := s.GetRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		if request == nil {
			return ErrNotFound
		}
		if guard != nil {
			if err := guard(request); err != nil {
				return err
			}
		}
		if err := w.applyTransition(ctx, s, request, event, actorID, reason); err != nil {
			return err
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("request transitioned",
		zap.String("request_id", string(requestID)),
		zap.String("event", string(event)),
		zap.String("actor_id", string(actorID)),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// applyTransition mutates the request row and the balance counters for one
// table entry. Must run inside a transaction; request is updated in place.
func (w *Workflow) applyTransition(ctx context.Context, s Store, request *Request, event Event, actorID UserID, reason string) error {
	from := request.Status
	tr, ok := transitions[from][event]
	if !ok {
		return &TransitionError{RequestID: request.ID, From: from, Event: event}
	}

	balance, err := s.GetBalance(ctx, request.UserID, request.CategoryID, request.Year())
	if err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}
	if balance == nil {
		return ErrBalanceNotFound
	}

	now := w.now().UTC()
	request.Status = tr.to
	request.UpdatedAt = now
	switch event {
	case EventApprove:
		request.ApproverID = &actorID
		request.ApprovedAt = &now
	case EventReject:
		request.ApproverID = &actorID
		request.ApprovedAt = &now
		request.RejectionReason = &reason
	}

	applied, err := s.UpdateRequestStatus(ctx, *request, from)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if !applied {
		// A concurrent transition won. No ledger effect for the loser.
		return &TransitionError{RequestID: request.ID, From: from, Event: event}
	}

	used := balance.UsedDays.Add(request.TotalDays.Mul(decimal.NewFromInt(int64(tr.used))))
	pending := balance.PendingDays.Add(request.TotalDays.Mul(decimal.NewFromInt(int64(tr.pending))))
	if err := s.UpdateBalanceCounters(ctx, balance.ID, used, pending); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	return s.AppendAudit(ctx, w.auditEntry(actorID, auditActionFor(event), request, map[string]string{
		"from": string(from),
		"to":   string(tr.to),
	}))
}

func auditActionFor(event Event) AuditAction {
	switch event {
	case EventApprove:
		return AuditRequestApproved
	case EventReject:
		return AuditRequestRejected
	case EventCancel:
		return AuditRequestCancelled
	default:
		return AuditRequestSubmitted
	}
}

func (w *Workflow) auditEntry(actorID UserID, action AuditAction, r *Request, payload map[string]string) AuditEntry {
	return AuditEntry{
		ID:         uuid.NewString(),
		At:         w.now().UTC(),
		ActorID:    actorID,
		Action:     action,
		RequestID:  r.ID,
		UserID:     r.UserID,
		CategoryID: r.CategoryID,
		Payload:    payload,
	}
}

/*
overlap.go - Conflict detection against existing requests

PURPOSE:
  Checks a candidate date range against a user's existing non-terminal
  requests. Two closed intervals conflict when they intersect:

    existing.start <= candidate.end AND existing.end >= candidate.start

  The check deliberately spans ALL categories: a pending sick request blocks
  a new annual request on the same dates for the same user. An employee is
  either out or not - the category doesn't change that.

SEE ALSO:
  - workflow.go: Runs this inside the submission transaction
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// OVERLAP VALIDATOR
// =============================================================================

// OverlapValidator finds conflicts between a candidate range and the user's
// pending/approved requests.
type OverlapValidator struct {
	store Store
}

func NewOverlapValidator(store Store) *OverlapValidator {
	return &OverlapValidator{store: store}
}

// Conflict returns the first existing pending or approved request whose
// closed date interval intersects [start, end], or nil if none does.
func (v *OverlapValidator) Conflict(ctx context.Context, userID UserID, start, end time.Time) (*Request, error) {
	existing, err := v.store.ListActiveRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	start = truncateDay(start)
	end = truncateDay(end)

	for i := range existing {
		r := &existing[i]
		if !truncateDay(r.StartDate).After(end) && !truncateDay(r.EndDate).Before(start) {
			return r, nil
		}
	}
	return nil, nil
}

// HasConflict is the boolean form of Conflict.
func (v *OverlapValidator) HasConflict(ctx context.Context, userID UserID, start, end time.Time) (bool, error) {
	r, err := v.Conflict(ctx, userID, start, end)
	if err != nil {
		return false, err
	}
	return r != nil, nil
}

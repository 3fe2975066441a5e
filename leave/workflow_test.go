/*
workflow_test.go - State machine and ledger consistency tests

Tests for:
- Submission validation (range, year boundary, category, balance)
- Day reservation and the balance invariant
- Approve / reject / cancel transitions and their ledger effects
- Overlap blocking across categories
- Auto-approval for categories that don't require it
- Audit trail
*/
package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestWorkflow(t *testing.T) (*leave.Workflow, *leave.BalanceLedger, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.SaveCategory(ctx, leave.Category{
		ID:               "vacation",
		Name:             "Vacation",
		DefaultAllotment: decimal.NewFromInt(20),
		RequiresApproval: true,
	}))
	require.NoError(t, store.SaveCategory(ctx, leave.Category{
		ID:               "sick",
		Name:             "Sick Leave",
		DefaultAllotment: decimal.NewFromInt(10),
		RequiresApproval: false,
	}))

	ledger := leave.NewBalanceLedger(store, nil)
	_, err = ledger.Initialize(ctx, "emp-1", 2026)
	require.NoError(t, err)
	_, err = ledger.Initialize(ctx, "emp-2", 2026)
	require.NoError(t, err)

	return leave.NewWorkflow(store, nil), ledger, store
}

func getBalance(t *testing.T, store *sqlite.Store, userID leave.UserID, categoryID leave.CategoryID) *leave.Balance {
	t.Helper()
	b, err := store.GetBalance(context.Background(), userID, categoryID, 2026)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

// 2026-03-02 is a Monday.
func date(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmit_ReservesPendingDays(t *testing.T) {
	// GIVEN: A fresh vacation balance of 20 days
	// WHEN: Submitting Mon-Fri (5 weekdays)
	// THEN: Request is pending and 5 days move to the pending counter

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "spring break")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, "5", req.TotalDays.String())
	assert.Nil(t, req.ApproverID)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "5", b.PendingDays.String())
	assert.Equal(t, "0", b.UsedDays.String())
	assert.Equal(t, "15", b.Available().String())
	assert.True(t, b.CheckInvariant())
}

func TestSubmit_WeekendsNotChargeable(t *testing.T) {
	// GIVEN: A range spanning a weekend (Fri 6th to Mon 9th)
	// WHEN: Submitting
	// THEN: Only Friday and Monday are charged

	wf, _, _ := newTestWorkflow(t)

	req, err := wf.Submit(context.Background(), "emp-1", "vacation", date(6), date(9), "")
	require.NoError(t, err)
	assert.Equal(t, "2", req.TotalDays.String())
}

func TestSubmit_StartAfterEnd_Rejected(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)

	_, err := wf.Submit(context.Background(), "emp-1", "vacation", date(10), date(5), "")
	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}

func TestSubmit_CrossYear_Rejected(t *testing.T) {
	// GIVEN: A range from late December into January
	// THEN: Rejected; each request charges exactly one year's balance

	wf, _, _ := newTestWorkflow(t)

	start := time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, time.January, 4, 0, 0, 0, 0, time.UTC)
	_, err := wf.Submit(context.Background(), "emp-1", "vacation", start, end, "")
	assert.ErrorIs(t, err, leave.ErrCrossYearRequest)
}

func TestSubmit_UnknownCategory_Rejected(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)

	_, err := wf.Submit(context.Background(), "emp-1", "sabbatical", date(2), date(3), "")
	assert.ErrorIs(t, err, leave.ErrCategoryNotFound)
}

func TestSubmit_NoBalanceRow_Rejected(t *testing.T) {
	// GIVEN: A user whose balances were never initialized
	wf, _, _ := newTestWorkflow(t)

	_, err := wf.Submit(context.Background(), "emp-uninitialized", "vacation", date(2), date(3), "")
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestSubmit_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: A sick balance of 10 days
	// WHEN: Requesting 15 weekdays (Mar 2 to Mar 20)
	// THEN: Rejected with the shortfall figures, balance untouched

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.Submit(ctx, "emp-1", "sick", date(2), date(20), "")
	require.Error(t, err)

	var ib *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, "10", ib.Available.String())
	assert.Equal(t, "15", ib.Requested.String())

	b := getBalance(t, store, "emp-1", "sick")
	assert.Equal(t, "0", b.PendingDays.String())
	assert.Equal(t, "0", b.UsedDays.String())
}

func TestSubmit_PendingCountsAgainstAvailability(t *testing.T) {
	// GIVEN: 18 of 20 vacation days already reserved
	// WHEN: Requesting 3 more weekdays
	// THEN: Rejected even though nothing is approved yet

	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	// Mar 2 to Mar 25: 18 weekdays
	_, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(25), "")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "emp-1", "vacation", date(30), time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

// =============================================================================
// OVERLAP BLOCKING
// =============================================================================

func TestSubmit_Overlap_SameCategory_Rejected(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	first, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "emp-1", "vacation", date(4), date(10), "")
	require.Error(t, err)

	var oe *leave.OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, first.ID, oe.ConflictID)
}

func TestSubmit_Overlap_CrossCategory_Rejected(t *testing.T) {
	// GIVEN: A pending vacation request for Mar 2-6
	// WHEN: Submitting a sick request touching Mar 6
	// THEN: Rejected - a person can't be on two kinds of leave at once

	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "emp-1", "sick", date(6), date(9), "")
	assert.ErrorIs(t, err, leave.ErrOverlappingRequest)
}

func TestSubmit_Overlap_OtherUser_Allowed(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	_, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "emp-2", "vacation", date(2), date(6), "")
	assert.NoError(t, err)
}

func TestSubmit_AfterCancellation_RangeFreed(t *testing.T) {
	// GIVEN: A cancelled request for Mar 2-6
	// WHEN: Submitting the same range again
	// THEN: Accepted - cancelled and rejected requests don't block

	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	first, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Cancel(ctx, first.ID, "emp-1")
	require.NoError(t, err)

	_, err = wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	assert.NoError(t, err)
}

// =============================================================================
// AUTO-APPROVAL
// =============================================================================

func TestSubmit_AutoApprove_NoApprovalRequired(t *testing.T) {
	// GIVEN: The sick category doesn't require approval
	// WHEN: Submitting a sick request
	// THEN: It comes back approved by "system" with days already consumed

	wf, _, store := newTestWorkflow(t)

	req, err := wf.Submit(context.Background(), "emp-1", "sick", date(2), date(3), "flu")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, req.Status)
	require.NotNil(t, req.ApproverID)
	assert.Equal(t, leave.SystemActor, *req.ApproverID)
	require.NotNil(t, req.ApprovedAt)

	b := getBalance(t, store, "emp-1", "sick")
	assert.Equal(t, "2", b.UsedDays.String())
	assert.Equal(t, "0", b.PendingDays.String())
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

func TestSubmit_HolidayNotChargeable(t *testing.T) {
	// GIVEN: Wednesday Mar 4 is a company holiday
	// WHEN: Submitting Mon-Fri
	// THEN: Only 4 days are charged

	wf, _, _ := newTestWorkflow(t)
	wf.WithCalendar(leave.NewStaticCalendar([]leave.Holiday{
		{ID: "h1", Date: date(4), Name: "Founders Day"},
	}))

	req, err := wf.Submit(context.Background(), "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	assert.Equal(t, "4", req.TotalDays.String())
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestApprove_MovesPendingToUsed(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	approved, err := wf.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, leave.UserID("mgr-1"), *approved.ApproverID)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "5", b.UsedDays.String())
	assert.Equal(t, "0", b.PendingDays.String())
	assert.Equal(t, "15", b.Available().String())
}

func TestReject_ReleasesPendingDays(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	rejected, err := wf.Reject(ctx, req.ID, "mgr-1", "coverage conflict")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "coverage conflict", *rejected.RejectionReason)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "0", b.PendingDays.String())
	assert.Equal(t, "0", b.UsedDays.String())
	assert.Equal(t, "20", b.Available().String())
}

func TestReject_EmptyReason_Defaulted(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(3), "")
	require.NoError(t, err)

	rejected, err := wf.Reject(ctx, req.ID, "mgr-1", "")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.NotEmpty(t, *rejected.RejectionReason)
}

func TestCancel_Pending_ReleasesPending(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	cancelled, err := wf.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "0", b.PendingDays.String())
}

func TestCancel_Approved_ReleasesUsed(t *testing.T) {
	// GIVEN: An approved request consuming 5 days
	// WHEN: The owner cancels it
	// THEN: The 5 days return to available, not to pending

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	cancelled, err := wf.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "0", b.UsedDays.String())
	assert.Equal(t, "0", b.PendingDays.String())
	assert.Equal(t, "20", b.Available().String())
}

func TestCancel_ByNonOwner_Forbidden(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	_, err = wf.Cancel(ctx, req.ID, "emp-2")
	assert.ErrorIs(t, err, leave.ErrForbidden)

	// Request and ledger untouched
	stored, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "5", b.PendingDays.String())
}

func TestApprove_AlreadyApproved_Rejected(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	_, err = wf.Approve(ctx, req.ID, "mgr-2")
	require.Error(t, err)

	var te *leave.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, leave.StatusApproved, te.From)
	assert.Equal(t, leave.EventApprove, te.Event)

	// The double approval must not double-count days
	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "5", b.UsedDays.String())
	assert.Equal(t, "0", b.PendingDays.String())
}

func TestCancel_Rejected_InvalidTransition(t *testing.T) {
	// Rejected is terminal: no event leaves it

	wf, _, _ := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Reject(ctx, req.ID, "mgr-1", "")
	require.NoError(t, err)

	_, err = wf.Cancel(ctx, req.ID, "emp-1")
	assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)
}

func TestApprove_UnknownRequest_NotFound(t *testing.T) {
	wf, _, _ := newTestWorkflow(t)

	_, err := wf.Approve(context.Background(), "no-such-request", "mgr-1")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// ROUND TRIPS
// =============================================================================

func TestSubmitApproveCancel_RoundTrip_BalanceRestored(t *testing.T) {
	// The full lifecycle must leave the ledger exactly where it started.

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	before := getBalance(t, store, "emp-1", "vacation")

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)
	_, err = wf.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)

	after := getBalance(t, store, "emp-1", "vacation")
	assert.True(t, before.TotalDays.Equal(after.TotalDays))
	assert.True(t, before.UsedDays.Equal(after.UsedDays))
	assert.True(t, before.PendingDays.Equal(after.PendingDays))
	assert.True(t, after.CheckInvariant())
}

// =============================================================================
// AUDIT TRAIL
// =============================================================================

func TestAuditTrail_RecordsLifecycle(t *testing.T) {
	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)
	_, err = wf.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	entries, err := store.ListAudit(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	actors := make(map[leave.AuditAction]leave.UserID, 2)
	for _, e := range entries {
		actors[e.Action] = e.ActorID
	}
	assert.Equal(t, leave.UserID("emp-1"), actors[leave.AuditRequestSubmitted])
	assert.Equal(t, leave.UserID("mgr-1"), actors[leave.AuditRequestApproved])
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestConcurrentSubmit_NeverOverdraws(t *testing.T) {
	// GIVEN: A 20-day balance and many goroutines each requesting 5 days
	// THEN: At most 4 can succeed; the invariant holds afterwards

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	// Distinct non-overlapping weeks in March/April
	starts := []time.Time{
		date(2), date(9), date(16), date(23), date(30),
		time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC),
	}

	results := make(chan error, len(starts))
	for _, s := range starts {
		go func(start time.Time) {
			_, err := wf.Submit(ctx, "emp-1", "vacation", start, start.AddDate(0, 0, 4), "")
			results <- err
		}(s)
	}

	succeeded := 0
	for range starts {
		if err := <-results; err == nil {
			succeeded++
		} else if !errors.Is(err, leave.ErrInsufficientBalance) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 4, succeeded)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "20", b.PendingDays.String())
	assert.True(t, b.CheckInvariant())
}

func TestConcurrentTerminalTransitions_OneWinner(t *testing.T) {
	// GIVEN: A pending request
	// WHEN: Approve and reject race
	// THEN: Exactly one wins; the ledger reflects a single transition

	wf, _, store := newTestWorkflow(t)
	ctx := context.Background()

	req, err := wf.Submit(ctx, "emp-1", "vacation", date(2), date(6), "")
	require.NoError(t, err)

	results := make(chan error, 2)
	go func() {
		_, err := wf.Approve(ctx, req.ID, "mgr-1")
		results <- err
	}()
	go func() {
		_, err := wf.Reject(ctx, req.ID, "mgr-2", "no")
		results <- err
	}()

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	b := getBalance(t, store, "emp-1", "vacation")
	assert.Equal(t, "0", b.PendingDays.String())
	assert.True(t, b.CheckInvariant())

	stored, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Contains(t, []leave.RequestStatus{leave.StatusApproved, leave.StatusRejected}, stored.Status)
	if stored.Status == leave.StatusApproved {
		assert.Equal(t, "5", b.UsedDays.String())
	} else {
		assert.Equal(t, "0", b.UsedDays.String())
	}
}

package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

func seedRequest(t *testing.T, m *store.TxMemory, id string, status leave.RequestStatus, start, end time.Time) {
	t.Helper()
	require.NoError(t, m.InsertRequest(context.Background(), leave.Request{
		ID:         leave.RequestID(id),
		UserID:     "emp-1",
		CategoryID: "vacation",
		StartDate:  start,
		EndDate:    end,
		TotalDays:  decimal.NewFromInt(1),
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}))
}

func TestOverlap_ClosedIntervalBoundaries(t *testing.T) {
	// An existing request Mar 2-6; ranges sharing even one day conflict.

	m := store.NewTxMemory()
	seedRequest(t, m, "req-1", leave.StatusPending, date(2), date(6))
	v := leave.NewOverlapValidator(m)
	ctx := context.Background()

	cases := []struct {
		name       string
		start, end time.Time
		conflict   bool
	}{
		{"identical range", date(2), date(6), true},
		{"touching start boundary", date(1), date(2), true},
		{"touching end boundary", date(6), date(10), true},
		{"contained within", date(3), date(4), true},
		{"containing", date(1), date(10), true},
		{"ends day before", date(1), date(1), false},
		{"starts day after", date(7), date(10), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conflict, err := v.HasConflict(ctx, "emp-1", tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.conflict, conflict)
		})
	}
}

func TestOverlap_TerminalStatusesIgnored(t *testing.T) {
	m := store.NewTxMemory()
	seedRequest(t, m, "req-r", leave.StatusRejected, date(2), date(6))
	seedRequest(t, m, "req-c", leave.StatusCancelled, date(2), date(6))

	conflict, err := leave.NewOverlapValidator(m).HasConflict(context.Background(), "emp-1", date(2), date(6))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestOverlap_ApprovedBlocks(t *testing.T) {
	m := store.NewTxMemory()
	seedRequest(t, m, "req-a", leave.StatusApproved, date(2), date(6))

	got, err := leave.NewOverlapValidator(m).Conflict(context.Background(), "emp-1", date(4), date(9))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, leave.RequestID("req-a"), got.ID)
}

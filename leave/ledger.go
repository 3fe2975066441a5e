/*
ledger.go - The leave balance ledger

PURPOSE:
  Owns the per-(user, category, year) balance rows: total/used/pending day
  counters. This file covers reads, lazy initialization, and administrative
  total overrides. All mutation of UsedDays/PendingDays happens exclusively
  in workflow.go - never here, never directly by callers.

INITIALIZATION:
  Balance rows are created lazily, one per category per user per year, with
  TotalDays defaulted from the category's allotment. Initialize is
  idempotent: existing rows are left untouched, so repeated calls are a
  no-op for already-initialized categories.

OVERRIDE GUARD:
  OverrideTotal rejects a new total below UsedDays+PendingDays. A ledger
  whose committed days exceed its allotment has no consistent reading, so
  the invariant is enforced at the door.

SEE ALSO:
  - workflow.go: The only mutator of used/pending counters
  - types.go:    Balance and its invariant
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

// =============================================================================
// BALANCE LEDGER
// =============================================================================

type BalanceLedger struct {
	store  TxStore
	logger *zap.Logger
	now    func() time.Time
}

func NewBalanceLedger(store TxStore, logger *zap.Logger) *BalanceLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceLedger{
		store:  store,
		logger: logger.Named("leave.ledger"),
		now:    time.Now,
	}
}

// BalanceView is a balance row joined with category display fields.
// Name and Color are for presentation only; no invariant depends on them.
type BalanceView struct {
	Balance
	CategoryName  string
	CategoryColor string
}

// Balances returns the user's balance rows for a year, joined with category
// name and color for display.
func (l *BalanceLedger) Balances(ctx context.Context, userID UserID, year int) ([]BalanceView, error) {
	balances, err := l.store.ListBalances(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	categories, err := l.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	byID := make(map[CategoryID]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	views := make([]BalanceView, len(balances))
	for i, b := range balances {
		views[i] = BalanceView{Balance: b}
		if c, ok := byID[b.CategoryID]; ok {
			views[i].CategoryName = c.Name
			views[i].CategoryColor = c.Color
		}
	}
	return views, nil
}

// Initialize creates a balance row for every category the user lacks one for
// in the given year, defaulting TotalDays from the category allotment.
// Idempotent: existing rows are never overwritten.
func (l *BalanceLedger) Initialize(ctx context.Context, userID UserID, year int) ([]Balance, error) {
	var result []Balance

	err := l.store.WithTx(ctx, func(s Store) error {
		categories, err := s.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}

		for _, c := range categories {
			existing, err := s.GetBalance(ctx, userID, c.ID, year)
			if err != nil {
				return fmt.Errorf("failed to load balance: %w", err)
			}
			if existing != nil {
				result = append(result, *existing)
				continue
			}

			now := l.now().UTC()
			b := Balance{
				ID:          BalanceID(uuid.NewString()),
				UserID:      userID,
				CategoryID:  c.ID,
				Year:        year,
				TotalDays:   c.DefaultAllotment,
				UsedDays:    decimal.Zero,
				PendingDays: decimal.Zero,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.InsertBalance(ctx, b); err != nil {
				return fmt.Errorf("failed to insert balance: %w", err)
			}
			result = append(result, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("balances initialized",
		zap.String("user_id", string(userID)),
		zap.Int("year", year),
		zap.Int("count", len(result)),
	)
	return result, nil
}

// OverrideTotal sets a balance's TotalDays to a new value. Rejects values
// that would leave the invariant violated (newTotal < used+pending).
func (l *BalanceLedger) OverrideTotal(ctx context.Context, actorID UserID, balanceID BalanceID, newTotal decimal.Decimal) (*Balance, error) {
	var updated *Balance

	err := l.store.WithTx(ctx, func(s Store) error {
		b, err := s.GetBalanceByID(ctx, balanceID)
		if err != nil {
			return fmt.Errorf("failed to load balance: %w", err)
		}
		if b == nil {
			return ErrBalanceNotFound
		}

		committed := b.UsedDays.Add(b.PendingDays)
		if newTotal.LessThan(committed) {
			return fmt.Errorf("%w: committed %s, new total %s",
				ErrTotalBelowCommitted, committed, newTotal)
		}

		if err := s.UpdateBalanceTotal(ctx, balanceID, newTotal); err != nil {
			return fmt.Errorf("failed to update total: %w", err)
		}

		if err := s.AppendAudit(ctx, AuditEntry{
			ID:         uuid.NewString(),
			At:         l.now().UTC(),
			ActorID:    actorID,
			Action:     AuditTotalOverridden,
			UserID:     b.UserID,
			CategoryID: b.CategoryID,
			Payload: map[string]string{
				"balance_id": string(balanceID),
				"old_total":  b.TotalDays.String(),
				"new_total":  newTotal.String(),
			},
		}); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}

		b.TotalDays = newTotal
		b.UpdatedAt = l.now().UTC()
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("balance total overridden",
		zap.String("balance_id", string(balanceID)),
		zap.String("actor_id", string(actorID)),
		zap.String("new_total", newTotal.String()),
	)
	return updated, nil
}

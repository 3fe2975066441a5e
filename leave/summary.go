/*
summary.go - Read-only aggregation over requests for dashboards

PURPOSE:
  Simple grouping of a year's requests by status and by category. Reads
  only; no invariant lives here.
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY REPORTER
// =============================================================================

type SummaryReporter struct {
	store Store
}

func NewSummaryReporter(store Store) *SummaryReporter {
	return &SummaryReporter{store: store}
}

// Summary aggregates one year of requests.
type Summary struct {
	Year       int
	Total      int
	ByStatus   map[RequestStatus]int
	ByCategory []CategorySummary
}

// CategorySummary groups a category's requests and approved day usage.
type CategorySummary struct {
	CategoryID   CategoryID
	CategoryName string
	Requests     int
	ApprovedDays decimal.Decimal
}

// Summarize groups the year's requests by status and category.
func (r *SummaryReporter) Summarize(ctx context.Context, year int) (*Summary, error) {
	requests, err := r.store.ListRequestsByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	names := make(map[CategoryID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	summary := &Summary{
		Year:     year,
		Total:    len(requests),
		ByStatus: make(map[RequestStatus]int),
	}

	byCategory := make(map[CategoryID]*CategorySummary)
	order := make([]CategoryID, 0)
	for _, req := range requests {
		summary.ByStatus[req.Status]++

		cs, ok := byCategory[req.CategoryID]
		if !ok {
			cs = &CategorySummary{
				CategoryID:   req.CategoryID,
				CategoryName: names[req.CategoryID],
				ApprovedDays: decimal.Zero,
			}
			byCategory[req.CategoryID] = cs
			order = append(order, req.CategoryID)
		}
		cs.Requests++
		if req.Status == StatusApproved {
			cs.ApprovedDays = cs.ApprovedDays.Add(req.TotalDays)
		}
	}

	for _, id := range order {
		summary.ByCategory = append(summary.ByCategory, *byCategory[id])
	}
	return summary, nil
}

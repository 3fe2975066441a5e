/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CategoryDTO represents a leave category in API responses.
type CategoryDTO struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DefaultAllotment float64 `json:"default_allotment"`
	RequiresApproval bool    `json:"requires_approval"`
	Color            string  `json:"color,omitempty"`
}

// SaveCategoryRequest is the request to create or update a category.
type SaveCategoryRequest struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DefaultAllotment float64 `json:"default_allotment"`
	RequiresApproval bool    `json:"requires_approval"`
	Color            string  `json:"color,omitempty"`
}

// BalanceDTO represents one balance ledger row.
type BalanceDTO struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name,omitempty"`
	CategoryColor string  `json:"category_color,omitempty"`
	Year          int     `json:"year"`
	TotalDays     float64 `json:"total_days"`
	UsedDays      float64 `json:"used_days"`
	PendingDays   float64 `json:"pending_days"`
	AvailableDays float64 `json:"available_days"`
}

// SubmitRequestDTO is the request body for submitting a leave request.
type SubmitRequestDTO struct {
	CategoryID string `json:"category_id"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`   // YYYY-MM-DD
	Reason     string `json:"reason,omitempty"`
}

// RejectRequestDTO is the request body for rejecting a leave request.
type RejectRequestDTO struct {
	Reason string `json:"reason,omitempty"`
}

// OverrideTotalRequest is the admin request to adjust a balance's allotment.
type OverrideTotalRequest struct {
	TotalDays float64 `json:"total_days"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	CategoryID      string  `json:"category_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       float64 `json:"total_days"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// SummaryDTO is the dashboard aggregation response.
type SummaryDTO struct {
	Year       int                  `json:"year"`
	Total      int                  `json:"total"`
	ByStatus   map[string]int       `json:"by_status"`
	ByCategory []CategorySummaryDTO `json:"by_category"`
}

type CategorySummaryDTO struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	Requests     int     `json:"requests"`
	ApprovedDays float64 `json:"approved_days"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toCategoryDTO(c leave.Category) CategoryDTO {
	allotment, _ := c.DefaultAllotment.Float64()
	return CategoryDTO{
		ID:               string(c.ID),
		Name:             c.Name,
		DefaultAllotment: allotment,
		RequiresApproval: c.RequiresApproval,
		Color:            c.Color,
	}
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	total, _ := b.TotalDays.Float64()
	used, _ := b.UsedDays.Float64()
	pending, _ := b.PendingDays.Float64()
	available, _ := b.Available().Float64()
	return BalanceDTO{
		ID:            string(b.ID),
		UserID:        string(b.UserID),
		CategoryID:    string(b.CategoryID),
		Year:          b.Year,
		TotalDays:     total,
		UsedDays:      used,
		PendingDays:   pending,
		AvailableDays: available,
	}
}

func toBalanceViewDTO(v leave.BalanceView) BalanceDTO {
	dto := toBalanceDTO(v.Balance)
	dto.CategoryName = v.CategoryName
	dto.CategoryColor = v.CategoryColor
	return dto
}

func toRequestDTO(r leave.Request) RequestDTO {
	total, _ := r.TotalDays.Float64()
	dto := RequestDTO{
		ID:         string(r.ID),
		UserID:     string(r.UserID),
		CategoryID: string(r.CategoryID),
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		TotalDays:  total,
		Reason:     r.Reason,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.ApproverID != nil {
		id := string(*r.ApproverID)
		dto.ApproverID = &id
	}
	if r.ApprovedAt != nil {
		at := r.ApprovedAt.Format(time.RFC3339)
		dto.ApprovedAt = &at
	}
	dto.RejectionReason = r.RejectionReason
	return dto
}

func toRequestDTOs(rs []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(rs))
	for i, r := range rs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

/*
handlers.go - HTTP API handlers for the leave management core

PURPOSE:
  Exposes the leave ledger and request workflow via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Users:
    GET  /api/users/{id}/balances?year=       Balance overview
    POST /api/users/{id}/balances/initialize  Lazy balance creation
    GET  /api/users/{id}/requests             Request history
    POST /api/users/{id}/requests             Submit a leave request

  Requests:
    GET  /api/requests/pending                Admin approval queue
    POST /api/requests/{id}/approve
    POST /api/requests/{id}/reject
    POST /api/requests/{id}/cancel

  Admin:
    PUT  /api/admin/balances/{id}/total       Override an allotment

  Categories:
    GET  /api/categories
    POST /api/categories

  Reporting:
    GET  /api/summary?year=

IDENTITY:
  Identity and role checks live upstream. The acting user arrives in the
  X-User-ID header; this layer only threads it through to the workflow,
  which enforces ownership on cancel.

ERROR HANDLING:
  Business errors map to HTTP statuses:
  - 400: invalid range, cross-year, insufficient balance, invalid transition
  - 403: cancelling someone else's request
  - 404: missing request/balance/category
  - 409: overlapping request
  - 500: infrastructure failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    leave.TxStore
	Workflow *leave.Workflow
	Ledger   *leave.BalanceLedger
	Reporter *leave.SummaryReporter
}

// NewHandler creates a new handler wired to the given store.
func NewHandler(store leave.TxStore, workflow *leave.Workflow, ledger *leave.BalanceLedger) *Handler {
	return &Handler{
		Store:    store,
		Workflow: workflow,
		Ledger:   ledger,
		Reporter: leave.NewSummaryReporter(store),
	}
}

// actorID extracts the authenticated user from the identity collaborator's
// header. Empty when unauthenticated; handlers that need an actor reject that.
func actorID(r *http.Request) leave.UserID {
	return leave.UserID(r.Header.Get("X-User-ID"))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalances returns a user's balance rows for a year.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "id"))
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	views, err := h.Ledger.Balances(r.Context(), userID, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]BalanceDTO, len(views))
	for i, v := range views {
		dtos[i] = toBalanceViewDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// InitializeBalances lazily creates the user's balance rows for a year.
func (h *Handler) InitializeBalances(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "id"))
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	balances, err := h.Ledger.Initialize(r.Context(), userID, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// OverrideTotal adjusts a balance's allotment (admin).
func (h *Handler) OverrideTotal(w http.ResponseWriter, r *http.Request) {
	balanceID := leave.BalanceID(chi.URLParam(r, "id"))

	var req OverrideTotalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	balance, err := h.Ledger.OverrideTotal(r.Context(), actorID(r), balanceID,
		decimal.NewFromFloat(req.TotalDays))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceDTO(*balance))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a leave request for a user.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "id"))

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	request, err := h.Workflow.Submit(r.Context(), userID,
		leave.CategoryID(req.CategoryID), start, end, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(*request))
}

// ListUserRequests returns a user's request history.
func (h *Handler) ListUserRequests(w http.ResponseWriter, r *http.Request) {
	userID := leave.UserID(chi.URLParam(r, "id"))

	requests, err := h.Store.ListRequestsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ListPendingRequests returns the admin approval queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.ListRequestsByStatus(r.Context(), leave.StatusPending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestID := leave.RequestID(chi.URLParam(r, "id"))
	approver := actorID(r)
	if approver == "" {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	request, err := h.Workflow.Approve(r.Context(), requestID, approver)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID := leave.RequestID(chi.URLParam(r, "id"))
	approver := actorID(r)
	if approver == "" {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req RejectRequestDTO
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body is fine; reason defaults
	}

	request, err := h.Workflow.Reject(r.Context(), requestID, approver, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

// CancelRequest cancels a pending or approved request. Owner only.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	requestID := leave.RequestID(chi.URLParam(r, "id"))
	caller := actorID(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	request, err := h.Workflow.Cancel(r.Context(), requestID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*request))
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns the leave category catalog.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveCategory creates or updates a category (admin).
func (h *Handler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var req SaveCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	c := leave.Category{
		ID:               leave.CategoryID(req.ID),
		Name:             req.Name,
		DefaultAllotment: decimal.NewFromFloat(req.DefaultAllotment),
		RequiresApproval: req.RequiresApproval,
		Color:            req.Color,
	}
	if err := h.Store.SaveCategory(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save category", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

// =============================================================================
// SUMMARY HANDLER
// =============================================================================

// GetSummary returns the dashboard aggregation for a year.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}

	summary, err := h.Reporter.Summarize(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize", err)
		return
	}

	dto := SummaryDTO{
		Year:     summary.Year,
		Total:    summary.Total,
		ByStatus: make(map[string]int, len(summary.ByStatus)),
	}
	for status, n := range summary.ByStatus {
		dto.ByStatus[string(status)] = n
	}
	for _, cs := range summary.ByCategory {
		days, _ := cs.ApprovedDays.Float64()
		dto.ByCategory = append(dto.ByCategory, CategorySummaryDTO{
			CategoryID:   string(cs.CategoryID),
			CategoryName: cs.CategoryName,
			Requests:     cs.Requests,
			ApprovedDays: days,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return time.Now().UTC().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

// writeDomainError maps business errors to HTTP statuses. Anything outside
// the known taxonomy is an infrastructure failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leave.ErrOverlappingRequest):
		writeCodedError(w, http.StatusConflict, "overlapping_request", err)
	case errors.Is(err, leave.ErrInsufficientBalance):
		writeCodedError(w, http.StatusBadRequest, "insufficient_balance", err)
	case errors.Is(err, leave.ErrInvalidRange):
		writeCodedError(w, http.StatusBadRequest, "invalid_range", err)
	case errors.Is(err, leave.ErrCrossYearRequest):
		writeCodedError(w, http.StatusBadRequest, "cross_year_request", err)
	case errors.Is(err, leave.ErrInvalidStateTransition):
		writeCodedError(w, http.StatusBadRequest, "invalid_state_transition", err)
	case errors.Is(err, leave.ErrTotalBelowCommitted):
		writeCodedError(w, http.StatusBadRequest, "total_below_committed", err)
	case errors.Is(err, leave.ErrForbidden):
		writeCodedError(w, http.StatusForbidden, "forbidden", err)
	case leave.IsNotFound(err):
		writeCodedError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeCodedError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

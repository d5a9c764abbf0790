package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/expenses/internal/middleware"
	"github.com/forgo/expenses/internal/model"
)

// ExpenseService is the subset of service.ExpenseService the handlers call
type ExpenseService interface {
	Create(ctx context.Context, req *model.CreateExpenseRequest) (*model.Expense, error)
	List(ctx context.Context, search string) ([]*model.Expense, error)
	Get(ctx context.Context, id string) (*model.Expense, error)
	Update(ctx context.Context, id string, req *model.UpdateExpenseRequest) (*model.Expense, error)
	Delete(ctx context.Context, id string) (*model.Expense, error)
	Balance(ctx context.Context) (*model.Balance, error)
	ListByStatus(ctx context.Context, status bool) ([]*model.Expense, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Expense, error)
}

// ExpenseHandler handles expense HTTP requests
type ExpenseHandler struct {
	expenseService ExpenseService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenseService ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// RegisterRoutes registers expense routes. The literal status and
// date-range paths take precedence over {id}.
func (h *ExpenseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /expenses", h.Create)
	mux.HandleFunc("GET /expenses", h.List)
	mux.HandleFunc("GET /expenses/status/{status}", h.ListByStatus)
	mux.HandleFunc("GET /expenses/date-range", h.ListByDateRange)
	mux.HandleFunc("GET /expenses/{id}", h.Get)
	mux.HandleFunc("PUT /expenses/{id}", h.Update)
	mux.HandleFunc("DELETE /expenses/{id}", h.Delete)
	mux.HandleFunc("GET /balance", h.Balance)
}

// Create handles POST /expenses - record a new expense
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateExpenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	expense, err := h.expenseService.Create(r.Context(), &req)
	if err != nil {
		h.handleError(w, r, err, "create expense")
		return
	}

	WriteJSON(w, http.StatusOK, expense)
}

// List handles GET /expenses - all expenses, optionally narrowed by ?search=
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.expenseService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.handleError(w, r, err, "list expenses")
		return
	}

	WriteJSON(w, http.StatusOK, expenses)
}

// Get handles GET /expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenseService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleError(w, r, err, "get expense")
		return
	}

	WriteJSON(w, http.StatusOK, expense)
}

// Update handles PUT /expenses/{id} - merge the supplied fields
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateExpenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	expense, err := h.expenseService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		h.handleError(w, r, err, "update expense")
		return
	}

	WriteJSON(w, http.StatusOK, expense)
}

// Delete handles DELETE /expenses/{id} - responds with the removed record
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	expense, err := h.expenseService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleError(w, r, err, "delete expense")
		return
	}

	WriteJSON(w, http.StatusOK, expense)
}

// Balance handles GET /balance
func (h *ExpenseHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.expenseService.Balance(r.Context())
	if err != nil {
		h.handleError(w, r, err, "compute balance")
		return
	}

	WriteJSON(w, http.StatusOK, balance)
}

// ListByStatus handles GET /expenses/status/{status}. Only the literal
// segment "true" selects completed expenses; anything else selects open ones.
func (h *ExpenseHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.PathValue("status") == "true"

	expenses, err := h.expenseService.ListByStatus(r.Context(), status)
	if err != nil {
		h.handleError(w, r, err, "list expenses by status")
		return
	}

	WriteJSON(w, http.StatusOK, expenses)
}

// ListByDateRange handles GET /expenses/date-range?start=&end=
func (h *ExpenseHandler) ListByDateRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, ok := parseRangeParam(w, query.Get("start"), "start")
	if !ok {
		return
	}
	end, ok := parseRangeParam(w, query.Get("end"), "end")
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListByDateRange(r.Context(), start, end)
	if err != nil {
		h.handleError(w, r, err, "list expenses by date range")
		return
	}

	WriteJSON(w, http.StatusOK, expenses)
}

// handleError maps service errors to HTTP responses, logging the ones the
// client cannot act on.
func (h *ExpenseHandler) handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	WriteError(w, pd)
}

var rangeLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// parseRangeParam accepts RFC 3339 timestamps or bare dates (midnight UTC).
// It writes a 400 and returns false when value is missing or unparseable.
func parseRangeParam(w http.ResponseWriter, value, name string) (time.Time, bool) {
	if value == "" {
		WriteError(w, model.NewBadRequestError(name+" query parameter is required"))
		return time.Time{}, false
	}
	for _, layout := range rangeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	WriteError(w, model.NewBadRequestError(name+" must be an RFC 3339 timestamp or YYYY-MM-DD date"))
	return time.Time{}, false
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/forgo/expenses/internal/middleware"
	"github.com/forgo/expenses/internal/model"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness checks
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Warn("health check failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		WriteError(w, model.NewServiceUnavailableError("store unreachable"))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is implemented by both stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  Pinger
	logger *slog.Logger
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// HandleHealth: GET /healthz. 200 when the store answers a ping within two
// seconds, 503 otherwise.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, Envelope{Message: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ok"})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns service readiness information.
type HealthHandler struct {
	startedAt time.Time
	db        Pinger
	logger    *zap.Logger
}

// NewHealthHandler creates a health handler. db may be nil when the service
// runs without a database.
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		startedAt: time.Now(),
		db:        db,
		logger:    logger,
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_seconds"`
}

// Check responds with a basic health payload.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UptimeSec: int64(time.Since(h.startedAt).Seconds()),
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("database ping failed", zap.Error(err))
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	middleware.WriteJSON(w, status, resp, h.logger)
}

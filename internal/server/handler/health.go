package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports reachability of a backing component.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint, reporting overall liveness
// plus the reachability of the cache backend.
type HealthHandler struct {
	cache  Pinger // nil when Redis is disabled
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. cache may be nil when the
// deployment runs without Redis.
func NewHealthHandler(cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: cache, logger: logger}
}

// HealthCheck responds with the service status and per-component health. The
// service reports degraded, not down, when the cache is unreachable: every
// read path falls back to the upstream providers.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	cacheStatus := "disabled"

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "health: cache unreachable",
				slog.String("error", err.Error()),
			)
			status = "degraded"
			cacheStatus = "unavailable"
		} else {
			cacheStatus = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"components": map[string]string{
			"cache": cacheStatus,
		},
	})
}

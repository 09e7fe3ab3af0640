package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves runtime metadata for the dashboard UI.
type StatusHandler struct {
	Mode             string
	StartedAt        time.Time
	SupportedChains  []int
	DefaultNetwork   string
	DashboardRunning bool
}

// NewStatusHandler creates a StatusHandler with the given runtime metadata.
func NewStatusHandler(mode, defaultNetwork string, supportedChains []int, dashboardRunning bool) *StatusHandler {
	return &StatusHandler{
		Mode:             mode,
		StartedAt:        time.Now().UTC(),
		SupportedChains:  supportedChains,
		DefaultNetwork:   defaultNetwork,
		DashboardRunning: dashboardRunning,
	}
}

// GetStatus responds with the current run mode and supported chains.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":              h.Mode,
		"started_at":        h.StartedAt.Format(time.RFC3339),
		"uptime_seconds":    int(time.Since(h.StartedAt).Seconds()),
		"supported_chains":  h.SupportedChains,
		"default_network":   h.DefaultNetwork,
		"dashboard_running": h.DashboardRunning,
	})
}

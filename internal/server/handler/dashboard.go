package handler

import (
	"log/slog"
	"net/http"

	"github.com/mtarnawa/dexpulse/internal/dashboard"
)

// SnapshotSource provides the current dashboard state.
type SnapshotSource interface {
	Snapshot() dashboard.Snapshot
}

// DashboardHandler serves the polled dashboard state.
type DashboardHandler struct {
	source SnapshotSource
	logger *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler reading from the given
// source.
func NewDashboardHandler(source SnapshotSource, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{source: source, logger: logger}
}

// GetSnapshot returns the current dashboard snapshot.
// GET /api/dashboard
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, "dashboard not running in this mode")
		return
	}
	writeJSON(w, http.StatusOK, h.source.Snapshot())
}

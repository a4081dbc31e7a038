package handlers

import (
	"log/slog"
	"net/http"
)

// HealthResponse reports overall service health and per-dependency checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health pings Postgres and Redis and reports degraded when either fails.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]string)
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("Health check failed for database", "error", err)
		checks["database"] = err.Error()
		healthy = false
	}
	if err := h.cache.Ping(ctx); err != nil {
		slog.Warn("Health check failed for cache", "error", err)
		checks["cache"] = err.Error()
		healthy = false
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Checks: checks,
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

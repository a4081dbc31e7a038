package handlers

import (
	"log/slog"
	"net/http"

	"alert-service/internal/lifecycle"
	"alert-service/internal/metrics"
)

// ServiceMetricsResponse wraps per-service metrics snapshots.
type ServiceMetricsResponse struct {
	Services map[string]*metrics.ServiceMetrics `json:"services"`
}

// GetServiceMetrics returns runtime metrics reported by service instances.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Get specific service if requested
	serviceName := r.URL.Query().Get("service")
	if serviceName != "" {
		serviceMetrics, err := h.metrics.GetServiceMetrics(ctx, serviceName)
		if err != nil {
			slog.Warn("Failed to get service metrics", "service", serviceName, "error", err)
			// Return empty metrics with offline status instead of an error
			serviceMetrics = &metrics.ServiceMetrics{
				ServiceName: serviceName,
				Status:      "offline",
			}
		}
		writeJSON(w, http.StatusOK, serviceMetrics)
		return
	}

	allMetrics, err := h.metrics.GetAllServiceMetrics(ctx)
	if err != nil {
		slog.Error("Failed to get all service metrics", "error", err)
		writeError(w, http.StatusServiceUnavailable, lifecycle.CodeConnectivity, "failed to retrieve service metrics")
		return
	}

	writeJSON(w, http.StatusOK, ServiceMetricsResponse{Services: allMetrics})
}

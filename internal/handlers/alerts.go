package handlers

import (
	"log/slog"
	"net/http"

	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
)

// ActiveAlertsResponse lists currently open alerts.
type ActiveAlertsResponse struct {
	Alerts []*database.Alert `json:"alerts"`
	Count  int               `json:"count"`
}

// AlertHistoryResponse lists resolved alerts for one region.
type AlertHistoryResponse struct {
	Alerts []*database.Alert `json:"alerts"`
	Count  int               `json:"count"`
	Region string            `json:"region"`
	Hours  int               `json:"hours"`
}

// AcknowledgeRequest represents a request to acknowledge an alert.
type AcknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
	Notes          string `json:"notes"`
}

// ResolveRequest represents a request to resolve an alert.
type ResolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Resolution string `json:"resolution"`
}

// BulkResolveRequest represents a request to resolve a batch of alerts.
type BulkResolveRequest struct {
	AlertIDs   []string `json:"alert_ids"`
	ResolvedBy string   `json:"resolved_by"`
	Resolution string   `json:"resolution"`
}

// BulkResolveResponse lists the alerts the bulk call actually resolved.
type BulkResolveResponse struct {
	Resolved []*database.Alert `json:"resolved"`
	Count    int               `json:"count"`
}

// AutoResolveResponse reports how many stale alerts were auto-resolved.
type AutoResolveResponse struct {
	ResolvedCount int `json:"resolved_count"`
	CutoffHours   int `json:"cutoff_hours"`
}

// ListAlerts returns a paginated alert list filtered by the query parameters.
// GET /api/v1/alerts
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	f, err := parseAlertFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, err.Error())
		return
	}
	p := parsePagination(r)
	f.Limit = p.Limit
	f.Offset = p.Offset

	ctx := r.Context()
	alerts, total, err := h.manager.GetAlerts(ctx, f)
	if err != nil {
		slog.Error("Failed to list alerts", "error", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, database.AlertListResult{
		Alerts: nonNilAlerts(alerts),
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

// GetAlert retrieves a single alert by id.
// GET /api/v1/alerts/{id}
func (h *Handlers) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx := r.Context()
	alert, err := h.manager.GetAlert(ctx, id)
	if err != nil {
		slog.Error("Failed to get alert", "error", err, "alert_id", id)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// GetActiveAlerts returns alerts that are still open, optionally scoped to a
// region.
// GET /api/v1/alerts/active
func (h *Handlers) GetActiveAlerts(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	ctx := r.Context()
	alerts, err := h.manager.GetActiveAlerts(ctx, region)
	if err != nil {
		slog.Error("Failed to list active alerts", "error", err, "region", region)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ActiveAlertsResponse{
		Alerts: nonNilAlerts(alerts),
		Count:  len(alerts),
	})
}

// GetAlertHistory returns resolved alerts for a region within a lookback
// window (default 24 hours).
// GET /api/v1/alerts/history/{region}
func (h *Handlers) GetAlertHistory(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	hours, err := parseHours(r, 24)
	if err != nil {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, err.Error())
		return
	}
	severity := r.URL.Query().Get("severity")

	ctx := r.Context()
	alerts, err := h.manager.GetAlertHistory(ctx, region, hours, severity)
	if err != nil {
		slog.Error("Failed to get alert history", "error", err, "region", region)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AlertHistoryResponse{
		Alerts: nonNilAlerts(alerts),
		Count:  len(alerts),
		Region: region,
		Hours:  hours,
	})
}

// GetAlertStats returns aggregate counts over the alerts table, optionally
// scoped to a region.
// GET /api/v1/alerts/stats
func (h *Handlers) GetAlertStats(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	ctx := r.Context()
	stats, err := h.manager.GetStatistics(ctx, region)
	if err != nil {
		slog.Error("Failed to get alert statistics", "error", err, "region", region)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// AcknowledgeAlert marks an alert as acknowledged by an operator.
// POST /api/v1/alerts/{id}/acknowledge
func (h *Handlers) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req AcknowledgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	alert, err := h.manager.Acknowledge(ctx, id, lifecycle.AckInput{
		By:    req.AcknowledgedBy,
		Notes: req.Notes,
	})
	if err != nil {
		slog.Error("Failed to acknowledge alert", "error", err, "alert_id", id)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// ResolveAlert marks an alert as resolved.
// POST /api/v1/alerts/{id}/resolve
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	alert, err := h.manager.Resolve(ctx, id, lifecycle.ResolveInput{
		By:         req.ResolvedBy,
		Resolution: req.Resolution,
	})
	if err != nil {
		slog.Error("Failed to resolve alert", "error", err, "alert_id", id)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// BulkResolveAlerts resolves a batch of alerts in one call. Ids that are
// already resolved or unknown are silently omitted from the result.
// POST /api/v1/alerts/bulk-resolve
func (h *Handlers) BulkResolveAlerts(w http.ResponseWriter, r *http.Request) {
	var req BulkResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	alerts, err := h.manager.BulkResolve(ctx, req.AlertIDs, lifecycle.ResolveInput{
		By:         req.ResolvedBy,
		Resolution: req.Resolution,
	})
	if err != nil {
		slog.Error("Failed to bulk resolve alerts", "error", err, "requested", len(req.AlertIDs))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BulkResolveResponse{
		Resolved: nonNilAlerts(alerts),
		Count:    len(alerts),
	})
}

// AutoResolveAlerts resolves every active alert older than the cutoff
// (default 48 hours).
// POST /api/v1/alerts/auto-resolve
func (h *Handlers) AutoResolveAlerts(w http.ResponseWriter, r *http.Request) {
	hours, err := parseHours(r, 48)
	if err != nil {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, err.Error())
		return
	}

	ctx := r.Context()
	count, err := h.manager.AutoResolveOldAlerts(ctx, hours)
	if err != nil {
		slog.Error("Failed to auto-resolve alerts", "error", err, "cutoff_hours", hours)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AutoResolveResponse{
		ResolvedCount: count,
		CutoffHours:   hours,
	})
}

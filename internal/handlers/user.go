package handlers

import (
	"log/slog"
	"net/http"

	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
)

// meterIDHeader carries the caller's meter identity. There is no auth layer
// in front of this service; the gateway is expected to set the header.
const meterIDHeader = "X-Meter-ID"

// ListMyAlerts returns alerts scoped to the calling meter.
// GET /api/v1/my/alerts
func (h *Handlers) ListMyAlerts(w http.ResponseWriter, r *http.Request) {
	meterID := r.Header.Get(meterIDHeader)
	if meterID == "" {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, "X-Meter-ID header is required")
		return
	}

	f, err := parseAlertFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, err.Error())
		return
	}
	if f.MeterID != "" && f.MeterID != meterID {
		writeError(w, http.StatusForbidden, codeForbidden, "cannot access alerts for another meter")
		return
	}
	f.MeterID = meterID

	p := parsePagination(r)
	f.Limit = p.Limit
	f.Offset = p.Offset

	ctx := r.Context()
	alerts, total, err := h.manager.GetAlerts(ctx, f)
	if err != nil {
		slog.Error("Failed to list meter alerts", "error", err, "meter_id", meterID)
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

// GetMyAlert retrieves a single alert, verifying it belongs to the calling
// meter. Regional alerts carry no meter id and are never visible here.
// GET /api/v1/my/alerts/{id}
func (h *Handlers) GetMyAlert(w http.ResponseWriter, r *http.Request) {
	meterID := r.Header.Get(meterIDHeader)
	if meterID == "" {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, "X-Meter-ID header is required")
		return
	}

	id := r.PathValue("id")

	ctx := r.Context()
	alert, err := h.manager.GetAlert(ctx, id)
	if err != nil {
		slog.Error("Failed to get meter alert", "error", err, "alert_id", id, "meter_id", meterID)
		writeDomainError(w, err)
		return
	}

	if alert.MeterID != meterID {
		writeError(w, http.StatusForbidden, codeForbidden, "alert belongs to another meter")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/events"
	"alert-service/internal/metrics"

	"github.com/google/uuid"
)

// Source identifies this service in outbound status updates.
const Source = "alert-service"

// defaultHistoryHours is the lookback applied when a history query does not
// specify one.
const defaultHistoryHours = 24

// CreateAlertInput carries the caller-settable fields for a new alert.
// The manager assigns the id.
type CreateAlertInput struct {
	Type     string
	Severity string
	Region   string
	MeterID  string
	Message  string
	Metadata map[string]string
}

// AckInput carries the acknowledge parameters.
type AckInput struct {
	By    string
	Notes string
}

// ResolveInput carries the resolve parameters.
type ResolveInput struct {
	By         string
	Resolution string
}

// Manager coordinates the alert lifecycle across the store, the condition
// cache and the outbound topics. It is the sole writer of alert records; the
// evaluator and the HTTP handlers both go through it.
type Manager struct {
	store     AlertStore
	cache     ConditionCache
	publisher EventPublisher
	metrics   metrics.Recorder
	dedupTTL  time.Duration
}

// NewManager creates a lifecycle manager. A nil recorder disables metrics.
func NewManager(store AlertStore, cache ConditionCache, publisher EventPublisher, recorder metrics.Recorder, dedupTTL time.Duration) *Manager {
	if recorder == nil {
		recorder = &metrics.NoOp{}
	}
	return &Manager{
		store:     store,
		cache:     cache,
		publisher: publisher,
		metrics:   recorder,
		dedupTTL:  dedupTTL,
	}
}

// CreateAlert validates the input, claims the dedup marker and persists a new
// active alert. Returns DuplicateSuppressedError when a marker for the same
// identity is still live. A cache failure fails open: alerting must not stop
// because Redis is down, even at the cost of an occasional duplicate row.
func (m *Manager) CreateAlert(ctx context.Context, in CreateAlertInput) (*database.Alert, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	ok, err := m.cache.TrySetDedupMarker(ctx, in.Type, in.Region, in.MeterID, m.dedupTTL)
	if err != nil {
		slog.Warn("Dedup marker check failed, proceeding without suppression",
			"type", in.Type, "region", in.Region, "meter_id", in.MeterID, "error", err)
	} else if !ok {
		m.metrics.IncrementCustom("duplicates_suppressed")
		return nil, &DuplicateSuppressedError{Type: in.Type, Region: in.Region, MeterID: in.MeterID}
	}

	alert, err := m.store.CreateAlert(ctx, database.CreateAlertInput{
		ID:       uuid.New().String(),
		Type:     in.Type,
		Severity: in.Severity,
		Region:   in.Region,
		MeterID:  in.MeterID,
		Message:  in.Message,
		Metadata: in.Metadata,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "create alert", Err: err}
	}

	m.metrics.IncrementCustom("alerts_created")
	slog.Info("Alert created",
		"alert_id", alert.ID, "type", alert.Type, "severity", alert.Severity,
		"region", alert.Region, "meter_id", alert.MeterID)

	m.publishProcessed(ctx, alert)
	return alert, nil
}

// Acknowledge marks an active alert as acknowledged. Acknowledging an
// already-acknowledged or resolved alert returns the record unchanged with no
// side effects.
func (m *Manager) Acknowledge(ctx context.Context, id string, in AckInput) (*database.Alert, error) {
	if in.By == "" {
		return nil, &ValidationError{Message: "acknowledged_by is required"}
	}

	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Acknowledged || alert.Status == database.StatusResolved {
		return alert, nil
	}

	now := time.Now().UTC()
	status := database.StatusAcknowledged
	acked := true
	upd := database.AlertUpdate{
		Status:         &status,
		Acknowledged:   &acked,
		AcknowledgedBy: &in.By,
		AcknowledgedAt: &now,
	}
	if in.Notes != "" {
		upd.MergeMetadata = map[string]string{"ack_notes": in.Notes}
	}

	updated, err := m.updateAlert(ctx, id, upd, "acknowledge alert")
	if err != nil {
		return nil, err
	}

	m.metrics.IncrementCustom("alerts_acknowledged")
	slog.Info("Alert acknowledged", "alert_id", updated.ID, "acknowledged_by", in.By)

	m.clearMarker(ctx, updated)
	m.publishStatus(ctx, updated)
	return updated, nil
}

// Resolve marks an alert as resolved. Resolving a resolved alert returns the
// record unchanged with no side effects; acknowledgement is not a
// prerequisite.
func (m *Manager) Resolve(ctx context.Context, id string, in ResolveInput) (*database.Alert, error) {
	if in.By == "" {
		return nil, &ValidationError{Message: "resolved_by is required"}
	}

	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Status == database.StatusResolved {
		return alert, nil
	}

	now := time.Now().UTC()
	status := database.StatusResolved
	merge := map[string]string{"resolved_by": in.By}
	if in.Resolution != "" {
		merge["resolution"] = in.Resolution
	}
	upd := database.AlertUpdate{
		Status:        &status,
		ResolvedAt:    &now,
		MergeMetadata: merge,
	}

	updated, err := m.updateAlert(ctx, id, upd, "resolve alert")
	if err != nil {
		return nil, err
	}

	m.metrics.IncrementCustom("alerts_resolved")
	slog.Info("Alert resolved", "alert_id", updated.ID, "resolved_by", in.By)

	m.clearMarker(ctx, updated)
	m.publishStatus(ctx, updated)
	return updated, nil
}

// BulkResolve resolves every listed alert that is not already resolved in one
// store transaction, then clears markers and publishes a status update per
// row actually touched. The returned slice contains exactly those rows.
func (m *Manager) BulkResolve(ctx context.Context, ids []string, in ResolveInput) ([]*database.Alert, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "alert_ids cannot be empty"}
	}
	if in.By == "" {
		return nil, &ValidationError{Message: "resolved_by is required"}
	}

	resolved, err := m.store.BulkResolve(ctx, ids, in.By, time.Now().UTC(), in.Resolution)
	if err != nil {
		return nil, &PersistenceError{Op: "bulk resolve alerts", Err: err}
	}

	for _, alert := range resolved {
		m.metrics.IncrementCustom("alerts_resolved")
		m.clearMarker(ctx, alert)
		m.publishStatus(ctx, alert)
	}
	slog.Info("Alerts bulk resolved", "requested", len(ids), "resolved", len(resolved), "resolved_by", in.By)
	return resolved, nil
}

// AutoResolveOldAlerts resolves every active alert older than maxAgeHours,
// clearing markers and publishing a status update per row, and returns how
// many rows were touched. Acknowledged alerts are exempt: someone is looking
// at them.
func (m *Manager) AutoResolveOldAlerts(ctx context.Context, maxAgeHours int) (int, error) {
	if maxAgeHours <= 0 {
		return 0, &ValidationError{Message: "hours must be positive"}
	}

	now := time.Now().UTC()
	cutoff := now.Add(-time.Duration(maxAgeHours) * time.Hour)
	resolved, err := m.store.AutoResolveOlderThan(ctx, cutoff, now)
	if err != nil {
		return 0, &PersistenceError{Op: "auto-resolve alerts", Err: err}
	}

	for _, alert := range resolved {
		m.metrics.IncrementCustom("alerts_auto_resolved")
		m.clearMarker(ctx, alert)
		m.publishStatus(ctx, alert)
	}
	if len(resolved) > 0 {
		slog.Info("Stale alerts auto-resolved", "count", len(resolved), "max_age_hours", maxAgeHours)
	}
	return len(resolved), nil
}

// GetAlert returns a single alert by id.
func (m *Manager) GetAlert(ctx context.Context, id string) (*database.Alert, error) {
	return m.getAlert(ctx, id)
}

// GetAlerts returns alerts matching the filter plus the unpaginated total.
func (m *Manager) GetAlerts(ctx context.Context, f database.AlertFilter) ([]*database.Alert, int64, error) {
	alerts, total, err := m.store.ListAlerts(ctx, f)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list alerts", Err: err}
	}
	return alerts, total, nil
}

// GetActiveAlerts returns all active alerts, optionally scoped to a region.
func (m *Manager) GetActiveAlerts(ctx context.Context, region string) ([]*database.Alert, error) {
	alerts, _, err := m.store.ListAlerts(ctx, database.AlertFilter{
		Status: database.StatusActive,
		Region: region,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "list active alerts", Err: err}
	}
	return alerts, nil
}

// GetAlertHistory returns resolved alerts for a region over the lookback
// window, optionally filtered by severity. hours <= 0 applies the default.
func (m *Manager) GetAlertHistory(ctx context.Context, region string, hours int, severity string) ([]*database.Alert, error) {
	if hours <= 0 {
		hours = defaultHistoryHours
	}
	from := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	alerts, _, err := m.store.ListAlerts(ctx, database.AlertFilter{
		Status:   database.StatusResolved,
		Region:   region,
		Severity: severity,
		From:     &from,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "list alert history", Err: err}
	}
	return alerts, nil
}

// GetStatistics returns alert statistics, optionally scoped to a region.
func (m *Manager) GetStatistics(ctx context.Context, region string) (*database.AlertStats, error) {
	stats, err := m.store.Statistics(ctx, region)
	if err != nil {
		return nil, &PersistenceError{Op: "get alert statistics", Err: err}
	}
	return stats, nil
}

func validateCreate(in CreateAlertInput) error {
	if in.Type == "" {
		return &ValidationError{Message: "type is required"}
	}
	if in.Message == "" {
		return &ValidationError{Message: "message is required"}
	}
	if in.Severity == "" {
		return &ValidationError{Message: "severity is required"}
	}
	if !database.ValidSeverity(in.Severity) {
		return &ValidationError{Message: "severity must be one of: low, medium, high, critical"}
	}
	return nil
}

// getAlert fetches one alert and maps store errors to the domain taxonomy.
func (m *Manager) getAlert(ctx context.Context, id string) (*database.Alert, error) {
	alert, err := m.store.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &PersistenceError{Op: "get alert", Err: err}
	}
	return alert, nil
}

// updateAlert applies an update and maps store errors to the domain taxonomy.
func (m *Manager) updateAlert(ctx context.Context, id string, upd database.AlertUpdate, op string) (*database.Alert, error) {
	alert, err := m.store.UpdateAlert(ctx, id, upd)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return alert, nil
}

// clearMarker drops the active-condition marker covering the alert. Failures
// are logged and swallowed: a stale marker suppresses a future alert for the
// same condition, it never corrupts the store.
func (m *Manager) clearMarker(ctx context.Context, alert *database.Alert) {
	if err := m.cache.ClearActiveCondition(ctx, alert.Region, alert.Type, alert.MeterID); err != nil {
		slog.Warn("Failed to clear active condition marker",
			"alert_id", alert.ID, "type", alert.Type, "region", alert.Region, "error", err)
	}
}

// publishProcessed emits the full alert to the processed topic, best-effort.
func (m *Manager) publishProcessed(ctx context.Context, alert *database.Alert) {
	if err := m.publisher.PublishProcessedAlert(ctx, alert); err != nil {
		slog.Warn("Failed to publish processed alert", "alert_id", alert.ID, "error", err)
		return
	}
	m.metrics.RecordPublished()
}

// publishStatus emits a status update for a lifecycle transition, best-effort.
func (m *Manager) publishStatus(ctx context.Context, alert *database.Alert) {
	update := events.StatusUpdate{
		AlertID:   alert.ID,
		Status:    alert.Status,
		Timestamp: alert.UpdatedAt,
		Metadata:  alert.Metadata,
		Source:    Source,
	}
	if err := m.publisher.PublishStatusUpdate(ctx, update); err != nil {
		slog.Warn("Failed to publish status update",
			"alert_id", alert.ID, "status", alert.Status, "error", err)
		return
	}
	m.metrics.RecordPublished()
}

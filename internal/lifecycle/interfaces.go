// Package lifecycle implements the alert lifecycle manager: the single entry
// point for creating, acknowledging and resolving alerts.
package lifecycle

import (
	"context"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/events"
)

// AlertStore persists alert records. Implemented by database.DB.
type AlertStore interface {
	CreateAlert(ctx context.Context, in database.CreateAlertInput) (*database.Alert, error)
	GetAlert(ctx context.Context, id string) (*database.Alert, error)
	UpdateAlert(ctx context.Context, id string, upd database.AlertUpdate) (*database.Alert, error)
	ListAlerts(ctx context.Context, f database.AlertFilter) ([]*database.Alert, int64, error)
	BulkResolve(ctx context.Context, ids []string, resolvedBy string, resolvedAt time.Time, note string) ([]*database.Alert, error)
	AutoResolveOlderThan(ctx context.Context, cutoff, resolvedAt time.Time) ([]*database.Alert, error)
	Statistics(ctx context.Context, region string) (*database.AlertStats, error)
}

// ConditionCache holds the short-lived markers the manager consults and
// clears. Implemented by condcache.Cache.
type ConditionCache interface {
	TrySetDedupMarker(ctx context.Context, alertType, region, meterID string, ttl time.Duration) (bool, error)
	ClearActiveCondition(ctx context.Context, region, alertType, meterID string) error
}

// EventPublisher emits processed alerts and status updates to the outbound
// topics. Implemented by producer.Producer.
type EventPublisher interface {
	PublishProcessedAlert(ctx context.Context, alert *database.Alert) error
	PublishStatusUpdate(ctx context.Context, update events.StatusUpdate) error
}

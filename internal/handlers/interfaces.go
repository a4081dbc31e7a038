// Package handlers provides HTTP handlers for the alert-service API.
package handlers

import (
	"context"

	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
	"alert-service/internal/metrics"
)

// AlertManager is the slice of the lifecycle manager the HTTP surface needs.
// Implemented by lifecycle.Manager.
type AlertManager interface {
	GetAlert(ctx context.Context, id string) (*database.Alert, error)
	GetAlerts(ctx context.Context, f database.AlertFilter) ([]*database.Alert, int64, error)
	GetActiveAlerts(ctx context.Context, region string) ([]*database.Alert, error)
	GetAlertHistory(ctx context.Context, region string, hours int, severity string) ([]*database.Alert, error)
	GetStatistics(ctx context.Context, region string) (*database.AlertStats, error)
	Acknowledge(ctx context.Context, id string, in lifecycle.AckInput) (*database.Alert, error)
	Resolve(ctx context.Context, id string, in lifecycle.ResolveInput) (*database.Alert, error)
	BulkResolve(ctx context.Context, ids []string, in lifecycle.ResolveInput) ([]*database.Alert, error)
	AutoResolveOldAlerts(ctx context.Context, maxAgeHours int) (int, error)
}

// MetricsReader reads service metrics snapshots. Implemented by metrics.Reader.
type MetricsReader interface {
	GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

// Pinger reports reachability of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

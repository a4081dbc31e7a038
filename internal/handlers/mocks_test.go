// Package handlers provides test mocks for handler dependencies.
package handlers

import (
	"context"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
	"alert-service/internal/metrics"
)

// mockManager implements AlertManager for testing.
type mockManager struct {
	// Callbacks for each method (set these to control behavior)
	GetAlertFn             func(ctx context.Context, id string) (*database.Alert, error)
	GetAlertsFn            func(ctx context.Context, f database.AlertFilter) ([]*database.Alert, int64, error)
	GetActiveAlertsFn      func(ctx context.Context, region string) ([]*database.Alert, error)
	GetAlertHistoryFn      func(ctx context.Context, region string, hours int, severity string) ([]*database.Alert, error)
	GetStatisticsFn        func(ctx context.Context, region string) (*database.AlertStats, error)
	AcknowledgeFn          func(ctx context.Context, id string, in lifecycle.AckInput) (*database.Alert, error)
	ResolveFn              func(ctx context.Context, id string, in lifecycle.ResolveInput) (*database.Alert, error)
	BulkResolveFn          func(ctx context.Context, ids []string, in lifecycle.ResolveInput) ([]*database.Alert, error)
	AutoResolveOldAlertsFn func(ctx context.Context, maxAgeHours int) (int, error)
}

func (m *mockManager) GetAlert(ctx context.Context, id string) (*database.Alert, error) {
	if m.GetAlertFn != nil {
		return m.GetAlertFn(ctx, id)
	}
	return testAlert(id), nil
}

func (m *mockManager) GetAlerts(ctx context.Context, f database.AlertFilter) ([]*database.Alert, int64, error) {
	if m.GetAlertsFn != nil {
		return m.GetAlertsFn(ctx, f)
	}
	return []*database.Alert{}, 0, nil
}

func (m *mockManager) GetActiveAlerts(ctx context.Context, region string) ([]*database.Alert, error) {
	if m.GetActiveAlertsFn != nil {
		return m.GetActiveAlertsFn(ctx, region)
	}
	return []*database.Alert{}, nil
}

func (m *mockManager) GetAlertHistory(ctx context.Context, region string, hours int, severity string) ([]*database.Alert, error) {
	if m.GetAlertHistoryFn != nil {
		return m.GetAlertHistoryFn(ctx, region, hours, severity)
	}
	return []*database.Alert{}, nil
}

func (m *mockManager) GetStatistics(ctx context.Context, region string) (*database.AlertStats, error) {
	if m.GetStatisticsFn != nil {
		return m.GetStatisticsFn(ctx, region)
	}
	return &database.AlertStats{}, nil
}

func (m *mockManager) Acknowledge(ctx context.Context, id string, in lifecycle.AckInput) (*database.Alert, error) {
	if m.AcknowledgeFn != nil {
		return m.AcknowledgeFn(ctx, id, in)
	}
	a := testAlert(id)
	a.Status = database.StatusAcknowledged
	a.Acknowledged = true
	a.AcknowledgedBy = in.By
	return a, nil
}

func (m *mockManager) Resolve(ctx context.Context, id string, in lifecycle.ResolveInput) (*database.Alert, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, id, in)
	}
	a := testAlert(id)
	a.Status = database.StatusResolved
	return a, nil
}

func (m *mockManager) BulkResolve(ctx context.Context, ids []string, in lifecycle.ResolveInput) ([]*database.Alert, error) {
	if m.BulkResolveFn != nil {
		return m.BulkResolveFn(ctx, ids, in)
	}
	alerts := make([]*database.Alert, 0, len(ids))
	for _, id := range ids {
		a := testAlert(id)
		a.Status = database.StatusResolved
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (m *mockManager) AutoResolveOldAlerts(ctx context.Context, maxAgeHours int) (int, error) {
	if m.AutoResolveOldAlertsFn != nil {
		return m.AutoResolveOldAlertsFn(ctx, maxAgeHours)
	}
	return 0, nil
}

// testAlert returns a minimal active alert for mock defaults.
func testAlert(id string) *database.Alert {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &database.Alert{
		ID:        id,
		Type:      database.TypeRegionalOverload,
		Severity:  database.SeverityHigh,
		Region:    "north",
		Message:   "Region north at 95.0% load for 2 consecutive windows",
		Status:    database.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// mockMetricsReader implements MetricsReader for testing.
type mockMetricsReader struct {
	GetServiceMetricsFn    func(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetricsFn func(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

func (m *mockMetricsReader) GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error) {
	if m.GetServiceMetricsFn != nil {
		return m.GetServiceMetricsFn(ctx, serviceName)
	}
	return &metrics.ServiceMetrics{ServiceName: serviceName, Status: "healthy"}, nil
}

func (m *mockMetricsReader) GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
	if m.GetAllServiceMetricsFn != nil {
		return m.GetAllServiceMetricsFn(ctx)
	}
	return map[string]*metrics.ServiceMetrics{}, nil
}

// mockPinger implements Pinger for testing.
type mockPinger struct {
	PingErr error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.PingErr
}

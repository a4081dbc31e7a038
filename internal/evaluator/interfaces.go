// Package evaluator turns inbound grid messages into alert decisions:
// overload windowing, meter outage detection and anomaly pass-through.
package evaluator

import (
	"context"
	"time"

	"alert-service/internal/condcache"
	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
)

// AlertCreator is the slice of the lifecycle manager the evaluator needs.
type AlertCreator interface {
	CreateAlert(ctx context.Context, in lifecycle.CreateAlertInput) (*database.Alert, error)
}

// ConditionCache is the slice of the condition cache the evaluator needs.
type ConditionCache interface {
	HasActiveCondition(ctx context.Context, region, alertType, meterID string) (bool, error)
	SetActiveCondition(ctx context.Context, region, alertType, meterID string) error
	RecordOverloadWindow(ctx context.Context, region string, at time.Time) error
	CountOverloadWindows(ctx context.Context, region string, lookback time.Duration) (int, error)
	TouchMeterLastSeen(ctx context.Context, meterID, region string, at time.Time) error
	ListInactiveMeters(ctx context.Context, threshold time.Duration) ([]condcache.InactiveMeter, error)
}

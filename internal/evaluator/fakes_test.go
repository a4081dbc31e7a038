package evaluator

import (
	"context"
	"fmt"
	"time"

	"alert-service/internal/condcache"
	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
)

// FakeCreator is a test fake for AlertCreator.
type FakeCreator struct {
	Created   []lifecycle.CreateAlertInput
	CreateErr error
	nextID    int
}

func (f *FakeCreator) CreateAlert(ctx context.Context, in lifecycle.CreateAlertInput) (*database.Alert, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.Created = append(f.Created, in)
	f.nextID++
	return &database.Alert{
		ID:       fmt.Sprintf("alert-%d", f.nextID),
		Type:     in.Type,
		Severity: in.Severity,
		Region:   in.Region,
		MeterID:  in.MeterID,
		Message:  in.Message,
		Status:   database.StatusActive,
		Metadata: in.Metadata,
	}, nil
}

// FakeCache is a test fake for ConditionCache. Overload windows and
// last-seen records are kept in memory with the same semantics the Redis
// cache provides.
type FakeCache struct {
	Active   map[string]bool
	Windows  map[string][]time.Time
	LastSeen map[string]condcache.InactiveMeter
	Touched  []string

	HasErr    error
	SetErr    error
	RecordErr error
	CountErr  error
	TouchErr  error
	ListErr   error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		Active:   make(map[string]bool),
		Windows:  make(map[string][]time.Time),
		LastSeen: make(map[string]condcache.InactiveMeter),
	}
}

func activeConditionKey(region, alertType, meterID string) string {
	return region + "|" + alertType + "|" + meterID
}

func (f *FakeCache) HasActiveCondition(ctx context.Context, region, alertType, meterID string) (bool, error) {
	if f.HasErr != nil {
		return false, f.HasErr
	}
	return f.Active[activeConditionKey(region, alertType, meterID)], nil
}

func (f *FakeCache) SetActiveCondition(ctx context.Context, region, alertType, meterID string) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	f.Active[activeConditionKey(region, alertType, meterID)] = true
	return nil
}

func (f *FakeCache) RecordOverloadWindow(ctx context.Context, region string, at time.Time) error {
	if f.RecordErr != nil {
		return f.RecordErr
	}
	f.Windows[region] = append(f.Windows[region], at)
	return nil
}

func (f *FakeCache) CountOverloadWindows(ctx context.Context, region string, lookback time.Duration) (int, error) {
	if f.CountErr != nil {
		return 0, f.CountErr
	}
	horizon := time.Now().Add(-lookback)
	count := 0
	for _, at := range f.Windows[region] {
		if !at.Before(horizon) {
			count++
		}
	}
	return count, nil
}

func (f *FakeCache) TouchMeterLastSeen(ctx context.Context, meterID, region string, at time.Time) error {
	if f.TouchErr != nil {
		return f.TouchErr
	}
	f.Touched = append(f.Touched, meterID)
	f.LastSeen[meterID] = condcache.InactiveMeter{MeterID: meterID, Region: region, LastSeen: at}
	return nil
}

func (f *FakeCache) ListInactiveMeters(ctx context.Context, threshold time.Duration) ([]condcache.InactiveMeter, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	cutoff := time.Now().Add(-threshold)
	var out []condcache.InactiveMeter
	for _, meter := range f.LastSeen {
		if meter.LastSeen.Before(cutoff) {
			out = append(out, meter)
		}
	}
	return out, nil
}

// FakeMetrics is a test fake for metrics.Recorder that tracks calls.
type FakeMetrics struct {
	ReceivedCount    int
	ProcessedCount   int
	PublishedCount   int
	ErrorCount       int
	CustomIncrements map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{CustomIncrements: make(map[string]int)}
}

func (f *FakeMetrics) RecordReceived() {
	f.ReceivedCount++
}

func (f *FakeMetrics) RecordProcessed(latency time.Duration) {
	f.ProcessedCount++
}

func (f *FakeMetrics) RecordPublished() {
	f.PublishedCount++
}

func (f *FakeMetrics) RecordError() {
	f.ErrorCount++
}

func (f *FakeMetrics) IncrementCustom(name string) {
	f.CustomIncrements[name]++
}

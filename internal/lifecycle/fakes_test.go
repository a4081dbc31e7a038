package lifecycle

import (
	"context"
	"fmt"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/events"
)

// FakeStore is an in-memory test fake for AlertStore.
type FakeStore struct {
	Alerts map[string]*database.Alert

	CreateErr error
	GetErr    error
	UpdateErr error
	ListErr   error
	BulkErr   error
	AutoErr   error
	StatsErr  error

	LastFilter database.AlertFilter
	Stats      *database.AlertStats
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Alerts: make(map[string]*database.Alert)}
}

func (f *FakeStore) CreateAlert(ctx context.Context, in database.CreateAlertInput) (*database.Alert, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	now := time.Now().UTC()
	alert := &database.Alert{
		ID:        in.ID,
		Type:      in.Type,
		Severity:  in.Severity,
		Region:    in.Region,
		MeterID:   in.MeterID,
		Message:   in.Message,
		Status:    database.StatusActive,
		Metadata:  in.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Alerts[in.ID] = alert
	return alert, nil
}

func (f *FakeStore) GetAlert(ctx context.Context, id string) (*database.Alert, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	alert, ok := f.Alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrNotFound, id)
	}
	return alert, nil
}

func (f *FakeStore) UpdateAlert(ctx context.Context, id string, upd database.AlertUpdate) (*database.Alert, error) {
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	alert, ok := f.Alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrNotFound, id)
	}
	if upd.Status != nil {
		alert.Status = *upd.Status
	}
	if upd.Acknowledged != nil {
		alert.Acknowledged = *upd.Acknowledged
	}
	if upd.AcknowledgedBy != nil {
		alert.AcknowledgedBy = *upd.AcknowledgedBy
	}
	if upd.AcknowledgedAt != nil {
		t := *upd.AcknowledgedAt
		alert.AcknowledgedAt = &t
	}
	if upd.ResolvedAt != nil {
		t := *upd.ResolvedAt
		alert.ResolvedAt = &t
	}
	if upd.Message != nil {
		alert.Message = *upd.Message
	}
	if len(upd.MergeMetadata) > 0 {
		if alert.Metadata == nil {
			alert.Metadata = make(map[string]string)
		}
		for k, v := range upd.MergeMetadata {
			alert.Metadata[k] = v
		}
	}
	alert.UpdatedAt = time.Now().UTC()
	return alert, nil
}

func (f *FakeStore) ListAlerts(ctx context.Context, filter database.AlertFilter) ([]*database.Alert, int64, error) {
	f.LastFilter = filter
	if f.ListErr != nil {
		return nil, 0, f.ListErr
	}
	var matched []*database.Alert
	for _, alert := range f.Alerts {
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		if filter.Region != "" && alert.Region != filter.Region {
			continue
		}
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		if filter.MeterID != "" && alert.MeterID != filter.MeterID {
			continue
		}
		matched = append(matched, alert)
	}
	return matched, int64(len(matched)), nil
}

func (f *FakeStore) BulkResolve(ctx context.Context, ids []string, resolvedBy string, resolvedAt time.Time, note string) ([]*database.Alert, error) {
	if f.BulkErr != nil {
		return nil, f.BulkErr
	}
	var resolved []*database.Alert
	for _, id := range ids {
		alert, ok := f.Alerts[id]
		if !ok || alert.Status == database.StatusResolved {
			continue
		}
		f.resolve(alert, resolvedAt, map[string]string{"resolved_by": resolvedBy})
		resolved = append(resolved, alert)
	}
	return resolved, nil
}

func (f *FakeStore) AutoResolveOlderThan(ctx context.Context, cutoff, resolvedAt time.Time) ([]*database.Alert, error) {
	if f.AutoErr != nil {
		return nil, f.AutoErr
	}
	var resolved []*database.Alert
	for _, alert := range f.Alerts {
		if alert.Status != database.StatusActive || !alert.CreatedAt.Before(cutoff) {
			continue
		}
		f.resolve(alert, resolvedAt, map[string]string{"auto_resolved": "true"})
		resolved = append(resolved, alert)
	}
	return resolved, nil
}

func (f *FakeStore) resolve(alert *database.Alert, at time.Time, merge map[string]string) {
	alert.Status = database.StatusResolved
	t := at
	alert.ResolvedAt = &t
	if alert.Metadata == nil {
		alert.Metadata = make(map[string]string)
	}
	for k, v := range merge {
		alert.Metadata[k] = v
	}
	alert.UpdatedAt = at
}

func (f *FakeStore) Statistics(ctx context.Context, region string) (*database.AlertStats, error) {
	if f.StatsErr != nil {
		return nil, f.StatsErr
	}
	if f.Stats != nil {
		return f.Stats, nil
	}
	return &database.AlertStats{ByType: map[string]int64{}, ByRegion: map[string]int64{}}, nil
}

// FakeCache is a test fake for ConditionCache.
type FakeCache struct {
	DedupMarkers map[string]bool
	DedupErr     error
	ClearErr     error
	Cleared      []string
}

func NewFakeCache() *FakeCache {
	return &FakeCache{DedupMarkers: make(map[string]bool)}
}

func markerKey(alertType, region, meterID string) string {
	return alertType + "|" + region + "|" + meterID
}

func (f *FakeCache) TrySetDedupMarker(ctx context.Context, alertType, region, meterID string, ttl time.Duration) (bool, error) {
	if f.DedupErr != nil {
		return false, f.DedupErr
	}
	key := markerKey(alertType, region, meterID)
	if f.DedupMarkers[key] {
		return false, nil
	}
	f.DedupMarkers[key] = true
	return true, nil
}

func (f *FakeCache) ClearActiveCondition(ctx context.Context, region, alertType, meterID string) error {
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Cleared = append(f.Cleared, region+"|"+alertType+"|"+meterID)
	return nil
}

// FakePublisher is a test fake for EventPublisher.
type FakePublisher struct {
	Processed     []*database.Alert
	StatusUpdates []events.StatusUpdate
	ProcessedErr  error
	StatusErr     error
}

func (f *FakePublisher) PublishProcessedAlert(ctx context.Context, alert *database.Alert) error {
	if f.ProcessedErr != nil {
		return f.ProcessedErr
	}
	f.Processed = append(f.Processed, alert)
	return nil
}

func (f *FakePublisher) PublishStatusUpdate(ctx context.Context, update events.StatusUpdate) error {
	if f.StatusErr != nil {
		return f.StatusErr
	}
	f.StatusUpdates = append(f.StatusUpdates, update)
	return nil
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

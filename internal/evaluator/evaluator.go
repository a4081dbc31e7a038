package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"alert-service/internal/condcache"
	"alert-service/internal/database"
	"alert-service/internal/events"
	"alert-service/internal/lifecycle"
	"alert-service/internal/metrics"
)

// Config holds the detection thresholds.
type Config struct {
	// OverloadThresholdPercent is the load percentage above which a reading
	// counts as an overload window.
	OverloadThresholdPercent float64
	// OverloadWindowsRequired is how many over-threshold windows must fall
	// inside the lookback before an alert is raised.
	OverloadWindowsRequired int
	// OverloadLookback is the sliding window the counter is evaluated over.
	OverloadLookback time.Duration
	// OutageThreshold is how long a meter may stay silent before it is
	// considered out.
	OutageThreshold time.Duration
}

// Evaluator consumes decoded inbound messages, updates the condition cache
// and asks the lifecycle manager to create alerts when a rule fires. Cache
// read failures skip the affected detection step for that message; the store
// is never consulted as a fallback detector.
type Evaluator struct {
	manager AlertCreator
	cache   ConditionCache
	metrics metrics.Recorder
	cfg     Config
}

// New creates an evaluator. A nil recorder disables metrics.
func New(manager AlertCreator, cache ConditionCache, recorder metrics.Recorder, cfg Config) *Evaluator {
	if recorder == nil {
		recorder = &metrics.NoOp{}
	}
	return &Evaluator{
		manager: manager,
		cache:   cache,
		metrics: recorder,
		cfg:     cfg,
	}
}

// HandleMessage dispatches one decoded inbound message. Returned errors mean
// the message should not be committed (the store rejected a write); every
// soft failure is handled internally.
func (e *Evaluator) HandleMessage(ctx context.Context, inbound *events.Inbound) error {
	switch inbound.Kind {
	case events.KindAggregate:
		return e.handleAggregate(ctx, inbound.Aggregate)
	case events.KindAnomaly:
		return e.handleAnomaly(ctx, inbound.Anomaly)
	default:
		return fmt.Errorf("unknown inbound kind: %q", inbound.Kind)
	}
}

// handleAggregate runs the regional aggregate pipeline: refresh last-seen
// records, evaluate overload windowing, then scan for silent meters.
func (e *Evaluator) handleAggregate(ctx context.Context, agg *events.RegionalAggregate) error {
	e.touchActiveMeters(ctx, agg)
	e.metrics.IncrementCustom("load_readings_" + agg.Region)

	if agg.LoadPercentage > e.cfg.OverloadThresholdPercent {
		if err := e.evaluateOverload(ctx, agg); err != nil {
			return err
		}
	}

	return e.scanForOutages(ctx, agg)
}

// touchActiveMeters refreshes the last-seen record for every meter the
// aggregate reports as active. On cache failure the step is abandoned for
// this message; the next aggregate refreshes the same meters anyway.
func (e *Evaluator) touchActiveMeters(ctx context.Context, agg *events.RegionalAggregate) {
	for _, meterID := range agg.ActiveMeters {
		if err := e.cache.TouchMeterLastSeen(ctx, meterID, agg.Region, agg.Timestamp); err != nil {
			slog.Warn("Failed to refresh meter last-seen records, skipping",
				"region", agg.Region, "meter_id", meterID, "error", err)
			return
		}
	}
}

// evaluateOverload records an over-threshold window and raises a regional
// overload alert once enough windows fall inside the lookback.
func (e *Evaluator) evaluateOverload(ctx context.Context, agg *events.RegionalAggregate) error {
	if err := e.cache.RecordOverloadWindow(ctx, agg.Region, agg.Timestamp); err != nil {
		slog.Warn("Failed to record overload window, skipping overload detection",
			"region", agg.Region, "error", err)
		return nil
	}

	windows, err := e.cache.CountOverloadWindows(ctx, agg.Region, e.cfg.OverloadLookback)
	if err != nil {
		slog.Warn("Failed to count overload windows, skipping overload detection",
			"region", agg.Region, "error", err)
		return nil
	}
	if windows < e.cfg.OverloadWindowsRequired {
		return nil
	}

	has, err := e.cache.HasActiveCondition(ctx, agg.Region, database.TypeRegionalOverload, "")
	if err != nil {
		slog.Warn("Failed to check active condition, skipping overload detection",
			"region", agg.Region, "error", err)
		return nil
	}
	if has {
		return nil
	}

	alert, err := e.manager.CreateAlert(ctx, lifecycle.CreateAlertInput{
		Type:     database.TypeRegionalOverload,
		Severity: database.SeverityHigh,
		Region:   agg.Region,
		Message: fmt.Sprintf("Region %s at %.1f%% load for %d consecutive windows",
			agg.Region, agg.LoadPercentage, windows),
		Metadata: map[string]string{
			"load_percentage":   strconv.FormatFloat(agg.LoadPercentage, 'f', 1, 64),
			"meter_count":       strconv.Itoa(agg.MeterCount),
			"total_consumption": strconv.FormatFloat(agg.TotalConsumption, 'f', 2, 64),
			"window_count":      strconv.Itoa(windows),
		},
	})
	if err != nil {
		if isDuplicate(err) {
			slog.Debug("Duplicate overload alert suppressed", "region", agg.Region)
			return nil
		}
		return fmt.Errorf("failed to create overload alert: %w", err)
	}

	e.markActive(ctx, alert.ID, agg.Region, database.TypeRegionalOverload, "")
	return nil
}

// scanForOutages raises a meter outage alert for every meter in this region
// whose last-seen record is older than the threshold. Meters named in the
// current message's active set are excluded: reported now overrides recorded
// earlier.
func (e *Evaluator) scanForOutages(ctx context.Context, agg *events.RegionalAggregate) error {
	candidates, err := e.cache.ListInactiveMeters(ctx, e.cfg.OutageThreshold)
	if err != nil {
		slog.Warn("Failed to list inactive meters, skipping outage detection",
			"region", agg.Region, "error", err)
		return nil
	}

	reported := make(map[string]struct{}, len(agg.ActiveMeters))
	for _, meterID := range agg.ActiveMeters {
		reported[meterID] = struct{}{}
	}

	for _, meter := range candidates {
		if meter.Region != agg.Region {
			continue
		}
		if _, ok := reported[meter.MeterID]; ok {
			continue
		}
		if err := e.raiseOutageAlert(ctx, agg, meter); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) raiseOutageAlert(ctx context.Context, agg *events.RegionalAggregate, meter condcache.InactiveMeter) error {
	has, err := e.cache.HasActiveCondition(ctx, meter.Region, database.TypeMeterOutage, meter.MeterID)
	if err != nil {
		slog.Warn("Failed to check active condition, skipping outage alert",
			"meter_id", meter.MeterID, "error", err)
		return nil
	}
	if has {
		return nil
	}

	elapsed := agg.Timestamp.Sub(meter.LastSeen)
	alert, err := e.manager.CreateAlert(ctx, lifecycle.CreateAlertInput{
		Type:     database.TypeMeterOutage,
		Severity: database.SeverityMedium,
		Region:   meter.Region,
		MeterID:  meter.MeterID,
		Message:  fmt.Sprintf("Meter %s has not reported for %.0f seconds", meter.MeterID, elapsed.Seconds()),
		Metadata: map[string]string{
			"last_seen":   meter.LastSeen.UTC().Format(time.RFC3339),
			"detected_at": agg.Timestamp.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		if isDuplicate(err) {
			slog.Debug("Duplicate outage alert suppressed", "meter_id", meter.MeterID)
			return nil
		}
		return fmt.Errorf("failed to create outage alert: %w", err)
	}

	e.markActive(ctx, alert.ID, meter.Region, database.TypeMeterOutage, meter.MeterID)
	return nil
}

// handleAnomaly forwards a pre-classified anomaly event into alert creation.
// Event types other than "anomaly" are ignored.
func (e *Evaluator) handleAnomaly(ctx context.Context, anomaly *events.AnomalyEvent) error {
	if anomaly.Type != "anomaly" {
		slog.Debug("Ignoring inbound event type", "type", anomaly.Type, "id", anomaly.ID)
		return nil
	}

	metadata := make(map[string]string, len(anomaly.Metadata)+2)
	for k, v := range anomaly.Metadata {
		metadata[k] = v
	}
	metadata["source"] = "anomaly_detector"
	if anomaly.ID != "" {
		metadata["original_id"] = anomaly.ID
	}

	_, err := e.manager.CreateAlert(ctx, lifecycle.CreateAlertInput{
		Type:     database.TypeAnomaly,
		Severity: anomaly.Severity,
		Region:   anomaly.Region,
		MeterID:  anomaly.MeterID,
		Message:  anomaly.Message,
		Metadata: metadata,
	})
	if err != nil {
		if isDuplicate(err) {
			slog.Debug("Duplicate anomaly alert suppressed", "original_id", anomaly.ID)
			return nil
		}
		var verr *lifecycle.ValidationError
		if errors.As(err, &verr) {
			// Redelivery cannot fix a malformed upstream event.
			slog.Error("Dropping anomaly event with invalid fields",
				"original_id", anomaly.ID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to create anomaly alert: %w", err)
	}
	return nil
}

// markActive sets the active-condition marker after a successful creation,
// best-effort.
func (e *Evaluator) markActive(ctx context.Context, alertID, region, alertType, meterID string) {
	if err := e.cache.SetActiveCondition(ctx, region, alertType, meterID); err != nil {
		slog.Warn("Failed to set active condition marker",
			"alert_id", alertID, "type", alertType, "region", region, "error", err)
	}
}

func isDuplicate(err error) bool {
	var dup *lifecycle.DuplicateSuppressedError
	return errors.As(err, &dup)
}

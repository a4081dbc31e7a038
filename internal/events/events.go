// Package events defines the wire structures for the inbound grid stream and
// the outbound alert notification topics.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound message kinds carried on the grid events topic.
const (
	KindAggregate = "aggregate"
	KindAnomaly   = "anomaly"
)

// RegionalAggregate is a time-bucketed consumption summary for one region.
type RegionalAggregate struct {
	Region           string    `json:"region"`
	Timestamp        time.Time `json:"timestamp"`
	MeterCount       int       `json:"meter_count"`
	TotalConsumption float64   `json:"total_consumption"`
	AvgConsumption   float64   `json:"avg_consumption"`
	MaxConsumption   float64   `json:"max_consumption"`
	MinConsumption   float64   `json:"min_consumption"`
	LoadPercentage   float64   `json:"load_percentage"`
	ActiveMeters     []string  `json:"active_meters"`
}

// AnomalyEvent is a pre-classified anomaly reported by an upstream detector.
type AnomalyEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Severity  string            `json:"severity"`
	Region    string            `json:"region,omitempty"`
	MeterID   string            `json:"meter_id,omitempty"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Inbound is a decoded message from the grid events topic: exactly one of
// Aggregate or Anomaly is set, indicated by Kind.
type Inbound struct {
	Kind      string
	Aggregate *RegionalAggregate
	Anomaly   *AnomalyEvent
}

// probe is used to discriminate the two inbound shapes before full decoding.
// Anomaly events always carry a type tag; aggregates always carry a region
// with a meter count.
type probe struct {
	Type       string `json:"type"`
	Region     string `json:"region"`
	MeterCount *int   `json:"meter_count"`
}

// ParseInbound decodes a raw inbound payload into one of the two known shapes.
// Returns an error for payloads that match neither shape.
func ParseInbound(data []byte) (*Inbound, error) {
	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inbound message: %w", err)
	}

	if p.Type != "" {
		var anomaly AnomalyEvent
		if err := json.Unmarshal(data, &anomaly); err != nil {
			return nil, fmt.Errorf("failed to unmarshal anomaly event: %w", err)
		}
		return &Inbound{Kind: KindAnomaly, Anomaly: &anomaly}, nil
	}

	if p.Region != "" && p.MeterCount != nil {
		var agg RegionalAggregate
		if err := json.Unmarshal(data, &agg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal regional aggregate: %w", err)
		}
		return &Inbound{Kind: KindAggregate, Aggregate: &agg}, nil
	}

	return nil, fmt.Errorf("inbound message matches neither aggregate nor anomaly shape")
}

// StatusUpdate is published to the status topic whenever an alert transitions
// state (acknowledged, resolved, bulk/auto resolved).
type StatusUpdate struct {
	AlertID   string            `json:"alert_id"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Source    string            `json:"source"`
}

// Package database provides PostgreSQL-backed storage for alert records.
package database

import (
	"time"
)

// Alert statuses. An alert starts active, may be acknowledged while an
// operator works on it, and ends resolved. Resolved is terminal.
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert types raised by the rule evaluator. Upstream detectors may supply
// additional types; these three are the ones this service creates itself.
const (
	TypeRegionalOverload = "REGIONAL_OVERLOAD"
	TypeMeterOutage      = "METER_OUTAGE"
	TypeAnomaly          = "ANOMALY"
)

// Alert represents an alert record in the database.
type Alert struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	Severity       string            `json:"severity"`
	Region         string            `json:"region,omitempty"`
	MeterID        string            `json:"meter_id,omitempty"`
	Message        string            `json:"message"`
	Status         string            `json:"status"`
	Acknowledged   bool              `json:"acknowledged"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CreateAlertInput carries the caller-supplied fields for a new alert.
// Status, acknowledgement state and timestamps are server-assigned.
type CreateAlertInput struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Severity string            `json:"severity"`
	Region   string            `json:"region,omitempty"`
	MeterID  string            `json:"meter_id,omitempty"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AlertUpdate describes a partial update to an alert. Nil fields are left
// untouched; MergeMetadata entries are merged into the existing metadata.
// Every update bumps updated_at.
type AlertUpdate struct {
	Status         *string
	Acknowledged   *bool
	AcknowledgedBy *string
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
	Message        *string
	MergeMetadata  map[string]string
}

// AlertFilter selects alerts for listing. Zero values mean "no filter";
// Limit <= 0 means no LIMIT clause.
type AlertFilter struct {
	Status       string
	Type         string
	Severity     string
	Region       string
	MeterID      string
	Acknowledged *bool
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// AlertListResult contains paginated alert results.
type AlertListResult struct {
	Alerts []*Alert `json:"alerts"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// AlertStats holds aggregate counts over the alerts table.
type AlertStats struct {
	Total              int64            `json:"total"`
	Active             int64            `json:"active"`
	Acknowledged       int64            `json:"acknowledged"`
	Resolved           int64            `json:"resolved"`
	ByType             map[string]int64 `json:"by_type"`
	ByRegion           map[string]int64 `json:"by_region"`
	AvgResolutionHours float64          `json:"avg_resolution_hours"`
}

// ValidSeverity reports whether s is one of the four known severities.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Package database provides PostgreSQL-backed storage for alert records.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// alertColumns is the canonical column list used by every SELECT and
// RETURNING clause so scanAlert always sees the same shape.
const alertColumns = `id, type, severity, region, meter_id, message, status, acknowledged, acknowledged_by, acknowledged_at, resolved_at, metadata, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAlert scans one row in alertColumns order into an Alert.
func scanAlert(s rowScanner) (*Alert, error) {
	var alert Alert
	var region, meterID, ackBy, metadataJSON sql.NullString
	var ackAt, resolvedAt sql.NullTime
	if err := s.Scan(
		&alert.ID,
		&alert.Type,
		&alert.Severity,
		&region,
		&meterID,
		&alert.Message,
		&alert.Status,
		&alert.Acknowledged,
		&ackBy,
		&ackAt,
		&resolvedAt,
		&metadataJSON,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	); err != nil {
		return nil, err
	}
	alert.Region = region.String
	alert.MeterID = meterID.String
	alert.AcknowledgedBy = ackBy.String
	if ackAt.Valid {
		t := ackAt.Time
		alert.AcknowledgedAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		alert.ResolvedAt = &t
	}
	alert.Metadata = unmarshalMetadata(metadataJSON, "alert_id", alert.ID)
	return &alert, nil
}

// nullString converts an optional field to a NULL-capable SQL parameter.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateAlert inserts a new alert with status=active, acknowledged=false and
// server-assigned timestamps. Returns the created record.
func (db *DB) CreateAlert(ctx context.Context, in CreateAlertInput) (*Alert, error) {
	metadataJSON, err := marshalMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO alerts (id, type, severity, region, meter_id, message, status, acknowledged, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', FALSE, $7, NOW(), NOW())
		RETURNING ` + alertColumns

	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query,
		in.ID,
		in.Type,
		in.Severity,
		nullString(in.Region),
		nullString(in.MeterID),
		in.Message,
		metadataJSON,
	))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("alert already exists: %s", in.ID)
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// GetAlert retrieves an alert by ID. Returns ErrNotFound for unknown ids.
func (db *DB) GetAlert(ctx context.Context, id string) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

// UpdateAlert applies a partial update to an alert and bumps updated_at.
// Returns ErrNotFound for unknown ids.
func (db *DB) UpdateAlert(ctx context.Context, id string, upd AlertUpdate) (*Alert, error) {
	sets := make([]string, 0, 8)
	args := []interface{}{id}
	set := func(expr string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if upd.Status != nil {
		set("status = $%d", *upd.Status)
	}
	if upd.Acknowledged != nil {
		set("acknowledged = $%d", *upd.Acknowledged)
	}
	if upd.AcknowledgedBy != nil {
		set("acknowledged_by = $%d", *upd.AcknowledgedBy)
	}
	if upd.AcknowledgedAt != nil {
		set("acknowledged_at = $%d", *upd.AcknowledgedAt)
	}
	if upd.ResolvedAt != nil {
		set("resolved_at = $%d", *upd.ResolvedAt)
	}
	if upd.Message != nil {
		set("message = $%d", *upd.Message)
	}
	if len(upd.MergeMetadata) > 0 {
		metadataJSON, err := marshalMetadata(upd.MergeMetadata)
		if err != nil {
			return nil, err
		}
		set("metadata = COALESCE(metadata, '{}'::jsonb) || $%d::jsonb", metadataJSON.String)
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE alerts SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), alertColumns)

	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// buildWhere assembles the WHERE clause for an AlertFilter. Returned args
// line up with $1..$n placeholders in the clause.
func buildWhere(f AlertFilter) (string, []interface{}) {
	conds := make([]string, 0, 8)
	var args []interface{}
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.Region != "" {
		add("region = $%d", f.Region)
	}
	if f.MeterID != "" {
		add("meter_id = $%d", f.MeterID)
	}
	if f.Acknowledged != nil {
		add("acknowledged = $%d", *f.Acknowledged)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListAlerts returns alerts matching the filter, newest first, together with
// the total count for the same filter (ignoring limit/offset).
func (db *DB) ListAlerts(ctx context.Context, f AlertFilter) ([]*Alert, int64, error) {
	where, args := buildWhere(f)

	var total int64
	countQuery := "SELECT COUNT(*) FROM alerts" + where
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := "SELECT " + alertColumns + " FROM alerts" + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, total, rows.Err()
}

// BulkResolve resolves every listed alert that is not already resolved, in a
// single transaction. Ids that are missing or already resolved are silently
// skipped; the returned slice contains exactly the rows that were updated.
func (db *DB) BulkResolve(ctx context.Context, ids []string, resolvedBy string, resolvedAt time.Time, note string) ([]*Alert, error) {
	merge := map[string]string{"resolved_by": resolvedBy}
	if note != "" {
		merge["resolution"] = note
	}
	metadataJSON, err := marshalMetadata(merge)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE alerts
		SET status = 'resolved',
		    resolved_at = $2,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
		    updated_at = NOW()
		WHERE id = ANY($1) AND status != 'resolved'
		RETURNING ` + alertColumns

	rows, err := tx.QueryContext(ctx, query, pq.Array(ids), resolvedAt, metadataJSON.String)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk resolve alerts: %w", err)
	}

	var resolved []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan resolved alert: %w", err)
		}
		resolved = append(resolved, alert)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read resolved alerts: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk resolve: %w", err)
	}
	return resolved, nil
}

// AutoResolveOlderThan resolves all active alerts created before the cutoff,
// tagging their metadata as auto-resolved. Returns the rows that were
// updated so the caller can clear condition markers and publish updates.
func (db *DB) AutoResolveOlderThan(ctx context.Context, cutoff, resolvedAt time.Time) ([]*Alert, error) {
	metadataJSON, err := marshalMetadata(map[string]string{
		"auto_resolved": "true",
		"resolved_by":   "system",
	})
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE alerts
		SET status = 'resolved',
		    resolved_at = $2,
		    metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
		    updated_at = NOW()
		WHERE status = 'active' AND created_at < $1
		RETURNING ` + alertColumns

	rows, err := db.conn.QueryContext(ctx, query, cutoff, resolvedAt, metadataJSON.String)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-resolve alerts: %w", err)
	}
	defer rows.Close()

	var resolved []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auto-resolved alert: %w", err)
		}
		resolved = append(resolved, alert)
	}
	return resolved, rows.Err()
}

// Statistics aggregates alert counts, per-type and per-region breakdowns,
// and the average resolution time in hours over resolved alerts. An empty
// region aggregates over all regions.
func (db *DB) Statistics(ctx context.Context, region string) (*AlertStats, error) {
	stats := &AlertStats{
		ByType:   make(map[string]int64),
		ByRegion: make(map[string]int64),
	}

	regionFilter := ""
	var args []interface{}
	if region != "" {
		regionFilter = " WHERE region = $1"
		args = append(args, region)
	}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'acknowledged'),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0) FILTER (WHERE status = 'resolved'), 0)
		FROM alerts` + regionFilter
	if err := db.conn.QueryRowContext(ctx, countsQuery, args...).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Acknowledged,
		&stats.Resolved,
		&stats.AvgResolutionHours,
	); err != nil {
		return nil, fmt.Errorf("failed to get alert counts: %w", err)
	}

	typeQuery := `SELECT type, COUNT(*) FROM alerts` + regionFilter + ` GROUP BY type`
	typeRows, err := db.conn.QueryContext(ctx, typeQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert counts by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var alertType string
		var count int64
		if err := typeRows.Scan(&alertType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ByType[alertType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read type counts: %w", err)
	}

	regionWhere := " WHERE region IS NOT NULL"
	if region != "" {
		regionWhere = " WHERE region = $1"
	}
	regionQuery := `SELECT region, COUNT(*) FROM alerts` + regionWhere + ` GROUP BY region`
	regionRows, err := db.conn.QueryContext(ctx, regionQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert counts by region: %w", err)
	}
	defer regionRows.Close()
	for regionRows.Next() {
		var reg string
		var count int64
		if err := regionRows.Scan(&reg, &count); err != nil {
			return nil, fmt.Errorf("failed to scan region count: %w", err)
		}
		stats.ByRegion[reg] = count
	}
	return stats, regionRows.Err()
}

// Package database provides PostgreSQL-backed storage for alert records.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound is returned when an alert id does not exist. Callers match it
// with errors.Is and translate it into their own not-found error.
var ErrNotFound = errors.New("alert not found")

// DB wraps a database connection and provides alert storage operations.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Ping verifies the database connection is alive. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return db.conn.PingContext(ctx)
}

// marshalMetadata serializes a metadata map to a sql.NullString for JSONB
// storage. Returns a NullString with Valid=false if the map is empty
// (NULL in the database).
func marshalMetadata(metadata map[string]string) (sql.NullString, error) {
	if len(metadata) == 0 {
		return sql.NullString{}, nil
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return sql.NullString{String: string(jsonBytes), Valid: true}, nil
}

// unmarshalMetadata deserializes metadata JSON from a nullable column.
func unmarshalMetadata(metadataJSON sql.NullString, warnAttrs ...any) map[string]string {
	if !metadataJSON.Valid || metadataJSON.String == "" {
		return make(map[string]string)
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(metadataJSON.String), &m); err != nil {
		slog.Warn("Failed to unmarshal metadata JSON", append([]any{"error", err}, warnAttrs...)...)
		return make(map[string]string)
	}
	if m == nil {
		return make(map[string]string)
	}
	return m
}

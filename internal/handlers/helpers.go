package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/lifecycle"
)

// HTTP helper functions to reduce duplication across handlers.

// decodeJSON decodes the request body as JSON into the provided value.
// Returns true on success, false on error (and writes error response).
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, lifecycle.CodeValidation, "invalid request body")
		return false
	}
	return true
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination contains the default pagination values.
var DefaultPagination = Pagination{Limit: 50, Offset: 0}

// parsePagination extracts limit and offset from query parameters.
// Uses defaults if not provided or invalid.
func parsePagination(r *http.Request) Pagination {
	p := DefaultPagination

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			p.Offset = o
		}
	}

	return p
}

// parseAlertFilter extracts the list filter from query parameters. Malformed
// acknowledged/from/to values are rejected rather than silently dropped.
func parseAlertFilter(r *http.Request) (database.AlertFilter, error) {
	q := r.URL.Query()
	f := database.AlertFilter{
		Status:  q.Get("status"),
		Type:    q.Get("type"),
		Region:  q.Get("region"),
		MeterID: q.Get("meter_id"),
	}

	if v := q.Get("acknowledged"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("acknowledged must be true or false")
		}
		f.Acknowledged = &b
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("from must be an RFC3339 timestamp")
		}
		f.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("to must be an RFC3339 timestamp")
		}
		f.To = &ts
	}

	return f, nil
}

// parseHours extracts a positive integer hours query parameter, falling back
// to def when absent.
func parseHours(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return def, nil
	}
	hours, err := strconv.Atoi(v)
	if err != nil || hours <= 0 {
		return 0, fmt.Errorf("hours must be a positive integer")
	}
	return hours, nil
}

// nonNilAlerts guarantees list responses serialize as [] rather than null.
func nonNilAlerts(alerts []*database.Alert) []*database.Alert {
	if alerts == nil {
		return []*database.Alert{}
	}
	return alerts
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlers_Health(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		cacheErr       error
		expectedStatus int
		expectedState  string
		expectedChecks []string
	}{
		{
			name:           "all dependencies healthy",
			expectedStatus: http.StatusOK,
			expectedState:  "ok",
		},
		{
			name:           "database down",
			dbErr:          errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
			expectedChecks: []string{"database"},
		},
		{
			name:           "cache down",
			cacheErr:       errors.New("redis timeout"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
			expectedChecks: []string{"cache"},
		},
		{
			name:           "both down",
			dbErr:          errors.New("connection refused"),
			cacheErr:       errors.New("redis timeout"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedState:  "degraded",
			expectedChecks: []string{"database", "cache"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&mockManager{}, &mockMetricsReader{},
				&mockPinger{PingErr: tt.dbErr}, &mockPinger{PingErr: tt.cacheErr})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			h.Health(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Health() status = %v, want %v", w.Code, tt.expectedStatus)
			}
			var resp HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.expectedState {
				t.Errorf("Status = %q, want %q", resp.Status, tt.expectedState)
			}
			for _, check := range tt.expectedChecks {
				if _, ok := resp.Checks[check]; !ok {
					t.Errorf("Checks missing %q: %v", check, resp.Checks)
				}
			}
			if tt.expectedState == "ok" && len(resp.Checks) != 0 {
				t.Errorf("Checks = %v, want empty on healthy response", resp.Checks)
			}
		})
	}
}

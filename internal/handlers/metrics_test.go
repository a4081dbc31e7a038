package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"alert-service/internal/lifecycle"
	"alert-service/internal/metrics"
)

func TestHandlers_GetServiceMetrics(t *testing.T) {
	t.Run("all services", func(t *testing.T) {
		reader := &mockMetricsReader{
			GetAllServiceMetricsFn: func(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
				return map[string]*metrics.ServiceMetrics{
					"alert-service": {ServiceName: "alert-service", Status: "healthy", MessagesProcessed: 42},
				}, nil
			},
		}
		h := NewHandlers(&mockManager{}, reader, &mockPinger{}, &mockPinger{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusOK)
		}
		var resp ServiceMetricsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		sm, ok := resp.Services["alert-service"]
		if !ok {
			t.Fatalf("Services missing alert-service: %v", resp.Services)
		}
		if sm.MessagesProcessed != 42 {
			t.Errorf("MessagesProcessed = %d, want 42", sm.MessagesProcessed)
		}
	})

	t.Run("single service", func(t *testing.T) {
		var gotName string
		reader := &mockMetricsReader{
			GetServiceMetricsFn: func(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error) {
				gotName = serviceName
				return &metrics.ServiceMetrics{ServiceName: serviceName, Status: "healthy"}, nil
			},
		}
		h := NewHandlers(&mockManager{}, reader, &mockPinger{}, &mockPinger{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics?service=alert-service", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusOK)
		}
		if gotName != "alert-service" {
			t.Errorf("Reader got service = %q, want alert-service", gotName)
		}
	})

	t.Run("single service read failure returns offline placeholder", func(t *testing.T) {
		reader := &mockMetricsReader{
			GetServiceMetricsFn: func(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error) {
				return nil, errors.New("redis timeout")
			},
		}
		h := NewHandlers(&mockManager{}, reader, &mockPinger{}, &mockPinger{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics?service=alert-service", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusOK)
		}
		var sm metrics.ServiceMetrics
		if err := json.Unmarshal(w.Body.Bytes(), &sm); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if sm.ServiceName != "alert-service" || sm.Status != "offline" {
			t.Errorf("Placeholder = %+v, want alert-service offline", sm)
		}
	})

	t.Run("all services read failure", func(t *testing.T) {
		reader := &mockMetricsReader{
			GetAllServiceMetricsFn: func(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
				return nil, errors.New("redis timeout")
			},
		}
		h := NewHandlers(&mockManager{}, reader, &mockPinger{}, &mockPinger{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/services/metrics", nil)
		w := httptest.NewRecorder()

		h.GetServiceMetrics(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("GetServiceMetrics() status = %v, want %v", w.Code, http.StatusServiceUnavailable)
		}
		eb := decodeErrorBody(t, w.Body)
		if eb.Error.Code != lifecycle.CodeConnectivity {
			t.Errorf("Error code = %q, want %q", eb.Error.Code, lifecycle.CodeConnectivity)
		}
	})
}

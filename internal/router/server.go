// Package router provides HTTP routing configuration for the alert-service API.
package router

import (
	"net/http"
	"time"

	"alert-service/internal/handlers"
	"alert-service/internal/metrics"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, collector *metrics.Collector) *http.Server {
	router := NewRouter(h, collector)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Package router provides HTTP routing configuration for the alert-service API.
package router

import (
	"net/http"

	"alert-service/internal/handlers"
	"alert-service/internal/metrics"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux       *http.ServeMux
	handlers  *handlers.Handlers
	collector *metrics.Collector
}

// NewRouter creates a new router with all routes configured. collector may be
// nil, which disables HTTP metrics.
func NewRouter(h *handlers.Handlers, collector *metrics.Collector) *Router {
	r := &Router{
		mux:       http.NewServeMux(),
		handlers:  h,
		collector: collector,
	}
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler with CORS and metrics middleware applied.
func (r *Router) Handler() http.Handler {
	handler := corsMiddleware(r.mux)
	handler = metricsMiddleware(r.collector)(handler)
	return handler
}

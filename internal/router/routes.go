// Package router provides HTTP routing configuration for the alert-service API.
package router

// setupRoutes configures all HTTP routes for the API. Patterns carry the
// method so the mux rejects everything else with 405.
func (r *Router) setupRoutes() {
	// Operator endpoints. Literal segments (active, history, stats) must be
	// registered alongside the {id} wildcard; the mux prefers the more
	// specific pattern.
	r.mux.HandleFunc("GET /api/v1/alerts", r.handlers.ListAlerts)
	r.mux.HandleFunc("GET /api/v1/alerts/active", r.handlers.GetActiveAlerts)
	r.mux.HandleFunc("GET /api/v1/alerts/history/{region}", r.handlers.GetAlertHistory)
	r.mux.HandleFunc("GET /api/v1/alerts/stats", r.handlers.GetAlertStats)
	r.mux.HandleFunc("GET /api/v1/alerts/{id}", r.handlers.GetAlert)
	r.mux.HandleFunc("POST /api/v1/alerts/{id}/acknowledge", r.handlers.AcknowledgeAlert)
	r.mux.HandleFunc("POST /api/v1/alerts/{id}/resolve", r.handlers.ResolveAlert)
	r.mux.HandleFunc("POST /api/v1/alerts/bulk-resolve", r.handlers.BulkResolveAlerts)
	r.mux.HandleFunc("POST /api/v1/alerts/auto-resolve", r.handlers.AutoResolveAlerts)

	// User endpoints (meter identity from the X-Meter-ID header)
	r.mux.HandleFunc("GET /api/v1/my/alerts", r.handlers.ListMyAlerts)
	r.mux.HandleFunc("GET /api/v1/my/alerts/{id}", r.handlers.GetMyAlert)

	// Service metrics endpoint (from Redis)
	r.mux.HandleFunc("GET /api/v1/services/metrics", r.handlers.GetServiceMetrics)

	// Health check endpoint
	r.mux.HandleFunc("GET /health", r.handlers.Health)
}

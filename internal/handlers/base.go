package handlers

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	manager AlertManager
	metrics MetricsReader
	db      Pinger
	cache   Pinger
}

// NewHandlers creates a new handlers instance. db and cache are pinged by the
// health endpoint only.
func NewHandlers(manager AlertManager, metricsReader MetricsReader, db Pinger, cache Pinger) *Handlers {
	return &Handlers{
		manager: manager,
		metrics: metricsReader,
		db:      db,
		cache:   cache,
	}
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency probe on /health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// The hub posts every lifecycle phase to the webhook root.
	r.Post("/", s.handleLifecycle)

	r.Get("/health", s.handleHealth)

	return r
}

// handleHealth reports the server's health plus each wired dependency.
// Dependency failures degrade the status but still return 200 so load
// balancers keep routing webhook traffic while, say, InfluxDB is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	deps := make(map[string]string, len(s.health))

	for name, checker := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		if err := checker.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
		} else {
			deps[name] = "ok"
		}
		cancel()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"version":      s.version,
		"dependencies": deps,
	})
}

package api

import (
	"context"
	"net/http"
	"time"

	"dispatchboard/internal/buildinfo"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness; the load store must answer a ping.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// DebugJSON reports build and non-secret runtime configuration.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	cfg := map[string]any{
		"authMode":     s.Auth.Mode(),
		"gridSize":     s.GridSize,
		"direction":    s.Direction,
		"maxBodyBytes": s.MaxBodyBytes,
		"rateLimited":  s.Limiter != nil,
		"thresholds":   s.Defaults,
	}
	for k, v := range s.Info {
		cfg[k] = v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"build":  buildinfo.Info(),
		"time":   s.Now().UTC().Format(time.RFC3339),
		"config": cfg,
	})
}

// Package api implements the dashboard HTTP API: loads, flags, map
// aggregates, per-user settings and live refresh.
package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dispatchboard/internal/auth"
	"dispatchboard/internal/metrics"
	"dispatchboard/internal/model"
	"dispatchboard/internal/settings"
	"dispatchboard/internal/store"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	Store    store.Store
	Settings settings.Store
	Auth     *auth.Verifier
	Broker   EventBroker

	// Defaults are the thresholds used when a user has saved none.
	Defaults  model.Thresholds
	GridSize  float64
	Direction model.Direction

	MaxBodyBytes int64
	Limiter      *RateLimiter
	Now          func() time.Time
	Info         map[string]any
}

// Options configures NewServer. Zero values select in-memory backends and
// package defaults.
type Options struct {
	Store        store.Store
	Settings     settings.Store
	Auth         *auth.Verifier
	Broker       EventBroker
	Thresholds   *model.Thresholds
	GridSize     float64
	Direction    model.Direction
	MaxBodyBytes int64
	RateRPS      float64
	RateBurst    int
	Info         map[string]any
}

func NewServer(o Options) *Server {
	s := &Server{
		Store:        o.Store,
		Settings:     o.Settings,
		Auth:         o.Auth,
		Broker:       o.Broker,
		Defaults:     model.DefaultThresholds(),
		GridSize:     o.GridSize,
		Direction:    o.Direction,
		MaxBodyBytes: o.MaxBodyBytes,
		Now:          time.Now,
		Info:         o.Info,
	}
	if s.Store == nil {
		s.Store = store.NewMemory()
	}
	if s.Settings == nil {
		s.Settings = settings.NewMemory()
	}
	if s.Auth == nil {
		s.Auth = auth.NewVerifier(auth.Config{Mode: "dev"})
	}
	if s.Broker == nil {
		s.Broker = NewBroker()
	}
	if o.Thresholds != nil {
		s.Defaults = *o.Thresholds
	}
	if !(s.GridSize > 0) {
		s.GridSize = 1.0
	}
	if s.Direction == "" {
		s.Direction = model.Inbound
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = 10 << 20
	}
	if o.RateRPS > 0 {
		s.Limiter = NewRateLimiter(o.RateRPS, o.RateBurst)
	}
	return s
}

// Routes returns the service handler with middleware applied.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", s.HealthHandler)
	mux.HandleFunc("GET /readyz", s.ReadyHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /debug/info", s.DebugJSON)
	mux.HandleFunc("GET /openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("GET /openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("GET /docs", s.DocsHandler)

	// Loads and flags
	mux.Handle("GET /v1/loads", s.authed(s.ListLoadsHandler))
	mux.Handle("POST /v1/loads", s.authed(s.ImportLoadsHandler))
	mux.Handle("GET /v1/loads/{id}", s.authed(s.GetLoadHandler))
	mux.Handle("GET /v1/loads/{id}/flags", s.authed(s.LoadFlagsHandler))
	mux.Handle("POST /v1/flags", s.authed(s.FlagsHandler))

	// Map aggregates
	mux.Handle("GET /v1/clusters", s.authed(s.ClustersHandler))
	mux.Handle("GET /v1/states", s.authed(s.StatesHandler))

	// Settings
	mux.Handle("GET /v1/settings/thresholds", s.authed(s.GetThresholdsHandler))
	mux.Handle("PUT /v1/settings/thresholds", s.authed(s.PutThresholdsHandler))
	mux.Handle("DELETE /v1/settings/thresholds", s.authed(s.ResetThresholdsHandler))

	// Live refresh
	mux.Handle("GET /v1/ws", s.authed(s.WSHandler))
	mux.Handle("GET /v1/events/stream", s.authed(s.EventsStreamHandler))

	var h http.Handler = mux
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	return instrument(mux, h)
}

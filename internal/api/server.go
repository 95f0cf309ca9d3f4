package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"petrovrp/internal/auth"
	"petrovrp/internal/broker"
	"petrovrp/internal/config"
	"petrovrp/internal/metrics"
	"petrovrp/internal/service"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	Instances *service.Instances
	Broker    broker.EventBroker
	Settings  config.Settings
	// Auth guards the write endpoints; nil accepts every caller.
	Auth *auth.Verifier
	// Ready maps a dependency name to its readiness check.
	Ready map[string]Pinger
}

// Handler builds the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /v1/instances", s.requireAuth(http.HandlerFunc(s.CreateInstanceHandler)))
	mux.HandleFunc("GET /v1/instances", s.ListInstancesHandler)
	mux.HandleFunc("GET /v1/instances/{id}", s.GetInstanceHandler)
	mux.Handle("POST /v1/batches", s.requireAuth(http.HandlerFunc(s.CreateBatchHandler)))
	mux.HandleFunc("GET /v1/difficulties", s.DifficultiesHandler)
	mux.HandleFunc("GET /v1/events/stream", s.EventsStreamHandler)

	mux.HandleFunc("GET /healthz", s.HealthHandler)
	mux.HandleFunc("GET /readyz", s.ReadyHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /debug/config", s.DebugHandler)

	mux.HandleFunc("GET /openapi.yaml", s.OpenAPIHandler)
	mux.HandleFunc("GET /openapi.json", s.OpenAPIJSONHandler)
	mux.HandleFunc("GET /docs", s.DocsHandler)

	var h http.Handler = instrument(mux)
	if s.Settings.RateLimit > 0 {
		burst := max(s.Settings.RateBurst, 1)
		h = rateLimit(rate.NewLimiter(rate.Limit(s.Settings.RateLimit), burst), h)
	}
	return requestID(accessLog(h))
}

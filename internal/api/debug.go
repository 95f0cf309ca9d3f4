package api

import (
	"net/http"
	"time"

	"petrovrp/internal/buildinfo"
)

// DebugHandler reports build info and the effective non-secret settings.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
	cfg := s.Settings
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"store":            cfg.Store,
			"outputDir":        cfg.OutputDir,
			"parallelism":      cfg.Parallelism,
			"rateLimit":        cfg.RateLimit,
			"rateBurst":        cfg.RateBurst,
			"webhookEndpoints": len(cfg.WebhookURLs),
			"hasDatabaseURL":   cfg.DatabaseURL != "",
			"hasRedisURL":      cfg.RedisURL != "",
			"hasWebhookSecret": cfg.WebhookSecret != "",
		},
	})
}

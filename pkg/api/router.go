// Package api exposes the donation snapshot service over HTTP.
package api

import (
	"net/http"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/logging"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger receives access lines and handler errors
	Logger zerolog.Logger

	// RateLimit, when set, gates the donation route per client
	RateLimit func(http.Handler) http.Handler
}

// NewRouter builds the HTTP router:
//
//	GET /donations/{org_id}  donation snapshot as JSON
//	GET /health              liveness
//	GET /ready               readiness
//	GET /metrics             Prometheus exposition
func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID, middleware.RealIP, logging.AccessLog(cfg.Logger), middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Get("/donations/{org_id}", h.Donation)
	})

	return r
}

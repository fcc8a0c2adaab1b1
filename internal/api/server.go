// SPDX-License-Identifier: MIT

// Package api exposes the configuration service over HTTP: the current
// resolved document, on-demand validation/resolution of submitted
// documents, and the stored snapshot history.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/confplane/expconf/internal/config"
	xlog "github.com/confplane/expconf/internal/log"
	"github.com/confplane/expconf/internal/registry"
	"github.com/confplane/expconf/internal/schema"
)

// maxBodyBytes caps submitted documents; experiment configs are small.
const maxBodyBytes = 1 << 20

// Options configures the API server.
type Options struct {
	// Holder provides the currently loaded document; nil when the daemon
	// runs without a watched config file.
	Holder *config.Holder
	// Registry persists resolved snapshots; nil disables snapshot routes.
	Registry *registry.Store
	// Schema validates submitted documents.
	Schema *schema.Schema
	// RateLimitRPM is the per-IP request budget per minute; 0 disables
	// rate limiting.
	RateLimitRPM int
}

// Server is the HTTP API server.
type Server struct {
	holder   *config.Holder
	registry *registry.Store
	schema   *schema.Schema
	logger   zerolog.Logger
	router   *chi.Mux
}

// New constructs the server and its route tree.
func New(opts Options) *Server {
	s := &Server{
		holder:   opts.Holder,
		registry: opts.Registry,
		schema:   opts.Schema,
		logger:   xlog.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(requestMetrics)
	if opts.RateLimitRPM > 0 {
		r.Use(httprate.Limit(
			opts.RateLimitRPM,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate_limit_exceeded",
				})
			}),
		))
	}

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Post("/config/reload", s.handleReload)
		r.Post("/validate", s.handleValidate)
		r.Post("/resolve", s.handleResolve)
		r.Get("/snapshots", s.handleSnapshotList)
		r.Get("/snapshots/{id}", s.handleSnapshotGet)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

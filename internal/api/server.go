// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the loopback host bridge: it exposes the engine's button
// state and lifecycle hooks to the UI adapter over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/holostreams/internal/api/middleware"
	"github.com/ManuGH/holostreams/internal/health"
	"github.com/ManuGH/holostreams/internal/streams"
)

const (
	defaultActivateTimeout = 30 * time.Second
	defaultMaxWait         = 60 * time.Second
)

// Engine is the slice of the sync engine the bridge serves.
type Engine interface {
	Buttons() []streams.Session
	Session(id string) (streams.Session, bool)
	Label(id string) (string, bool)
	Image(id string) ([]byte, streams.Session, bool)
	Press(ctx context.Context, id string) (string, error)
	Activate(ctx context.Context) error
	Deactivate()
}

// Config configures the bridge.
type Config struct {
	TracingService     string // empty disables tracing
	RateLimitPerMinute int
	ActivateTimeout    time.Duration
	MaxWait            time.Duration // cap for long-polling /revisions
}

// Server serves the bridge routes.
type Server struct {
	cfg    Config
	engine Engine
	revs   *Revisions
	health *health.Manager

	// dimmed renderings keyed by talent id; stored avatars never change
	dimMu  sync.Mutex
	dimmed map[string][]byte
}

// New creates a bridge server. hm may be nil.
func New(cfg Config, eng Engine, revs *Revisions, hm *health.Manager) *Server {
	if cfg.ActivateTimeout <= 0 {
		cfg.ActivateTimeout = defaultActivateTimeout
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	if revs == nil {
		revs = NewRevisions()
	}
	return &Server{
		cfg:    cfg,
		engine: eng,
		revs:   revs,
		health: hm,
		dimmed: make(map[string][]byte),
	}
}

// Handler builds the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
		RateLimitPerMinute:    s.cfg.RateLimitPerMinute,
	})

	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/buttons", s.handleButtons)
		r.Get("/buttons/{id}/image", s.handleImage)
		r.Get("/buttons/{id}/label", s.handleLabel)
		r.Get("/revisions", s.handleRevisions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ActionRateLimit())
			r.Post("/buttons/{id}/press", s.handlePress)
			r.Post("/activate", s.handleActivate)
			r.Post("/deactivate", s.handleDeactivate)
		})
	})

	return r
}

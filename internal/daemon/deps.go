// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/holostreams/internal/config"
)

// Engine is the lifecycle surface of the sync engine.
type Engine interface {
	Start(ctx context.Context) error
	Stop()
}

// Worker is a background worker without a start context, like the avatar
// download pool.
type Worker interface {
	Start()
	Stop()
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	Config config.AppConfig

	// APIHandler serves the host bridge
	APIHandler http.Handler

	Engine Engine

	// Avatars is optional; it is started before and stopped after Engine.
	Avatars Worker
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	if d.Engine == nil {
		return ErrMissingEngine
	}
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/rs/zerolog"
)

// logger returns a component logger for bridge handlers.
func logger(component string) *zerolog.Logger {
	l := xglog.WithComponent(component)
	return &l
}

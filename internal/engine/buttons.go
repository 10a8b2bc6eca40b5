// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"context"
	"slices"

	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/streams"
)

// ButtonIDs returns the published display order.
func (e *Engine) ButtonIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.snap.Order)
}

// Buttons returns the published sessions in display order.
func (e *Engine) Buttons() []streams.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]streams.Session, 0, len(e.snap.Order))
	for _, id := range e.snap.Order {
		out = append(out, e.snap.Sessions[id])
	}
	return out
}

// Session returns the published session for id.
func (e *Engine) Session(id string) (streams.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Lookup(id)
}

// Label returns the talent name shown for id.
func (e *Engine) Label(id string) (string, bool) {
	s, ok := e.Session(id)
	if !ok {
		return "", false
	}
	return s.TalentName, true
}

// Image returns the cached avatar for id with its session, so the caller can
// apply the live/upcoming presentation. ok is false if the session is unknown
// or no avatar is cached yet.
func (e *Engine) Image(id string) (data []byte, s streams.Session, ok bool) {
	s, ok = e.Session(id)
	if !ok || e.images == nil {
		return nil, s, false
	}
	data, err := e.images.Load(s.TalentID)
	if err != nil {
		return nil, s, false
	}
	return data, s, true
}

// Press resolves the viewing URL for id and hands it to the Opener, if any.
func (e *Engine) Press(ctx context.Context, id string) (string, error) {
	if _, ok := e.Session(id); !ok {
		return "", ErrUnknownSession
	}
	url := streams.WatchURL(id)

	logger := xglog.WithComponentFromContext(ctx, "engine")
	logger.Info().
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldURL, url).
		Msg("button pressed")

	if e.opts.Opener != nil {
		if err := e.opts.Opener(ctx, url); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldSessionID, id).Msg("open failed")
			return url, err
		}
	}
	return url, nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/holostreams/internal/avatar"
	"github.com/ManuGH/holostreams/internal/engine"
	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/streams"
)

// Button is one entry of the buttons listing.
type Button struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	TalentID      string         `json:"talentId"`
	Status        streams.Status `json:"status"`
	Title         string         `json:"title,omitempty"`
	StartsAt      time.Time      `json:"startsAt,omitzero"`
	ImageRevision uint64         `json:"imageRevision"`
}

// ButtonsResponse is the body of GET /api/v1/buttons.
type ButtonsResponse struct {
	Revision uint64   `json:"revision"`
	Buttons  []Button `json:"buttons"`
}

// PressResponse is the body of POST /api/v1/buttons/{id}/press.
type PressResponse struct {
	URL string `json:"url"`
}

func (s *Server) buttons() ButtonsResponse {
	snap := s.revs.Snapshot()
	sessions := s.engine.Buttons()

	out := ButtonsResponse{Revision: snap.Buttons, Buttons: make([]Button, 0, len(sessions))}
	for _, sess := range sessions {
		out.Buttons = append(out.Buttons, Button{
			ID:            sess.ID,
			Label:         sess.TalentName,
			TalentID:      sess.TalentID,
			Status:        sess.Status,
			Title:         sess.Title,
			StartsAt:      sess.StartsAt,
			ImageRevision: snap.Images[sess.ID],
		})
	}
	return out
}

func (s *Server) handleButtons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.buttons())
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	label, ok := s.engine.Label(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(label))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, sess, ok := s.engine.Image(id)
	if !ok {
		writeNotFound(w)
		return
	}

	if r.URL.Query().Get("variant") != "raw" && !sess.Status.IsLive() {
		dimmed, err := s.dim(sess.TalentID, data)
		if err != nil {
			logger("api").Warn().Err(err).
				Str(xglog.FieldSessionID, id).
				Str(xglog.FieldTalentID, sess.TalentID).
				Msg("dimming avatar failed")
			writeNotFound(w)
			return
		}
		data = dimmed
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) dim(talentID string, data []byte) ([]byte, error) {
	s.dimMu.Lock()
	cached, ok := s.dimmed[talentID]
	s.dimMu.Unlock()
	if ok {
		return cached, nil
	}

	out, err := avatar.Dim(data)
	if err != nil {
		return nil, err
	}
	s.dimMu.Lock()
	s.dimmed[talentID] = out
	s.dimMu.Unlock()
	return out, nil
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	url, err := s.engine.Press(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, engine.ErrUnknownSession):
		writeNotFound(w)
	case err != nil:
		writeJSON(w, http.StatusBadGateway, struct {
			errorResponse
			URL string `json:"url"`
		}{errorResponse{Error: "open_failed", Detail: err.Error()}, url})
	default:
		writeJSON(w, http.StatusOK, PressResponse{URL: url})
	}
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ActivateTimeout)
	defer cancel()

	if err := s.engine.Activate(ctx); err != nil {
		if errors.Is(err, engine.ErrStopped) {
			writeServiceUnavailable(w, err)
			return
		}
		writeError(w, http.StatusGatewayTimeout, "activate_timeout", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.buttons())
}

func (s *Server) handleDeactivate(w http.ResponseWriter, _ *http.Request) {
	s.engine.Deactivate()
	w.WriteHeader(http.StatusNoContent)
}

// handleRevisions returns the revisions, long-polling when ?since= names the
// caller's current buttons revision and ?wait= a duration.
func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("since") == "" || q.Get("wait") == "" {
		writeJSON(w, http.StatusOK, s.revs.Snapshot())
		return
	}

	since, err := strconv.ParseUint(q.Get("since"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_since", err.Error())
		return
	}
	wait, err := time.ParseDuration(q.Get("wait"))
	if err != nil || wait <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_wait", "wait must be a positive duration")
		return
	}
	wait = min(wait, s.cfg.MaxWait)

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()
	writeJSON(w, http.StatusOK, s.revs.Wait(ctx, since))
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ManuGH/holostreams/internal/engine"
	"github.com/ManuGH/holostreams/internal/holodex"
)

const liveFeed = `[
  {"id":"s1","status":"live","channel":{"id":"A","english_name":"Alpha","org":"Hololive","photo":"http://img/A"}},
  {"id":"s3","status":"upcoming","start_scheduled":"2030-01-01T00:40:00Z","channel":{"id":"C","english_name":"Gamma","org":"Hololive","photo":"http://img/C"}},
  {"id":"s2","status":"upcoming","start_scheduled":"2030-01-01T00:10:00Z","channel":{"id":"B","english_name":"Beta","org":"Hololive","photo":"http://img/B"}}
]`

// Directory feed -> engine -> bridge, with the bridge's Revisions as the
// engine's notifier.
func TestBridge_ActivateServesFreshButtons(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-APIKEY") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(liveFeed))
	}))
	defer upstream.Close()

	dir := holodex.New(upstream.URL, "key", holodex.Options{Timeout: time.Second, RateLimit: rate.Inf})
	revs := NewRevisions()
	eng := engine.New(dir, nil, nil, revs, engine.Options{Interval: time.Hour})
	require.NoError(t, eng.Start(context.Background()))
	defer eng.Stop()

	h := New(Config{}, eng, revs, nil).Handler()

	w := serve(t, h, http.MethodGet, "/api/v1/buttons")
	var resp ButtonsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Buttons, "no fetch before activation")

	w = serve(t, h, http.MethodPost, "/api/v1/activate")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	ids := make([]string, 0, len(resp.Buttons))
	for _, b := range resp.Buttons {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids)
	assert.Equal(t, uint64(1), resp.Revision)
	for _, b := range resp.Buttons {
		assert.Equal(t, uint64(1), b.ImageRevision, b.ID)
	}

	// no avatars are cached in this setup
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/api/v1/buttons/s1/image").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/v1/buttons/s2/label").Code)
}

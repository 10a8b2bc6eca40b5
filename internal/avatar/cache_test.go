// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/holostreams/internal/platform/httpx"
)

func encodedImage(t *testing.T, format imaging.Format, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func imageServer(t *testing.T, body []byte, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEnsure_DownloadsAndResizes(t *testing.T) {
	for _, format := range []imaging.Format{imaging.JPEG, imaging.PNG, imaging.GIF} {
		t.Run(format.String(), func(t *testing.T) {
			srv, hits := imageServer(t, encodedImage(t, format, 88, 40), http.StatusOK)
			dir := filepath.Join(t.TempDir(), "images")
			c := NewCache(dir, httpx.NewClient(0))

			outcome, err := c.Ensure(context.Background(), "UC-abc_1", srv.URL)
			require.NoError(t, err)
			assert.Equal(t, OutcomeDownloaded, outcome)

			p, err := c.Path("UC-abc_1")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "UC-abc_1.png"), p)

			f, err := os.Open(p)
			require.NoError(t, err)
			defer f.Close()
			cfg, name, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, "png", name)
			assert.Equal(t, Size, cfg.Width)
			assert.Equal(t, Size, cfg.Height)

			info, err := os.Stat(p)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

			// second call is a disk hit and does not refetch
			outcome, err = c.Ensure(context.Background(), "UC-abc_1", srv.URL)
			require.NoError(t, err)
			assert.Equal(t, OutcomeHit, outcome)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestEnsure_ExistingFileNeverRefetched(t *testing.T) {
	srv, hits := imageServer(t, encodedImage(t, imaging.PNG, 10, 10), http.StatusOK)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.png"), []byte("stale"), 0o644))

	c := NewCache(dir, httpx.NewClient(0))
	outcome, err := c.Ensure(context.Background(), "t1", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHit, outcome)
	assert.Zero(t, hits.Load())
}

func TestEnsure_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		status int
		stage  string
	}{
		{"http error", []byte("gone"), http.StatusNotFound, "fetch"},
		{"not an image", []byte("<html>"), http.StatusOK, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := imageServer(t, tt.body, tt.status)
			dir := t.TempDir()
			c := NewCache(dir, httpx.NewClient(0))

			_, err := c.Ensure(context.Background(), "t1", srv.URL)
			var ie *ImageError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.stage, ie.Stage)
			assert.Equal(t, "t1", ie.TalentID)
			assert.False(t, c.Has("t1"))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no partial files")
		})
	}
}

func TestPath_RejectsUnsafeKeys(t *testing.T) {
	c := NewCache(t.TempDir(), httpx.NewClient(0))
	for _, key := range []string{"", "..", "../x", "a/b", `a\b`, "a.png"} {
		_, err := c.Path(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
	_, err := c.Ensure(context.Background(), "../etc", "http://unused")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestEnsure_ConcurrentCallsShareDownload(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	body := encodedImage(t, imaging.PNG, 16, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), httpx.NewClient(0))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Ensure(context.Background(), "shared", srv.URL)
			assert.NoError(t, err)
		}()
	}
	// let the first request reach the handler before releasing it
	require.Eventually(t, func() bool { return hits.Load() == 1 }, timeoutShort, tick)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, c.Has("shared"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, httpx.NewClient(0))
	assert.Equal(t, dir, c.Dir())

	_, err := c.Load("missing")
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "t1.png"), []byte("png-bytes"), 0o644))
	b, err := c.Load("t1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), b)
}

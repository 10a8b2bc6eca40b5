// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package avatar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/holostreams/internal/platform/httpx"
)

const (
	timeoutShort = 2 * time.Second
	tick         = 10 * time.Millisecond
)

func TestPool_StoresAndNotifies(t *testing.T) {
	srv, _ := imageServer(t, encodedImage(t, imaging.PNG, 20, 20), http.StatusOK)
	c := NewCache(t.TempDir(), httpx.NewClient(time.Second))

	var mu sync.Mutex
	var stored []string
	p := NewPool(c, PoolConfig{Workers: 2, QueueSize: 8}, func(id string) {
		mu.Lock()
		stored = append(stored, id)
		mu.Unlock()
	})
	p.Start()

	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: srv.URL}))
	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "b", URL: srv.URL}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(stored) == 2
	}, timeoutShort, tick)
	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("b"))

	// cached now: accepted without queueing, no further notification
	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: srv.URL}))

	p.Stop()
	mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b"}, stored)
	mu.Unlock()
}

func TestPool_FailureIsRetriedOnNextEnqueue(t *testing.T) {
	var fail sync.Mutex
	failing := true
	body := encodedImage(t, imaging.PNG, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fail.Lock()
		defer fail.Unlock()
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewCache(t.TempDir(), httpx.NewClient(time.Second))
	p := NewPool(c, PoolConfig{Workers: 1, QueueSize: 4}, nil)
	p.Start()
	defer p.Stop()

	require.True(t, p.Enqueue(context.Background(), Job{TalentID: "x", URL: srv.URL}))
	require.Eventually(t, func() bool {
		p.inflightMu.Lock()
		defer p.inflightMu.Unlock()
		return len(p.inflight) == 0
	}, timeoutShort, tick)
	assert.False(t, c.Has("x"))

	fail.Lock()
	failing = false
	fail.Unlock()

	require.True(t, p.Enqueue(context.Background(), Job{TalentID: "x", URL: srv.URL}))
	require.Eventually(t, func() bool { return c.Has("x") }, timeoutShort, tick)
}

func TestPool_DedupesInflight(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewCache(t.TempDir(), httpx.NewClient(time.Second))
	p := NewPool(c, PoolConfig{Workers: 1, QueueSize: 4}, nil)
	// not started: jobs stay queued

	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: "http://127.0.0.1:1/a"}))
	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: "http://127.0.0.1:1/a"}))
	assert.Len(t, p.jobs, 1)

	p.Stop()
}

func TestPool_DropsWhenFull(t *testing.T) {
	c := NewCache(t.TempDir(), httpx.NewClient(time.Second))
	p := NewPool(c, PoolConfig{Workers: 1, QueueSize: 1}, nil)
	defer p.Stop()

	assert.True(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: "http://x/a"}))
	assert.False(t, p.Enqueue(context.Background(), Job{TalentID: "b", URL: "http://x/b"}))
}

func TestPool_EnqueueAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewCache(t.TempDir(), httpx.NewClient(time.Second))
	p := NewPool(c, PoolConfig{}, nil)
	p.Start()
	p.Stop()
	p.Stop()

	assert.False(t, p.Enqueue(context.Background(), Job{TalentID: "a", URL: "http://x/a"}))
	assert.False(t, p.Enqueue(context.Background(), Job{}))
}

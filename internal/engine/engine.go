// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine runs the sync loop: fetch the directory, apply the
// filter/ordering policy, publish the snapshot when the display order changes
// and tell the adapter what to repaint.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/holostreams/internal/avatar"
	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/metrics"
	"github.com/ManuGH/holostreams/internal/streams"
	"github.com/ManuGH/holostreams/internal/telemetry"
)

// DefaultInterval is the wait between background cycles.
const DefaultInterval = 60 * time.Second

var (
	ErrStopped        = errors.New("engine: stopped")
	ErrAlreadyStarted = errors.New("engine: already started")
	ErrUnknownSession = errors.New("engine: unknown session")
)

// Directory fetches the raw session listing.
type Directory interface {
	Live(ctx context.Context) ([]streams.Raw, error)
}

// AvatarQueue accepts fire-and-forget avatar population requests.
type AvatarQueue interface {
	Enqueue(ctx context.Context, job avatar.Job) bool
}

// ImageStore reads cached avatars.
type ImageStore interface {
	Load(talentID string) ([]byte, error)
}

// Notifier receives repaint signals. Implementations must not block.
type Notifier interface {
	ButtonsChanged(ids []string)
	ImageChanged(id string)
}

// Opener performs the external "open this session" action.
type Opener func(ctx context.Context, url string) error

// Options configures an Engine.
type Options struct {
	Interval time.Duration
	Filter   streams.Filter
	Opener   Opener
}

// Engine owns the published snapshot and the poll loop.
type Engine struct {
	dir     Directory
	avatars AvatarQueue
	images  ImageStore
	notify  Notifier
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// mu guards the snapshot, lifecycle state and health fields.
	mu          sync.Mutex
	snap        streams.Snapshot
	state       State
	active      bool
	lastSuccess time.Time
	lastErr     error
	failures    int

	// notifyMu is taken before mu is released on publish, so notifications
	// are delivered in publish order.
	notifyMu sync.Mutex
}

// New creates an idle engine. avatars and images may be nil.
func New(dir Directory, avatars AvatarQueue, images ImageStore, notify Notifier, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if notify == nil {
		notify = nopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		dir:     dir,
		avatars: avatars,
		images:  images,
		notify:  notify,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		snap:    streams.Snapshot{Sessions: map[string]streams.Session{}},
	}
}

// Start transitions Idle -> Polling and launches the poll loop. The loop
// exits when ctx is canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case StateStopped:
		e.mu.Unlock()
		return ErrStopped
	case StatePolling:
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.state = StatePolling
	e.mu.Unlock()

	stop := context.AfterFunc(ctx, e.cancel)
	go func() {
		defer close(e.done)
		defer stop()
		e.loop()
	}()

	logger := xglog.WithComponent("engine")
	logger.Info().
		Dur("interval", e.opts.Interval).
		Msg("sync loop started")
	return nil
}

// Stop cancels the loop and any in-flight fetch and waits for the loop to
// exit. No cycle starts after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasPolling := e.state == StatePolling
	e.state = StateStopped
	e.active = false
	e.mu.Unlock()

	e.cancel()
	if wasPolling {
		<-e.done
	}
}

func (e *Engine) loop() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-timer.C:
		}

		if e.isActive() {
			_, _ = e.RunCycle(e.ctx)
		}
		timer.Reset(e.opts.Interval)
	}
}

// Activate marks the view as foregrounded after one synchronous cycle, so the
// first read after activation sees fresh data. A failed fetch is absorbed;
// only Stop and caller cancellation are reported.
func (e *Engine) Activate(ctx context.Context) error {
	if e.State() == StateStopped {
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()

	if _, err := e.RunCycle(ctx); err != nil {
		if e.ctx.Err() != nil {
			return ErrStopped
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateStopped {
		return ErrStopped
	}
	e.active = true
	return nil
}

// Deactivate marks the view as backgrounded; background cycles stop fetching.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
}

func (e *Engine) isActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// RunCycle performs one fetch -> filter -> order -> diff -> publish pass and
// reports whether a new snapshot was published. On error the published
// snapshot is untouched.
func (e *Engine) RunCycle(ctx context.Context) (changed bool, err error) {
	cycleID := uuid.NewString()
	ctx = xglog.ContextWithCycleID(ctx, cycleID)
	ctx, span := telemetry.Tracer("holostreams/engine").Start(ctx, "sync.cycle")
	defer span.End()

	logger := xglog.WithComponentFromContext(ctx, "engine")
	start := time.Now()

	raws, err := e.dir.Live(ctx)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			metrics.IncSyncCycle("canceled")
			span.SetAttributes(telemetry.CycleAttributes(cycleID, "canceled", 0, 0)...)
			return false, err
		}
		e.recordFailure(err)
		metrics.IncSyncCycle("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		span.SetAttributes(telemetry.ErrorAttributes(err, "fetch")...)
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "sync.fetch_failed").
			Msg("directory fetch failed, keeping previous buttons")
		return false, fmt.Errorf("fetch: %w", err)
	}

	next := streams.Apply(raws, e.opts.Filter)
	e.enqueueAvatars(ctx, streams.Survivors(raws, e.opts.Filter, next))

	changed = e.publish(next)

	outcome := "unchanged"
	if changed {
		outcome = "changed"
	}

	metrics.IncSyncCycle(outcome)
	span.SetAttributes(telemetry.CycleAttributes(cycleID, outcome, len(raws), next.Len())...)
	logger.Info().
		Str(xglog.FieldEvent, "sync.cycle").
		Str("outcome", outcome).
		Int("raw", len(raws)).
		Int("sessions", next.Len()).
		Dur("duration", time.Since(start)).
		Msg("sync cycle complete")
	return changed, nil
}

// publish replaces the snapshot if the display order differs and notifies
// the adapter. Compare and swap happen under one lock so racing cycles cannot
// both publish from the same baseline.
func (e *Engine) publish(next streams.Snapshot) bool {
	now := time.Now()

	e.mu.Lock()
	e.lastSuccess = now
	e.lastErr = nil
	e.failures = 0
	metrics.MarkSyncSuccess(now)

	if e.snap.SameOrder(next) {
		e.mu.Unlock()
		return false
	}
	e.snap = next
	metrics.SetPublishedSessions(next.Len())

	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	e.notify.ButtonsChanged(next.Order)
	metrics.IncNotification("buttons")
	for _, id := range next.Order {
		e.notify.ImageChanged(id)
		metrics.IncNotification("image")
	}
	return true
}

func (e *Engine) recordFailure(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.failures++
	e.mu.Unlock()
}

func (e *Engine) enqueueAvatars(ctx context.Context, survivors []streams.Raw) {
	if e.avatars == nil {
		return
	}
	for _, r := range survivors {
		e.avatars.Enqueue(ctx, avatar.Job{TalentID: r.TalentID, URL: r.ImageURL})
	}
}

// AvatarStored signals an image change for every published button of
// talentID. It is the avatar pool's store callback.
func (e *Engine) AvatarStored(talentID string) {
	e.mu.Lock()
	ids := e.snap.IDsForTalent(talentID)
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, id := range ids {
		e.notify.ImageChanged(id)
		metrics.IncNotification("image")
	}
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Status returns a health snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		State:               e.state.String(),
		Active:              e.active,
		LastSuccess:         e.lastSuccess,
		ConsecutiveFailures: e.failures,
		Sessions:            e.snap.Len(),
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

type nopNotifier struct{}

func (nopNotifier) ButtonsChanged([]string) {}
func (nopNotifier) ImageChanged(string)     {}

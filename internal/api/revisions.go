// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"maps"
	"sync"
)

// Revisions materializes the engine's push notifications as counters that
// a polling host can compare: the buttons revision bumps on "buttons changed",
// a per-id image revision bumps on "button image changed".
type Revisions struct {
	mu      sync.Mutex
	buttons uint64
	images  map[string]uint64
	changed chan struct{} // closed and replaced on every bump
}

// RevisionSnapshot is the wire form of Revisions.
type RevisionSnapshot struct {
	Buttons uint64            `json:"buttons"`
	Images  map[string]uint64 `json:"images"`
}

// NewRevisions returns zeroed revisions.
func NewRevisions() *Revisions {
	return &Revisions{
		images:  make(map[string]uint64),
		changed: make(chan struct{}),
	}
}

// ButtonsChanged implements engine.Notifier. Image revisions of ids that are
// no longer published are dropped.
func (r *Revisions) ButtonsChanged(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buttons++
	next := make(map[string]uint64, len(ids))
	for _, id := range ids {
		next[id] = r.images[id]
	}
	r.images = next
	r.broadcastLocked()
}

// ImageChanged implements engine.Notifier.
func (r *Revisions) ImageChanged(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.images[id]++
	r.broadcastLocked()
}

func (r *Revisions) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// Snapshot returns the current revisions.
func (r *Revisions) Snapshot() RevisionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Revisions) snapshotLocked() RevisionSnapshot {
	return RevisionSnapshot{Buttons: r.buttons, Images: maps.Clone(r.images)}
}

// Wait blocks until any revision changes after the call or ctx is done, then
// returns the current revisions. If the buttons revision already differs
// from since it returns immediately.
func (r *Revisions) Wait(ctx context.Context, since uint64) RevisionSnapshot {
	r.mu.Lock()
	if r.buttons != since {
		defer r.mu.Unlock()
		return r.snapshotLocked()
	}
	ch := r.changed
	r.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
	}
	return r.Snapshot()
}

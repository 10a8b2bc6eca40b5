// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package avatar

import (
	"context"
	"errors"
	"sync"

	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/metrics"
)

// PoolConfig defines configuration for the Pool.
type PoolConfig struct {
	Workers   int
	QueueSize int
}

// Job is one avatar to populate.
type Job struct {
	TalentID string
	URL      string
}

// Pool populates the cache in the background so a sync cycle never waits
// on image downloads.
type Pool struct {
	cache *Cache

	jobs    chan Job
	workers int

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	once     sync.Once
	stopOnce sync.Once

	// inflight dedupe across cycles; also guards stopped
	inflightMu sync.Mutex
	inflight   map[string]struct{}
	stopped    bool

	onStored func(talentID string)
}

// NewPool creates a pool writing into cache. onStored, if set, is called from
// a worker after a new avatar has been written.
func NewPool(cache *Cache, cfg PoolConfig, onStored func(talentID string)) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		cache:    cache,
		jobs:     make(chan Job, cfg.QueueSize),
		workers:  cfg.Workers,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
		onStored: onStored,
	}
}

// SetOnStored replaces the store callback. Call before Start.
func (p *Pool) SetOnStored(fn func(talentID string)) {
	p.onStored = fn
}

// Start launches the workers.
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for job := range p.jobs {
					p.handle(p.ctx, job)
				}
			}()
		}
	})
}

// Stop cancels in-flight downloads and waits for the workers to exit.
// Enqueue after Stop is a no-op.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.cancel()

		p.inflightMu.Lock()
		p.stopped = true
		close(p.jobs)
		p.inflightMu.Unlock()

		p.wg.Wait()
	})
}

// Enqueue schedules a download unless the avatar is cached, already queued,
// or the queue is full.
func (p *Pool) Enqueue(ctx context.Context, job Job) (enqueued bool) {
	if job.TalentID == "" || job.URL == "" {
		return false
	}
	if p.cache.Has(job.TalentID) {
		return true
	}

	p.inflightMu.Lock()
	defer p.inflightMu.Unlock()

	if p.stopped {
		return false
	}
	if _, ok := p.inflight[job.TalentID]; ok {
		metrics.IncAvatarFetch("dedup")
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		p.inflight[job.TalentID] = struct{}{}
		return true
	default:
		metrics.IncAvatarFetch("dropped")
		return false
	}
}

func (p *Pool) handle(ctx context.Context, job Job) {
	defer p.clearInflight(job.TalentID)

	logger := xglog.WithComponent("avatar")
	outcome, err := p.cache.Ensure(ctx, job.TalentID, job.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.IncAvatarFetch("error")
		logger.Warn().
			Err(err).
			Str(xglog.FieldTalentID, job.TalentID).
			Str(xglog.FieldEvent, "avatar.fetch_failed").
			Msg("avatar download failed, will retry next cycle")
		return
	}

	metrics.IncAvatarFetch(string(outcome))
	if outcome == OutcomeDownloaded {
		logger.Debug().Str(xglog.FieldTalentID, job.TalentID).Msg("avatar stored")
		if p.onStored != nil {
			p.onStored(job.TalentID)
		}
	}
}

func (p *Pool) clearInflight(talentID string) {
	p.inflightMu.Lock()
	delete(p.inflight, talentID)
	p.inflightMu.Unlock()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package opener runs a local command (xdg-open, open, a browser) with the
// watch URL of a pressed button. Each run gets its own process group so a
// hung helper and everything it spawned can be reaped together.
package opener

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	defaultGrace   = 2 * time.Second
)

// ErrNoCommand is returned by New for an empty argv.
var ErrNoCommand = errors.New("open command is empty")

// Options bounds a run.
type Options struct {
	Timeout time.Duration // whole run, including the helper's exit
	Grace   time.Duration // SIGTERM to SIGKILL
}

// Runner opens URLs with a fixed command line.
type Runner struct {
	argv []string
	opts Options
}

// New returns a Runner for argv; the URL is appended as the last argument.
func New(argv []string, opts Options) (*Runner, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Grace <= 0 {
		opts.Grace = defaultGrace
	}
	return &Runner{argv: append([]string(nil), argv...), opts: opts}, nil
}

// Open runs the command for url and waits for it to exit. If ctx ends or the
// timeout passes first, the process group is terminated.
func (r *Runner) Open(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	args := append(append([]string(nil), r.argv[1:]...), url)
	cmd := exec.Command(r.argv[0], args...) //nolint:gosec // operator-configured command
	setGroup(cmd)

	if err := cmd.Start(); err != nil {
		metrics.IncOpenerRun("start_failed")
		return fmt.Errorf("start %s: %w", r.argv[0], err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		if err != nil {
			metrics.IncOpenerRun("exit_nonzero")
			return fmt.Errorf("%s: %w", r.argv[0], err)
		}
		metrics.IncOpenerRun("ok")
		return nil
	case <-ctx.Done():
		logger := xglog.WithComponentFromContext(ctx, "opener")
		logger.Warn().
			Str("command", r.argv[0]).
			Int("pid", cmd.Process.Pid).
			Msg("open command did not exit in time, terminating process group")
		_ = terminate(cmd, waitCh, r.opts.Grace)
		metrics.IncOpenerRun("killed")
		return fmt.Errorf("%s: %w", r.argv[0], ctx.Err())
	}
}

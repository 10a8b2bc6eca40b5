// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package opener

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/holostreams/internal/metrics"
)

// errProcessGone is returned by signalGroup when the group no longer exists.
var errProcessGone = errors.New("process group already exited")

// terminate sends SIGTERM to the command's group, waits up to grace for
// waitCh, then sends SIGKILL. It always drains waitCh and returns its error.
func terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	send(cmd, syscall.SIGTERM, "SIGTERM")

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
	}

	send(cmd, syscall.SIGKILL, "SIGKILL")
	return <-waitCh
}

func send(cmd *exec.Cmd, sig os.Signal, name string) {
	switch err := signalGroup(cmd, sig); {
	case err == nil:
		metrics.IncOpenerSignal(name, "sent")
	case errors.Is(err, errProcessGone) || errors.Is(err, os.ErrProcessDone):
		metrics.IncOpenerSignal(name, "esrch")
	default:
		metrics.IncOpenerSignal(name, "error")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package opener

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setGroup starts cmd as the leader of a new process group.
func setGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// signalGroup signals the whole process group led by cmd.
func signalGroup(cmd *exec.Cmd, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return cmd.Process.Signal(sig)
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return errProcessGone
		}
		return err
	}
	// negative pid addresses the group
	if err := syscall.Kill(-pgid, s); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return errProcessGone
		}
		return err
	}
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !unix

package opener

import (
	"os"
	"os/exec"
)

func setGroup(*exec.Cmd) {}

// signalGroup only reaches the direct child; SIGTERM is not deliverable
// here, so every signal becomes a kill.
func signalGroup(cmd *exec.Cmd, _ os.Signal) error {
	return cmd.Process.Kill()
}

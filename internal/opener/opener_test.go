// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package opener

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchURL = "https://youtube.com/watch?v=abc"

func TestNew_EmptyCommand(t *testing.T) {
	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, ErrNoCommand)

	_, err = New([]string{""}, Options{})
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestOpen_PassesURLAsLastArgument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "url")
	r, err := New([]string{"sh", "-c", `printf %s "$1" > "$0"`, out}, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Open(context.Background(), watchURL))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, watchURL, string(got))
}

func TestOpen_NonZeroExit(t *testing.T) {
	r, err := New([]string{"sh", "-c", "exit 3"}, Options{})
	require.NoError(t, err)

	err = r.Open(context.Background(), watchURL)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestOpen_StartFailure(t *testing.T) {
	r, err := New([]string{filepath.Join(t.TempDir(), "missing-binary")}, Options{})
	require.NoError(t, err)

	err = r.Open(context.Background(), watchURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
}

func TestOpen_TimeoutReapsProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	// the shell backgrounds a child in its group, records the group id, then hangs
	r, err := New([]string{"sh", "-c", `sleep 30 & echo $$ > "$0"; wait`, pidFile},
		Options{Timeout: 200 * time.Millisecond, Grace: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	err = r.Open(context.Background(), watchURL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	var pgid int
	_, err = fmt.Sscan(string(data), &pgid)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(-pgid, 0), syscall.ESRCH)
	}, 2*time.Second, 20*time.Millisecond, "process group should be gone")
}

func TestOpen_CallerCancellation(t *testing.T) {
	r, err := New([]string{"sh", "-c", "sleep 30"}, Options{Timeout: time.Minute, Grace: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err = r.Open(ctx, watchURL)
	assert.ErrorIs(t, err, context.Canceled)
}

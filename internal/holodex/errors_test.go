// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package holodex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestWrapError_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   error
	}{
		{"net timeout", timeoutErr{}, 0, ErrTimeout},
		{"deadline", context.DeadlineExceeded, 0, ErrTimeout},
		{"canceled", context.Canceled, 0, context.Canceled},
		{"transport", errors.New("connection refused"), 0, ErrUpstreamUnavailable},
		{"401", nil, 401, ErrUnauthorized},
		{"403", nil, 403, ErrUnauthorized},
		{"404", nil, 404, ErrNotFound},
		{"429", nil, 429, ErrRateLimited},
		{"503", nil, 503, ErrUpstreamError},
		{"400", nil, 400, ErrUpstreamBadResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapError("live", tt.err, tt.status, nil)
			assert.ErrorIs(t, err, tt.want)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestWrapError_RedactsAndTruncatesBody(t *testing.T) {
	body := []byte("denied token=abc sid=def password=ghi apikey=jkl " + strings.Repeat("x", 500))
	err := wrapError("live", nil, 403, body)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	for _, secret := range []string{"abc", "def", "ghi", "jkl"} {
		assert.NotContains(t, fe.Body, "="+secret)
	}
	assert.Contains(t, fe.Body, "[REDACTED]")
	assert.LessOrEqual(t, len(fe.Body), maxErrorBody+3)
}

func TestElementError_Message(t *testing.T) {
	assert.Equal(t, "holodex: element 3: missing channel.photo", (&ElementError{Index: 3, Field: "channel.photo"}).Error())
}

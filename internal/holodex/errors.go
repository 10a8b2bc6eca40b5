// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package holodex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("upstream: resource not found")
	ErrUnauthorized        = errors.New("upstream: api key rejected")
	ErrRateLimited         = errors.New("upstream: rate limited")
	ErrUpstreamUnavailable = errors.New("upstream: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("upstream: internal error (5xx)")
	ErrUpstreamBadResponse = errors.New("upstream: invalid response format or malformed data")
	ErrTimeout             = errors.New("upstream: request timed out")
)

const maxErrorBody = 256

// FetchError is a whole-call failure of the directory client. It wraps one of
// the sentinels above (or context.Canceled) together with diagnostic context.
type FetchError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // lower-level cause (e.g. net.Error, json.SyntaxError)
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("holodex: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Sentinel != nil {
		errs = append(errs, e.Sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ElementError describes one feed entry skipped at the parse boundary.
type ElementError struct {
	Index int
	Field string
	Err   error
}

func (e *ElementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("holodex: element %d: %s: %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("holodex: element %d: missing %s", e.Index, e.Field)
}

func (e *ElementError) Unwrap() error {
	return e.Err
}

var secretPattern = regexp.MustCompile(`(?i)(token|sid|password|apikey|api[-_]key|key)=[^\s&"']+`)

func redact(body string) string {
	return secretPattern.ReplaceAllString(body, "$1=[REDACTED]")
}

// wrapError classifies a transport error or HTTP status into a *FetchError.
func wrapError(op string, err error, status int, body []byte) error {
	fe := &FetchError{Operation: op, Status: status, Err: err}

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		fe.Sentinel = context.Canceled
	case err != nil && isTimeout(err):
		fe.Sentinel = ErrTimeout
	case err != nil:
		fe.Sentinel = ErrUpstreamUnavailable
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		fe.Sentinel = ErrUnauthorized
	case status == http.StatusNotFound:
		fe.Sentinel = ErrNotFound
	case status == http.StatusTooManyRequests:
		fe.Sentinel = ErrRateLimited
	case status >= 500:
		fe.Sentinel = ErrUpstreamError
	default:
		fe.Sentinel = ErrUpstreamBadResponse
	}

	if len(body) > 0 {
		b := redact(string(body))
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody] + "..."
		}
		fe.Body = b
	}
	return fe
}

func badResponse(op string, err error) error {
	return &FetchError{Operation: op, Sentinel: ErrUpstreamBadResponse, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

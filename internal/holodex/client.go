// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package holodex is the directory client: one authenticated listing request
// per call, normalized into streams.Raw entries.
package holodex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/metrics"
	"github.com/ManuGH/holostreams/internal/platform/httpx"
	"github.com/ManuGH/holostreams/internal/streams"
)

const (
	livePath       = "/api/v2/live"
	apiKeyHeader   = "X-APIKEY"
	maxBodyBytes   = 16 << 20
	defaultTimeout = 10 * time.Second

	defaultRateLimit      = rate.Limit(1) // req/s
	defaultRateLimitBurst = 3
)

// liveQuery is fixed: primary org, live+upcoming, one hour lookahead, newest
// availability first.
var liveQuery = url.Values{
	"org":                {streams.PrimaryOrg},
	"status":             {"live,upcoming"},
	"max_upcoming_hours": {"1"},
	"sort":               {"available_at"},
	"order":              {"desc"},
}

// Options configures a Client.
type Options struct {
	Timeout        time.Duration
	HTTPClient     *http.Client // overrides the traced default
	RateLimit      rate.Limit
	RateLimitBurst int
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	return opts
}

// Client fetches the live/upcoming listing.
type Client struct {
	base    string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client for baseURL authenticated with apiKey.
func New(baseURL, apiKey string, opts Options) *Client {
	nopts := normalizeOptions(opts)
	hc := nopts.HTTPClient
	if hc == nil {
		hc = httpx.NewTracedClient(nopts.Timeout)
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: nopts.Timeout,
		http:    hc,
		limiter: rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
	}
}

// Live performs one listing request. Transport, status and top-level decode
// failures return a *FetchError; malformed entries are logged and skipped.
func (c *Client) Live(ctx context.Context) ([]streams.Raw, error) {
	const op = "live"
	logger := xglog.WithComponentFromContext(ctx, "holodex")
	start := time.Now()

	raws, err := c.live(ctx, op)
	if err != nil {
		metrics.ObserveDirectoryFetch("error", time.Since(start))
		if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "holodex.fetch_failed").Msg("listing request failed")
		}
		return nil, err
	}
	metrics.ObserveDirectoryFetch("success", time.Since(start))
	logger.Debug().
		Int("count", len(raws)).
		Dur("duration", time.Since(start)).
		Msg("listing fetched")
	return raws, nil
}

func (c *Client) live(ctx context.Context, op string) ([]streams.Raw, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapError(op, err, 0, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.base + livePath + "?" + liveQuery.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, badResponse(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(op, c.scrub(err), 0, nil)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, wrapError(op, err, 0, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, wrapError(op, nil, resp.StatusCode, c.scrubBody(body))
	}

	f, err := parseFeed(body)
	if err != nil {
		return nil, badResponse(op, err)
	}

	logger := xglog.WithComponentFromContext(ctx, "holodex")
	for _, skipped := range f.Skipped {
		metrics.IncDirectorySkipped(skipped.Field)
		logger.Warn().
			Str(xglog.FieldEvent, "holodex.element_skipped").
			Int("index", skipped.Index).
			Str("field", skipped.Field).
			Err(skipped.Err).
			Msg("skipping malformed feed entry")
	}
	for _, id := range f.UnknownStatus {
		metrics.IncDirectoryUnknownStatus()
		logger.Warn().
			Str(xglog.FieldEvent, "holodex.unknown_status").
			Str(xglog.FieldSessionID, id).
			Msg("unrecognized status, treating as upcoming")
	}
	return f.Raws, nil
}

// scrub keeps the api key out of error strings that echo the request.
func (c *Client) scrub(err error) error {
	if c.apiKey == "" || !strings.Contains(err.Error(), c.apiKey) {
		return err
	}
	return &scrubbedError{msg: strings.ReplaceAll(err.Error(), c.apiKey, "[REDACTED]"), err: err}
}

func (c *Client) scrubBody(body []byte) []byte {
	if c.apiKey == "" {
		return body
	}
	return []byte(strings.ReplaceAll(string(body), c.apiKey, "[REDACTED]"))
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }

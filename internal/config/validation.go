// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks a resolved configuration.
func Validate(cfg AppConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &ConfigError{Field: "api-key", Err: ErrMissingAPIKey}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return &ConfigError{Field: "baseURL", Err: fmt.Errorf("invalid URL %q: %w", cfg.BaseURL, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "baseURL", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigError{Field: "baseURL", Err: fmt.Errorf("%q is missing host", cfg.BaseURL)}
	}

	if cfg.RequestTimeout <= 0 {
		return &ConfigError{Field: "requestTimeout", Err: errors.New("must be positive")}
	}

	if cfg.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
			return &ConfigError{Field: "listen", Err: err}
		}
	}

	switch cfg.Telemetry.Exporter {
	case "grpc", "http", "noop":
	default:
		return &ConfigError{Field: "telemetry.exporter", Err: fmt.Errorf("unknown exporter %q", cfg.Telemetry.Exporter)}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		return &ConfigError{Field: "telemetry.samplingRate", Err: fmt.Errorf("%v out of range [0,1]", cfg.Telemetry.SamplingRate)}
	}

	return nil
}

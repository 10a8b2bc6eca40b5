// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownConfigField classifies strict parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")
	// ErrMissingAPIKey is returned when no directory API key is configured.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// ConfigError reports a configuration that cannot be used. It is fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

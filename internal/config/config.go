// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"path/filepath"
	"time"

	"github.com/ManuGH/holostreams/internal/streams"
)

const (
	DefaultBaseURL        = "https://holodex.net"
	DefaultDataDir        = "./data"
	DefaultListen         = "127.0.0.1:8765"
	DefaultLogLevel       = "info"
	DefaultRequestTimeout = 10 * time.Second
)

// AppConfig is the resolved, read-only configuration of the daemon.
type AppConfig struct {
	APIKey               string
	HideGuestAppearances bool
	HideHolostars        bool

	DataDir        string
	BaseURL        string
	RequestTimeout time.Duration
	Listen         string
	LogLevel       string

	// OpenCommand, if set, is run with the watch URL appended when a
	// button is pressed (e.g. ["xdg-open"]).
	OpenCommand []string

	Telemetry TelemetryConfig

	Version string
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string // grpc|http|noop
	Endpoint     string
	SamplingRate float64
}

// ImageDir is the avatar cache root.
func (c AppConfig) ImageDir() string {
	return filepath.Join(c.DataDir, "images")
}

// Filter returns the session filter selected by the config.
func (c AppConfig) Filter() streams.Filter {
	return streams.Filter{
		HideGuestAppearances: c.HideGuestAppearances,
		HideSubstreamGroup:   c.HideHolostars,
	}
}

// FileConfig mirrors the on-disk config file. Keys keep the names used by
// existing plugin installs (config.json with "api-key", "hideGuestAppearances",
// "hideHolostars").
type FileConfig struct {
	APIKey               string         `yaml:"api-key" json:"api-key"`
	HideGuestAppearances *bool          `yaml:"hideGuestAppearances" json:"hideGuestAppearances"`
	HideHolostars        *bool          `yaml:"hideHolostars" json:"hideHolostars"`
	DataDir              string         `yaml:"dataDir" json:"dataDir"`
	BaseURL              string         `yaml:"baseURL" json:"baseURL"`
	RequestTimeout       string         `yaml:"requestTimeout" json:"requestTimeout"`
	Listen               string         `yaml:"listen" json:"listen"`
	LogLevel             string         `yaml:"logLevel" json:"logLevel"`
	OpenCommand          string         `yaml:"openCommand,omitempty" json:"openCommand,omitempty"`
	Telemetry            *FileTelemetry `yaml:"telemetry" json:"telemetry"`
}

// FileTelemetry is the telemetry block of FileConfig.
type FileTelemetry struct {
	Enabled      *bool    `yaml:"enabled" json:"enabled"`
	Exporter     string   `yaml:"exporter" json:"exporter"`
	Endpoint     string   `yaml:"endpoint" json:"endpoint"`
	SamplingRate *float64 `yaml:"samplingRate" json:"samplingRate"`
}

func defaults() AppConfig {
	return AppConfig{
		DataDir:        DefaultDataDir,
		BaseURL:        DefaultBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		Listen:         DefaultListen,
		LogLevel:       DefaultLogLevel,
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

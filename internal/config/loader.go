// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// candidate file names probed inside the data directory, in order
var discoverNames = []string{"config.json", "config.yaml", "config.yml"}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// DiscoverPath returns the first config file found in dataDir, or "".
func DiscoverPath(dataDir string) string {
	for _, name := range discoverNames {
		p := filepath.Join(dataDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Every failure is returned as a *ConfigError.
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, &ConfigError{Field: "file", Err: err}
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, err
		}
	}

	mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile parses a JSON or YAML file strictly; unknown keys are rejected.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only JSON and YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	if ext == ".json" {
		return decodeJSON(data)
	}
	return decodeYAML(data)
}

func decodeYAML(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// decodeJSON handles the plugin's original config.json. Tab-indented JSON is
// not valid YAML, so it does not go through the YAML decoder.
func decodeJSON(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	if len(bytes.TrimSpace(data)) == 0 {
		return &fileCfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&fileCfg); err != nil {
		if strings.Contains(err.Error(), "unknown field") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("config file contains trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.HideGuestAppearances != nil {
		dst.HideGuestAppearances = *src.HideGuestAppearances
	}
	if src.HideHolostars != nil {
		dst.HideHolostars = *src.HideHolostars
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.RequestTimeout != "" {
		d, err := time.ParseDuration(src.RequestTimeout)
		if err != nil {
			return &ConfigError{Field: "requestTimeout", Err: err}
		}
		dst.RequestTimeout = d
	}
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.OpenCommand != "" {
		dst.OpenCommand = strings.Fields(src.OpenCommand)
	}
	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			dst.Telemetry.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			dst.Telemetry.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			dst.Telemetry.Endpoint = t.Endpoint
		}
		if t.SamplingRate != nil {
			dst.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	return nil
}

func mergeEnvConfig(cfg *AppConfig) {
	cfg.APIKey = ParseString(EnvAPIKey, cfg.APIKey)
	cfg.HideGuestAppearances = ParseBool(EnvHideGuestAppearances, cfg.HideGuestAppearances)
	cfg.HideHolostars = ParseBool(EnvHideHolostars, cfg.HideHolostars)
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.BaseURL = ParseString(EnvBaseURL, cfg.BaseURL)
	cfg.RequestTimeout = ParseDuration(EnvRequestTimeout, cfg.RequestTimeout)
	cfg.Listen = ParseString(EnvListen, cfg.Listen)
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)
	if v := ParseString(EnvOpenCommand, ""); v != "" {
		cfg.OpenCommand = strings.Fields(v)
	}
	cfg.Telemetry.Enabled = ParseBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvOTelSamplingRate, cfg.Telemetry.SamplingRate)
}

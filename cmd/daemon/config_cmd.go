// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/holostreams/internal/config"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  holostreams config validate [--file|-f config.json]")
	fmt.Fprintln(w, "  holostreams config dump [--file|-f config.json] [--format=yaml|json]")
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("holostreams config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := resolveConfigPath(file)
	if configPath == "" {
		fmt.Fprintf(stderr, "Error: --file is required (no config.json or config.yaml found in $%s)\n", config.EnvDataDir)
		return 2
	}

	if _, err := config.NewLoader(configPath, version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "✓ %s is valid\n", configPath)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env)
// in file format with the API key masked.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("holostreams config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := resolveConfigPath(file)
	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	fileCfg := fileConfigFromAppConfig(cfg)
	if fileCfg.APIKey != "" {
		fileCfg.APIKey = "***"
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", format)
		return 2
	}
}

func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	hideGuests := cfg.HideGuestAppearances
	hideHolostars := cfg.HideHolostars
	telemetryEnabled := cfg.Telemetry.Enabled
	samplingRate := cfg.Telemetry.SamplingRate

	return config.FileConfig{
		APIKey:               cfg.APIKey,
		HideGuestAppearances: &hideGuests,
		HideHolostars:        &hideHolostars,
		DataDir:              cfg.DataDir,
		BaseURL:              cfg.BaseURL,
		RequestTimeout:       cfg.RequestTimeout.String(),
		Listen:               cfg.Listen,
		LogLevel:             cfg.LogLevel,
		Telemetry: &config.FileTelemetry{
			Enabled:      &telemetryEnabled,
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &samplingRate,
		},
	}
}

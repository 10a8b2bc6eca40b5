// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/holostreams/internal/api"
	"github.com/ManuGH/holostreams/internal/avatar"
	"github.com/ManuGH/holostreams/internal/config"
	"github.com/ManuGH/holostreams/internal/daemon"
	"github.com/ManuGH/holostreams/internal/engine"
	"github.com/ManuGH/holostreams/internal/health"
	"github.com/ManuGH/holostreams/internal/holodex"
	xglog "github.com/ManuGH/holostreams/internal/log"
	"github.com/ManuGH/holostreams/internal/opener"
	"github.com/ManuGH/holostreams/internal/platform/httpx"
	"github.com/ManuGH/holostreams/internal/telemetry"
	buildinfo "github.com/ManuGH/holostreams/internal/version"
)

var version = buildinfo.Version

const serviceName = "holostreams"

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

// resolveConfigPath returns the explicit path, or the discovered config file
// under the data dir, or "" for env+defaults.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(config.ParseString(config.EnvDataDir, config.DefaultDataDir))
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	return config.DiscoverPath(dataDir)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (JSON or YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   config.DefaultLogLevel,
		Service: serviceName,
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath := resolveConfigPath(*configPath)
	cfg, err := config.NewLoader(effectiveConfigPath, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: serviceName,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if effectiveConfigPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(xglog.FieldPath, effectiveConfigPath).
		Msg("loaded configuration")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "telemetry.init_failed").
			Msg("failed to initialize telemetry")
	}

	serverCfg := config.ParseServerConfig(cfg)

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version).
		Str("commit", buildinfo.Commit).
		Str("build_date", buildinfo.Date).
		Str("addr", serverCfg.ListenAddr).
		Msg("starting holostreams")
	logger.Info().Msgf("→ Directory: %s", maskURL(cfg.BaseURL))
	logger.Info().Msgf("→ Filter: hideGuestAppearances=%v hideHolostars=%v", cfg.HideGuestAppearances, cfg.HideHolostars)
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	if cfg.Telemetry.Enabled {
		logger.Info().Msgf("→ Tracing: %s (%s)", cfg.Telemetry.Exporter, cfg.Telemetry.Endpoint)
	}

	directory := holodex.New(cfg.BaseURL, cfg.APIKey, holodex.Options{Timeout: cfg.RequestTimeout})
	cache := avatar.NewCache(cfg.ImageDir(), httpx.NewTracedClient(cfg.RequestTimeout))
	pool := avatar.NewPool(cache, avatar.PoolConfig{}, nil)
	revisions := api.NewRevisions()

	engOpts := engine.Options{Filter: cfg.Filter()}
	if len(cfg.OpenCommand) > 0 {
		runner, err := opener.New(cfg.OpenCommand, opener.Options{})
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid open command")
		}
		engOpts.Opener = runner.Open
		logger.Info().Msgf("→ Open command: %s", cfg.OpenCommand[0])
	}

	eng := engine.New(directory, pool, cache, revisions, engOpts)
	pool.SetOnStored(eng.AvatarStored)

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewSyncChecker(eng, 0))
	hm.RegisterChecker(health.NewDirChecker("image_cache", cache.Dir()))

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = serviceName
	}
	srv := api.New(api.Config{TracingService: tracingService}, eng, revisions, hm)

	mgr, err := daemon.NewManager(serverCfg, daemon.Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: srv.Handler(),
		Engine:     eng,
		Avatars:    pool,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.creation.failed").
			Msg("failed to create daemon manager")
	}
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)

	if err := mgr.Start(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.failed").
			Msg("daemon failed")
	}

	logger.Info().Msg("server exiting")
}

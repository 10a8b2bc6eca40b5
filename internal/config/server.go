// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"time"
)

// Host bridge server tuning. Only the timeouts are tunable via ENV; the
// listen address comes from AppConfig.Listen.
const (
	EnvServerReadTimeout     = "HOLOSTREAMS_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "HOLOSTREAMS_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "HOLOSTREAMS_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "HOLOSTREAMS_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8765")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout bounds response writes. It must exceed the long-poll
	// cap of /api/v1/revisions and the activate timeout.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 90 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 64 << 10
	defaultShutdownTimeout = 10 * time.Second
	minShutdownTimeout     = 3 * time.Second
)

// ParseServerConfig resolves the server config for cfg with ENV overrides
// for the timeouts.
func ParseServerConfig(cfg AppConfig) ServerConfig {
	listen := cfg.Listen
	if listen == "" {
		listen = DefaultListen
	}

	shutdownTimeout := ParseDuration(EnvServerShutdownTimeout, defaultShutdownTimeout)
	if shutdownTimeout < minShutdownTimeout {
		shutdownTimeout = minShutdownTimeout
	}

	return ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     ParseDuration(EnvServerReadTimeout, defaultReadTimeout),
		WriteTimeout:    ParseDuration(EnvServerWriteTimeout, defaultWriteTimeout),
		IdleTimeout:     ParseDuration(EnvServerIdleTimeout, defaultIdleTimeout),
		MaxHeaderBytes:  defaultMaxHeaderBytes,
		ShutdownTimeout: shutdownTimeout,
	}
}

// IsLoopback reports whether addr binds only to a loopback interface.
// Hostnames other than "localhost" and empty hosts count as non-loopback.
func IsLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

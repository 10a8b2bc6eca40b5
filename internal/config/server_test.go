// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseServerConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AppConfig
		envVars map[string]string
		want    ServerConfig
	}{
		{
			name: "defaults",
			want: ServerConfig{
				ListenAddr:      DefaultListen,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    90 * time.Second,
				IdleTimeout:     120 * time.Second,
				MaxHeaderBytes:  64 << 10,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		{
			name: "custom values from env vars",
			cfg:  AppConfig{Listen: "127.0.0.1:9000"},
			envVars: map[string]string{
				EnvServerReadTimeout:     "5s",
				EnvServerWriteTimeout:    "2m",
				EnvServerIdleTimeout:     "300s",
				EnvServerShutdownTimeout: "30s",
			},
			want: ServerConfig{
				ListenAddr:      "127.0.0.1:9000",
				ReadTimeout:     5 * time.Second,
				WriteTimeout:    2 * time.Minute,
				IdleTimeout:     300 * time.Second,
				MaxHeaderBytes:  64 << 10,
				ShutdownTimeout: 30 * time.Second,
			},
		},
		{
			name: "invalid values fall back, shutdown timeout is clamped",
			envVars: map[string]string{
				EnvServerReadTimeout:     "invalid",
				EnvServerShutdownTimeout: "1s",
			},
			want: ServerConfig{
				ListenAddr:      DefaultListen,
				ReadTimeout:     10 * time.Second,
				WriteTimeout:    90 * time.Second,
				IdleTimeout:     120 * time.Second,
				MaxHeaderBytes:  64 << 10,
				ShutdownTimeout: 3 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			assert.Equal(t, tt.want, ParseServerConfig(tt.cfg))
		})
	}
}

func TestIsLoopback(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1:8765": true,
		"localhost:8765": true,
		"[::1]:8765":     true,
		":8765":          false,
		"0.0.0.0:8765":   false,
		"10.0.0.5:8765":  false,
		"garbage":        false,
	}
	for addr, want := range tests {
		assert.Equal(t, want, IsLoopback(addr), addr)
	}
}

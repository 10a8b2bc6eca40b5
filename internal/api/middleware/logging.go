// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"time"

	"github.com/ManuGH/holostreams/internal/log"
)

// AccessLog logs one line per request with status, size and latency.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := &metricsWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(mw, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		ev := logger.Debug()
		if mw.statusCode >= 500 {
			ev = logger.Warn()
		}
		ev.Str("method", r.Method).
			Str(log.FieldPath, r.URL.Path).
			Int("status", mw.statusCode).
			Int("bytes", mw.bytesWritten).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

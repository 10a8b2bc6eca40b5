// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bridgeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "holostreams_http_request_duration_seconds",
		Help:    "Host bridge request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	bridgeRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "holostreams_http_requests_in_flight",
		Help: "Current number of host bridge requests being served",
	})

	bridgeResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "holostreams_http_response_size_bytes",
		Help:    "Host bridge response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"route"})
)

// Metrics records latency, in-flight count and response size per chi route
// pattern, so button ids never become label values.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			bridgeRequestsInFlight.Inc()
			defer bridgeRequestsInFlight.Dec()

			mw := &metricsWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(mw, r)

			route := routePattern(r)
			bridgeRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(mw.statusCode)).
				Observe(time.Since(start).Seconds())
			if mw.bytesWritten > 0 {
				bridgeResponseSize.WithLabelValues(route).Observe(float64(mw.bytesWritten))
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// metricsWriter captures status and size of a response.
type metricsWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	written      bool
}

func (mw *metricsWriter) WriteHeader(statusCode int) {
	if !mw.written {
		mw.statusCode = statusCode
		mw.written = true
	}
	mw.ResponseWriter.WriteHeader(statusCode)
}

func (mw *metricsWriter) Write(b []byte) (int, error) {
	if !mw.written {
		mw.WriteHeader(http.StatusOK)
	}
	n, err := mw.ResponseWriter.Write(b)
	mw.bytesWritten += n
	return n, err
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_sync_cycles_total",
		Help: "Sync cycles by outcome",
	}, []string{"outcome"}) // outcome=changed|unchanged|failed|canceled

	syncPublishedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "holostreams_sync_published_sessions",
		Help: "Number of sessions in the published snapshot",
	})

	syncLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "holostreams_sync_last_success_timestamp_seconds",
		Help: "Unix time of the last successful sync cycle",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_notifications_total",
		Help: "Notifications pushed to the UI adapter by kind",
	}, []string{"kind"}) // kind=buttons|image

	directoryFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "holostreams_directory_fetch_duration_seconds",
		Help:    "Directory listing request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"}) // outcome=success|error

	directoryElementsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_directory_elements_skipped_total",
		Help: "Feed entries skipped because a required field was missing or malformed",
	}, []string{"field"})

	directoryUnknownStatus = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holostreams_directory_unknown_status_total",
		Help: "Feed entries with an unrecognized status (bucketed as upcoming)",
	})

	avatarFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_avatar_fetch_total",
		Help: "Avatar cache population attempts by result",
	}, []string{"result"}) // result=hit_disk|downloaded|dedup|dropped|error
)

// IncSyncCycle counts a finished sync cycle.
func IncSyncCycle(outcome string) {
	syncCyclesTotal.WithLabelValues(outcome).Inc()
}

// SetPublishedSessions records the size of the published snapshot.
func SetPublishedSessions(n int) {
	syncPublishedSessions.Set(float64(n))
}

// MarkSyncSuccess records the time of a successful cycle.
func MarkSyncSuccess(t time.Time) {
	syncLastSuccess.Set(float64(t.Unix()))
}

// IncNotification counts a notification sent to the UI adapter.
func IncNotification(kind string) {
	notificationsTotal.WithLabelValues(kind).Inc()
}

// ObserveDirectoryFetch records one directory request.
func ObserveDirectoryFetch(outcome string, d time.Duration) {
	directoryFetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncDirectorySkipped counts a feed entry dropped at the parse boundary.
func IncDirectorySkipped(field string) {
	directoryElementsSkipped.WithLabelValues(field).Inc()
}

// IncDirectoryUnknownStatus counts a feed entry with an unexpected status.
func IncDirectoryUnknownStatus() {
	directoryUnknownStatus.Inc()
}

// IncAvatarFetch counts an avatar cache population attempt.
func IncAvatarFetch(result string) {
	avatarFetchTotal.WithLabelValues(result).Inc()
}

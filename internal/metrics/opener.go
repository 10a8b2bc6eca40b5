// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_opener_runs_total",
		Help: "Open-command runs by result",
	}, []string{"result"}) // result=ok|exit_nonzero|start_failed|killed

	openerGroupSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holostreams_opener_group_signals_total",
		Help: "Signals sent to open-command process groups",
	}, []string{"signal", "result"}) // result=sent|esrch|error
)

// IncOpenerRun counts a finished open-command run.
func IncOpenerRun(result string) {
	openerRunsTotal.WithLabelValues(result).Inc()
}

// IncOpenerSignal counts a signal sent to an open-command process group.
func IncOpenerSignal(signal, result string) {
	openerGroupSignals.WithLabelValues(signal, result).Inc()
}

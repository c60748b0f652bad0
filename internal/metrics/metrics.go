// SPDX-License-Identifier: MIT

// Package metrics exposes the daemon's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gate labels for IncSaveSkip.
const (
	GateDisabled = "disabled"
	GateNoVideo  = "no_video"
	GateThrottle = "throttle"
	GatePaused   = "paused"
	GateDeadZone = "dead_zone"
	GateNoDelta  = "no_delta"
)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_saves_total",
		Help: "Save attempts that reached the store, by outcome",
	}, []string{"outcome"}) // outcome=saved|invalid|error

	saveSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_save_skips_total",
		Help: "Scheduler save attempts dropped before the store, by gate",
	}, []string{"gate"}) // gate=disabled|no_video|throttle|paused|dead_zone|no_delta

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seekmark_evictions_total",
		Help: "Records evicted to keep the store within capacity",
	})

	restoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_restores_total",
		Help: "Position restorations by resolver decision",
	}, []string{"decision"}) // decision=resume|url_override|restart|none|failed

	navSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_nav_signals_total",
		Help: "Raw navigation signals received, by source",
	}, []string{"source"})

	navSettlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seekmark_nav_settles_total",
		Help: "Debounced navigation settles that triggered restoration",
	})

	pollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seekmark_poll_errors_total",
		Help: "Scheduler poll iterations that failed and were skipped",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_notifications_total",
		Help: "Notifications by outcome",
	}, []string{"outcome"}) // outcome=shown|suppressed|failed

	commandsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seekmark_bridge_commands_total",
		Help: "Commands queued for the page bridge, by type",
	}, []string{"type"})

	storedRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seekmark_stored_records",
		Help: "Number of records currently stored (last observation)",
	})
)

func IncSave(outcome string)       { savesTotal.WithLabelValues(outcome).Inc() }
func IncSaveSkip(gate string)      { saveSkipsTotal.WithLabelValues(gate).Inc() }
func AddEvictions(n int)           { evictionsTotal.Add(float64(n)) }
func IncRestore(decision string)   { restoresTotal.WithLabelValues(decision).Inc() }
func IncNavSignal(source string)   { navSignalsTotal.WithLabelValues(source).Inc() }
func IncNavSettle()                { navSettlesTotal.Inc() }
func IncPollError()                { pollErrorsTotal.Inc() }
func IncNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}
func IncCommand(cmdType string) { commandsQueued.WithLabelValues(cmdType).Inc() }
func SetStoredRecords(n int)    { storedRecords.Set(float64(n)) }

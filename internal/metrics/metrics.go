// Package metrics holds the prometheus collectors of the relay.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callrelay_connections_active",
			Help: "Current number of registered signaling connections",
		},
	)

	IdentitiesOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callrelay_identities_online",
			Help: "Current number of identities with at least one connection",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrelay_frames_dropped_total",
			Help: "Outbound frames dropped because a connection was slow or closed",
		},
		[]string{"reason"}, // "backpressure", "closed"
	)

	// Calls
	CallsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callrelay_calls_active",
			Help: "Current number of live call sessions by status",
		},
		[]string{"status"}, // "ringing", "active"
	)

	CallsInitiated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callrelay_calls_initiated_total",
			Help: "Total number of call sessions created",
		},
	)

	CallsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrelay_calls_ended_total",
			Help: "Total number of call sessions ended by reason",
		},
		[]string{"reason"},
	)

	CallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callrelay_call_duration_seconds",
			Help:    "Active duration of answered calls",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	SignalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrelay_signal_errors_total",
			Help: "Errors returned to clients by event and code",
		},
		[]string{"event", "code"},
	)

	RelayedPayloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrelay_relayed_payloads_total",
			Help: "Opaque signaling payloads forwarded between participants",
		},
		[]string{"kind"},
	)

	// Booking directory
	BookingLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callrelay_booking_lookup_duration_seconds",
			Help:    "Duration of booking authorization lookups",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"result"}, // "ok", "not_found", "error"
	)

	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callrelay_booking_breaker_state",
			Help: "Booking directory circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// History
	HistoryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callrelay_history_queue_depth",
			Help: "Call records waiting to be written",
		},
	)

	HistoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callrelay_history_writes_total",
			Help: "Call history writes by result",
		},
		[]string{"result"}, // "ok", "error", "dropped"
	)
)

// RecordCallEnded counts a terminal transition and observes the active duration of answered calls.
func RecordCallEnded(reason string, active time.Duration) {
	CallsEnded.WithLabelValues(reason).Inc()
	if active > 0 {
		CallDuration.Observe(active.Seconds())
	}
}

// RecordLookup observes one booking directory lookup.
func RecordLookup(result string, took time.Duration) {
	BookingLookupDuration.WithLabelValues(result).Observe(took.Seconds())
}

func RecordSignalError(event, code string) {
	SignalErrors.WithLabelValues(event, code).Inc()
}

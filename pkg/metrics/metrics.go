// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal tracks decoded stream events by name.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_stream_events_total",
			Help: "Total decoded stream events",
		},
		[]string{"event"},
	)

	// DecodeDropsTotal tracks data lines dropped because they were not valid JSON.
	DecodeDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_stream_decode_drops_total",
			Help: "Total malformed data lines dropped by the frame decoder",
		},
	)

	// StreamsActive tracks streams currently being read.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_streams_active",
			Help: "Number of response streams currently open",
		},
	)

	// StreamDuration tracks how long one chat or drill stream took end to end.
	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_stream_duration_seconds",
			Help:    "Response stream duration in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"endpoint", "status"},
	)

	// TurnsTotal tracks finalized transcript turns by role.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_turns_total",
			Help: "Total transcript turns",
		},
		[]string{"role"},
	)

	// DrillRequestsTotal tracks drill-down requests by phase and status.
	DrillRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_drill_requests_total",
			Help: "Total drill-down requests",
		},
		[]string{"phase", "status"},
	)

	// PinnedSectionsTotal tracks sections admitted to the pinned view.
	PinnedSectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_pinned_sections_total",
			Help: "Total sections added to the pinned data view",
		},
	)

	// PinnedDedupDiscardsTotal tracks candidates discarded by the dedup window.
	PinnedDedupDiscardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_pinned_dedup_discards_total",
			Help: "Total pinned-view candidates discarded as recent duplicates",
		},
	)

	// BookmarkOpsTotal tracks bookmark store operations.
	BookmarkOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_bookmark_ops_total",
			Help: "Total bookmark store operations",
		},
		[]string{"op"},
	)
)

// RecordStream records metrics for one completed response stream.
func RecordStream(endpoint, status string, seconds float64) {
	StreamDuration.WithLabelValues(endpoint, status).Observe(seconds)
}

// RecordEvent records one decoded stream event.
func RecordEvent(name string) {
	EventsTotal.WithLabelValues(name).Inc()
}

// IncrementStreams increments the active stream count.
func IncrementStreams() {
	StreamsActive.Inc()
}

// DecrementStreams decrements the active stream count.
func DecrementStreams() {
	StreamsActive.Dec()
}

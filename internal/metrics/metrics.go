// Package metrics provides the Prometheus metrics of the extraction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all metrics.
	Namespace = "portalevents"

	// Subsystem is the subsystem for scraper metrics.
	Subsystem = "scraper"
)

// Outcome labels for runs
const (
	OutcomeSuccess    = "success"
	OutcomeAuthFailed = "auth_failed"
	OutcomeError      = "error"
)

// Result labels for feed responses
const (
	FeedAccepted    = "accepted"
	FeedIgnored     = "ignored"
	FeedParseFailed = "parse_failed"
)

// Metrics holds the scraper metrics. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   prometheus.Histogram
	EventsExtracted      prometheus.Histogram
	FeedResponsesTotal   *prometheus.CounterVec
	PaginationIterations prometheus.Histogram
	RunsInFlight         prometheus.Gauge
}

// New creates and registers the metrics on reg (the default registerer when nil)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "runs_total",
				Help:      "Total number of extraction runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of extraction runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1s to ~4min
			},
		),
		EventsExtracted: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "events_extracted",
				Help:      "Number of events returned per successful run",
				Buckets:   prometheus.LinearBuckets(0, 25, 10),
			},
		),
		FeedResponsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "feed_responses_total",
				Help:      "Feed responses observed by result",
			},
			[]string{"result"},
		),
		PaginationIterations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "pagination_iterations",
				Help:      "Scroll iterations per run",
				Buckets:   prometheus.LinearBuckets(0, 5, 9),
			},
		),
		RunsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "runs_in_flight",
				Help:      "Extraction runs currently holding a browser",
			},
		),
	}
}

// RecordRunStarted marks a run as holding a browser
func (m *Metrics) RecordRunStarted() {
	if m == nil {
		return
	}
	m.RunsInFlight.Inc()
}

// RecordRun records a finished run
func (m *Metrics) RecordRun(outcome string, duration time.Duration, events int) {
	if m == nil {
		return
	}
	m.RunsInFlight.Dec()
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDurationSeconds.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		m.EventsExtracted.Observe(float64(events))
	}
}

// RecordFeedResponse counts one observed feed response
func (m *Metrics) RecordFeedResponse(result string) {
	if m == nil {
		return
	}
	m.FeedResponsesTotal.WithLabelValues(result).Inc()
}

// RecordPagination records the scroll iterations of a run
func (m *Metrics) RecordPagination(iterations int) {
	if m == nil {
		return
	}
	m.PaginationIterations.Observe(float64(iterations))
}

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the timebase library.
type Metrics struct {
	// Converter Metrics
	TimebaseFallbacks prometheus.Counter

	// Anchor Tracking Metrics
	AnchorsObserved prometheus.Counter
	AnchorsRejected prometheus.Counter
	Resolutions     *prometheus.CounterVec

	// Anchor Feed Metrics
	UpdatesPublished *prometheus.CounterVec
	UpdatesDropped   *prometheus.CounterVec
	SubscribersTotal prometheus.Gauge
	PublishDuration  *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
)

// InitMetrics initializes the Prometheus metrics.
// This should be called once at startup before any metrics are recorded.
func InitMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	// Timestamp arithmetic and feed publishes run in audio callback paths,
	// so buckets cover sub-microsecond through millisecond latencies
	latencyBuckets := []float64{
		0.0000001, // 100ns
		0.0000005, // 500ns
		0.000001,  // 1µs
		0.000002,  // 2µs
		0.000005,  // 5µs
		0.00001,   // 10µs
		0.00002,   // 20µs
		0.00005,   // 50µs
		0.0001,    // 100µs
		0.0005,    // 500µs
		0.001,     // 1ms
		0.005,     // 5ms
		0.01,      // 10ms
	}

	m := &Metrics{
		TimebaseFallbacks: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timebase_conversion_fallbacks_total",
				Help: "Number of times the timebase query failed and the identity conversion ratio was used",
			},
		),

		AnchorsObserved: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timebase_anchors_observed_total",
				Help: "Total number of fully resolved anchors accepted by trackers",
			},
		),

		AnchorsRejected: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timebase_anchors_rejected_total",
				Help: "Total number of anchor observations rejected for missing a representation",
			},
		),

		Resolutions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebase_resolutions_total",
				Help: "Total number of timestamp resolutions attempted against a tracked anchor",
			},
			[]string{"result"},
		),

		UpdatesPublished: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebase_updates_published_total",
				Help: "Total number of anchor updates published to the feed",
			},
			[]string{"source"},
		),

		UpdatesDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebase_updates_dropped_total",
				Help: "Total number of anchor updates dropped due to slow subscribers",
			},
			[]string{"source"},
		),

		SubscribersTotal: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "timebase_feed_subscribers",
				Help: "Current number of active feed subscribers",
			},
		),

		PublishDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timebase_feed_publish_duration_seconds",
				Help:    "Time taken to publish an anchor update to all subscribers",
				Buckets: latencyBuckets,
			},
			[]string{"source"},
		),
	}

	defaultMetrics = m
	return m
}

// Default returns the default metrics instance.
// If InitMetrics hasn't been called, it will initialize with the default registry.
func Default() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics(nil)
	}
	return defaultMetrics
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Observe records the elapsed time in seconds to the given histogram.
func (t *Timer) Observe(histogram prometheus.Observer) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveWithLabels records the elapsed time to a histogram with labels.
func (t *Timer) ObserveWithLabels(histogram *prometheus.HistogramVec, labels prometheus.Labels) {
	histogram.With(labels).Observe(time.Since(t.start).Seconds())
}

// Elapsed returns the time elapsed since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

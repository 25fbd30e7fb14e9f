// Package metrics exposes recognizer, plugin and API measurements as
// Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a set of collectors registered on one registry. It satisfies
// gesture.Metrics and plugin.Metrics.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	goCollectors     bool

	framesProcessed    prometheus.Counter
	frameLatency       prometheus.Histogram
	observationsDrop   *prometheus.CounterVec
	gesturesAccepted   *prometheus.CounterVec
	gesturesSuppressed *prometheus.CounterVec
	trackedHands       prometheus.Gauge
	quarantined        *prometheus.CounterVec
	subscriberFailures *prometheus.CounterVec

	actionsExecuted *prometheus.CounterVec
	actionLatency   *prometheus.HistogramVec
	actionsDropped  prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a Manager. Unless WithRegistry is given the collectors
// live on a fresh registry so tests and multiple instances never collide.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "holocore",
		histogramBuckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	if m.goCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.framesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "frames_processed_total",
		Help:      "Frames that completed the recognition pipeline",
	})
	m.frameLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "frame_duration_seconds",
		Help:      "Time spent processing one frame",
		Buckets:   m.histogramBuckets,
	})
	m.observationsDrop = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "observations_dropped_total",
		Help:      "Observations rejected at intake",
	}, []string{"reason"})
	m.gesturesAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "gestures_accepted_total",
		Help:      "Gestures emitted to subscribers",
	}, []string{"gesture"})
	m.gesturesSuppressed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "gestures_suppressed_total",
		Help:      "Gestures withheld by the cooldown",
	}, []string{"gesture"})
	m.trackedHands = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "tracked_hands",
		Help:      "Hands currently held by the tracker",
	})
	m.quarantined = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "recognizer",
		Name:      "evaluators_quarantined_total",
		Help:      "Gesture evaluators disabled after a failure",
	}, []string{"gesture"})
	m.subscriberFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "bus",
		Name:      "subscriber_failures_total",
		Help:      "Handler failures isolated by the event bus",
	}, []string{"topic"})

	m.actionsExecuted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "plugin",
		Name:      "actions_executed_total",
		Help:      "Plugin actions run for recognized gestures",
	}, []string{"plugin", "action", "result"})
	m.actionLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "plugin",
		Name:      "action_duration_seconds",
		Help:      "Plugin action execution time",
		Buckets:   prometheus.DefBuckets,
	}, []string{"plugin"})
	m.actionsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "plugin",
		Name:      "actions_dropped_total",
		Help:      "Gesture events dropped because the action queue was full",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route and status",
	}, []string{"route", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
}

func (m *Manager) FrameProcessed(hands int, elapsed time.Duration) {
	m.framesProcessed.Inc()
	m.frameLatency.Observe(elapsed.Seconds())
}

func (m *Manager) ObservationDropped(reason string) {
	m.observationsDrop.WithLabelValues(reason).Inc()
}

func (m *Manager) GestureAccepted(id string) {
	m.gesturesAccepted.WithLabelValues(id).Inc()
}

func (m *Manager) GestureSuppressed(id string) {
	m.gesturesSuppressed.WithLabelValues(id).Inc()
}

func (m *Manager) TrackedHands(n int) {
	m.trackedHands.Set(float64(n))
}

func (m *Manager) EvaluatorQuarantined(id string) {
	m.quarantined.WithLabelValues(id).Inc()
}

func (m *Manager) SubscriberFailed(topic string) {
	m.subscriberFailures.WithLabelValues(topic).Inc()
}

// ActionExecuted records one plugin action outcome.
func (m *Manager) ActionExecuted(plugin, action string, ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.actionsExecuted.WithLabelValues(plugin, action, result).Inc()
	m.actionLatency.WithLabelValues(plugin).Observe(elapsed.Seconds())
}

func (m *Manager) ActionDropped() {
	m.actionsDropped.Inc()
}

// RecordHTTPRequest records a finished API request.
func (m *Manager) RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

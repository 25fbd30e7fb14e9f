package gesture

import "time"

// DiagnosticKind names the out-of-band problems the recognizer reports.
type DiagnosticKind string

const (
	DiagMalformedFrame      DiagnosticKind = "malformed_frame"
	DiagSmoothingRejected   DiagnosticKind = "smoothing_rejected"
	DiagEvaluatorQuarantine DiagnosticKind = "evaluator_quarantined"
	DiagSubscriberError     DiagnosticKind = "subscriber_error"
	DiagLifecycle           DiagnosticKind = "lifecycle_violation"
	DiagConfigClamped       DiagnosticKind = "config_clamped"
)

// Diagnostic is reported through the diagnostics hook. It is never
// published on the event bus.
type Diagnostic struct {
	Kind      DiagnosticKind
	Timestamp int64
	GestureID string
	HandID    string
	Topic     string
	Clamp     *Clamp
	Err       error
}

// Metrics receives recognizer measurements. pkg/metrics provides the
// Prometheus implementation.
type Metrics interface {
	FrameProcessed(hands int, elapsed time.Duration)
	ObservationDropped(reason string)
	GestureAccepted(id string)
	GestureSuppressed(id string)
	TrackedHands(n int)
	EvaluatorQuarantined(id string)
	SubscriberFailed(topic string)
}

type nopMetrics struct{}

func (nopMetrics) FrameProcessed(int, time.Duration) {}
func (nopMetrics) ObservationDropped(string)         {}
func (nopMetrics) GestureAccepted(string)            {}
func (nopMetrics) GestureSuppressed(string)          {}
func (nopMetrics) TrackedHands(int)                  {}
func (nopMetrics) EvaluatorQuarantined(string)       {}
func (nopMetrics) SubscriberFailed(string)           {}

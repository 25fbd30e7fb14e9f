package gesture

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStopped is returned by Push while the recognizer is stopped.
	ErrStopped = errors.New("recognizer is stopped")

	// ErrUnknownGesture is returned for ids missing from the catalogue.
	ErrUnknownGesture = errors.New("unknown gesture")

	// ErrBuiltinGesture is returned when removing a built-in gesture.
	ErrBuiltinGesture = errors.New("built-in gestures cannot be removed")

	// ErrInvalidGestureID is returned for empty ids or ids containing whitespace.
	ErrInvalidGestureID = errors.New("invalid gesture id")

	// ErrMissingEvaluator is returned when defining a gesture without an evaluator.
	ErrMissingEvaluator = errors.New("gesture has no evaluator")

	// ErrMalformedObservation marks an observation dropped during intake.
	ErrMalformedObservation = errors.New("malformed observation")
)

// Issue describes why a single observation was dropped.
type Issue struct {
	Index  int    // position in the frame
	HandID string // may be empty
	Reason string
}

func (i Issue) Error() string {
	if i.HandID == "" {
		return fmt.Sprintf("observation %d: %s", i.Index, i.Reason)
	}
	return fmt.Sprintf("observation %d (hand %q): %s", i.Index, i.HandID, i.Reason)
}

func (i Issue) Unwrap() error { return ErrMalformedObservation }

// FrameError aggregates every issue found while admitting one frame.
// Valid observations of the same frame are still processed.
type FrameError struct {
	Timestamp int64
	Issues    []Issue
}

func (e *FrameError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Error()
	}
	return fmt.Sprintf("frame %d: %d malformed observation(s): %s",
		e.Timestamp, len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap exposes the individual issues to errors.Is and errors.As.
func (e *FrameError) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue
	}
	return errs
}

// EvaluatorError wraps a failure raised by a custom gesture evaluator.
type EvaluatorError struct {
	GestureID string
	Err       error
}

func (e *EvaluatorError) Error() string {
	return fmt.Sprintf("gesture %q evaluator failed: %v", e.GestureID, e.Err)
}

func (e *EvaluatorError) Unwrap() error { return e.Err }

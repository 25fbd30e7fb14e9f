package gesture

import (
	"errors"
	"fmt"
	"math"
)

// tieEpsilon treats margins closer than this as equal.
const tieEpsilon = 1e-9

// Score is the outcome of one evaluator on one hand.
type Score struct {
	ID         string
	Kind       Kind
	Confidence float64
	Threshold  float64
}

// Margin is how far the confidence clears the effective threshold.
func (s Score) Margin() float64 { return s.Confidence - s.Threshold }

// Candidate reports whether the score clears its threshold.
func (s Score) Candidate() bool { return s.Confidence >= s.Threshold }

// beats reports whether s wins over o: larger margin first, then kind rank,
// then lexicographic id.
func (s Score) beats(o Score) bool {
	dm := s.Margin() - o.Margin()
	if math.Abs(dm) > tieEpsilon {
		return dm > 0
	}
	if s.Kind.rank() != o.Kind.rank() {
		return s.Kind.rank() < o.Kind.rank()
	}
	return s.ID < o.ID
}

// failure is an evaluator that errored or panicked during arbitration.
type failure struct {
	id  string
	err error
}

// Arbiter evaluates the catalogue against one hand and picks the winner.
type Arbiter struct {
	registry *Registry
	cfg      *Config
}

// NewArbiter creates an arbiter over registry reading settings from cfg.
func NewArbiter(registry *Registry, cfg *Config) *Arbiter {
	return &Arbiter{registry: registry, cfg: cfg}
}

// Evaluate scores every enabled gesture for h. Custom evaluators that fail
// are reported in failures and score nothing. Pixel landmarks are divided
// by the canvas size first, so every threshold is in normalized units.
func (a *Arbiter) Evaluate(h *TrackedHand) (scores []Score, failures []failure) {
	if a.cfg.CoordinateSpace == Pixel {
		h = h.scaled(1/a.cfg.CanvasWidth, 1/a.cfg.CanvasHeight)
	}
	f := ExtractFeatures(h)
	m := ExtractMotion(h, a.cfg.MotionWindow)

	for _, e := range a.registry.active(a.cfg.EnableCustomGestures) {
		def := e.def
		conf, err := invoke(def, h, f, m)
		if err != nil {
			failures = append(failures, failure{id: def.ID, err: err})
			continue
		}
		base := def.BaseConfidence
		if override, ok := a.cfg.Thresholds[def.ID]; ok {
			base = override
		}
		scores = append(scores, Score{
			ID:         def.ID,
			Kind:       def.Kind,
			Confidence: conf,
			Threshold:  effectiveThreshold(base, a.cfg.Sensitivity),
		})
	}
	return scores, failures
}

// Pick returns the winning candidate among scores.
func Pick(scores []Score) (Score, bool) {
	var (
		best  Score
		found bool
	)
	for _, s := range scores {
		if !s.Candidate() {
			continue
		}
		if !found || s.beats(best) {
			best, found = s, true
		}
	}
	return best, found
}

// invoke runs an evaluator, turning panics and non-finite results into errors.
// Results are clamped to [0,1].
func invoke(def Definition, h *TrackedHand, f *Features, m *Motion) (conf float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvaluatorError{GestureID: def.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	conf, err = def.Evaluator(h, f, m)
	if err != nil {
		return 0, &EvaluatorError{GestureID: def.ID, Err: err}
	}
	if math.IsNaN(conf) || math.IsInf(conf, 0) {
		return 0, &EvaluatorError{GestureID: def.ID, Err: errors.New("non-finite confidence")}
	}
	return clampFloat(conf, 0, 1), nil
}

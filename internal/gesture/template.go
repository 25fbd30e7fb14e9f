package gesture

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ayusman/holocore/internal/landmark"
)

// TemplateKind distinguishes pose templates from trajectory templates.
type TemplateKind string

const (
	// TemplateStatic matches a single hand pose.
	TemplateStatic TemplateKind = "static"
	// TemplateDynamic matches a palm trajectory.
	TemplateDynamic TemplateKind = "dynamic"
)

// Template tolerances used when none is given.
const (
	DefaultStaticTolerance  = 1.5
	DefaultDynamicTolerance = 0.25

	// minPathExtent keeps a resting hand from matching trajectories.
	minPathExtent = 0.05
)

// ErrInvalidTemplate is returned for templates that cannot be evaluated.
var ErrInvalidTemplate = errors.New("invalid gesture template")

// Template is a trained custom gesture.
type Template struct {
	ID          string
	Name        string
	Description string
	Kind        TemplateKind
	Landmarks   []landmark.Point // normalized pose, static templates
	Path        []PathPoint      // trajectory, dynamic templates
	Tolerance   float64
	Triggers    []string
}

// Definition builds a custom gesture from the template. Confidence is
// 1/(1+distance), so the base confidence 1/(1+tolerance) accepts exactly
// the matches within tolerance at sensitivity 1.
func (t *Template) Definition() (Definition, error) {
	tol := t.Tolerance
	var eval Evaluator

	switch t.Kind {
	case TemplateStatic:
		if len(t.Landmarks) != landmark.NumLandmarks {
			return Definition{}, fmt.Errorf("%w: %s has %d landmarks", ErrInvalidTemplate, t.ID, len(t.Landmarks))
		}
		if tol <= 0 {
			tol = DefaultStaticTolerance
		}
		pose := slices.Clone(t.Landmarks)
		eval = func(h *TrackedHand, _ *Features, _ *Motion) (float64, error) {
			return score(poseDistance(landmark.Normalize(h.Landmarks[:]), pose)), nil
		}

	case TemplateDynamic:
		if len(t.Path) < 2 {
			return Definition{}, fmt.Errorf("%w: %s has %d path points", ErrInvalidTemplate, t.ID, len(t.Path))
		}
		if tol <= 0 {
			tol = DefaultDynamicTolerance
		}
		path := normalizePath(t.Path)
		eval = func(_ *TrackedHand, _ *Features, m *Motion) (float64, error) {
			if !m.Complete {
				return 0, nil
			}
			input := palmPath(m.Samples)
			if pathExtent(input) < minPathExtent {
				return 0, nil
			}
			return score(DTWDistance(normalizePath(input), path)), nil
		}

	default:
		return Definition{}, fmt.Errorf("%w: %s has kind %q", ErrInvalidTemplate, t.ID, t.Kind)
	}

	name := t.Name
	if name == "" {
		name = t.ID
	}
	return Definition{
		ID:             t.ID,
		DisplayName:    name,
		Description:    t.Description,
		BaseConfidence: score(tol),
		Triggers:       slices.Clone(t.Triggers),
		Kind:           KindCustom,
		Evaluator:      eval,
	}, nil
}

func score(distance float64) float64 {
	if math.IsInf(distance, 1) || math.IsNaN(distance) {
		return 0
	}
	return 1 / (1 + distance)
}

// poseDistance sums the per-landmark Euclidean distances.
func poseDistance(a, b []landmark.Point) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var total float64
	for i := range a {
		total += landmark.Distance(a[i], b[i])
	}
	return total
}

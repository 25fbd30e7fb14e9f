package gesture

import (
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/holocore/internal/landmark"
)

// admitted is an observation that passed validation.
type admitted struct {
	obs        landmark.Observation
	handedness landmark.Handedness
	index      int
	tracked    bool
}

// admit validates the observations of frame and keeps at most maxHands of
// them, ordered as in the input. Observations without their own timestamp
// inherit the frame timestamp.
func (r *Recognizer) admit(frame landmark.Frame) (kept []admitted, issues []Issue, excess int) {
	seen := make(map[string]bool, len(frame.Observations))
	valid := make([]admitted, 0, len(frame.Observations))

	for i, obs := range frame.Observations {
		if obs.Timestamp == 0 {
			obs.Timestamp = frame.Timestamp
		}
		reject := func(format string, args ...any) {
			issues = append(issues, Issue{Index: i, HandID: obs.HandID, Reason: fmt.Sprintf(format, args...)})
		}

		if obs.HandID == "" {
			reject("empty hand id")
			continue
		}
		if seen[obs.HandID] {
			reject("duplicate hand id in frame")
			continue
		}
		seen[obs.HandID] = true

		handedness, ok := landmark.ParseHandedness(obs.Handedness)
		if !ok {
			reject("unknown handedness %q", obs.Handedness)
			continue
		}
		if len(obs.Landmarks) != landmark.NumLandmarks {
			reject("expected %d landmarks, got %d", landmark.NumLandmarks, len(obs.Landmarks))
			continue
		}
		if idx := firstNonFinite(obs.Landmarks); idx >= 0 {
			reject("landmark %d is not finite", idx)
			continue
		}
		if math.IsNaN(obs.Confidence) || math.IsInf(obs.Confidence, 0) {
			reject("tracker confidence is not finite")
			continue
		}
		h, tracked := r.tracker.Get(obs.HandID)
		if tracked && obs.Timestamp < h.LastUpdate {
			reject("timestamp %d precedes last update %d", obs.Timestamp, h.LastUpdate)
			continue
		}

		valid = append(valid, admitted{obs: obs, handedness: handedness, index: i, tracked: tracked})
	}

	if len(valid) <= r.cfg.MaxHands {
		return valid, issues, 0
	}

	ranked := make([]admitted, len(valid))
	copy(ranked, valid)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.obs.Confidence != b.obs.Confidence {
			return a.obs.Confidence > b.obs.Confidence
		}
		if a.tracked != b.tracked {
			return a.tracked
		}
		return a.index < b.index
	})
	ranked = ranked[:r.cfg.MaxHands]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].index < ranked[j].index })
	return ranked, issues, len(valid) - len(ranked)
}

func firstNonFinite(points []landmark.Point) int {
	for i, p := range points {
		if !p.IsFinite() {
			return i
		}
	}
	return -1
}

package gesture

import (
	"github.com/ayusman/holocore/internal/landmark"
)

// Static pose thresholds, in normalized units.
const (
	openTipToWrist   = 0.10
	closedTipToPalm  = 0.05
	foldedTipToPalm  = 0.06
	victoryTipGap    = 0.04
	pinchClosed      = 0.03
	pinchOpen        = 0.08
	palmFacingDepth  = 0.03
	minFingersOpen   = 4
	minFingersClosed = 4
)

// classifier scores one gesture from the per-frame features.
type classifier func(f *Features, m *Motion) float64

func hit(ok bool, yes, no float64) float64 {
	if ok {
		return yes
	}
	return no
}

func countFingers(pred func(landmark.Finger) bool) int {
	n := 0
	for _, finger := range landmark.Fingers {
		if pred(finger) {
			n++
		}
	}
	return n
}

func folded(f *Features, fingers ...landmark.Finger) bool {
	for _, finger := range fingers {
		if f.TipToPalm[finger] >= foldedTipToPalm {
			return false
		}
	}
	return true
}

func isOpen(f *Features) bool {
	return countFingers(func(finger landmark.Finger) bool {
		return f.TipToWrist[finger] > openTipToWrist
	}) >= minFingersOpen
}

func handOpen(f *Features, _ *Motion) float64 {
	return hit(isOpen(f), 0.9, 0.3)
}

func handClosed(f *Features, _ *Motion) float64 {
	n := countFingers(func(finger landmark.Finger) bool {
		return f.TipToPalm[finger] < closedTipToPalm
	})
	return hit(n >= minFingersClosed, 0.9, 0.2)
}

func pointing(f *Features, _ *Motion) float64 {
	ok := f.Extended[landmark.Index] &&
		folded(f, landmark.Middle, landmark.Ring, landmark.Pinky)
	return hit(ok, 0.85, 0.2)
}

func thumbsUp(f *Features, _ *Motion) float64 {
	return hit(f.ThumbUp && folded(f, landmark.Index, landmark.Middle), 0.85, 0.2)
}

func thumbsDown(f *Features, _ *Motion) float64 {
	return hit(f.ThumbDown && folded(f, landmark.Index, landmark.Middle), 0.85, 0.2)
}

func victory(f *Features, _ *Motion) float64 {
	ok := f.AbovePIP[landmark.Index] && f.AbovePIP[landmark.Middle] &&
		f.IndexMiddle < victoryTipGap
	return hit(ok, 0.8, 0.2)
}

// countingFingers are raised in order for number_one, number_two and number_three.
var countingFingers = [3]landmark.Finger{landmark.Index, landmark.Middle, landmark.Ring}

// number returns a classifier for n raised counting fingers: the first n of
// index, middle and ring extended, the rest of them and the pinky folded.
func number(n int) classifier {
	return func(f *Features, _ *Motion) float64 {
		for i, finger := range countingFingers {
			if i < n {
				if !f.Extended[finger] {
					return 0.2
				}
				continue
			}
			if f.Extended[finger] || !folded(f, finger) {
				return 0.2
			}
		}
		return hit(folded(f, landmark.Pinky), 0.8, 0.2)
	}
}

func pinch(f *Features, _ *Motion) float64 {
	return hit(f.Pinch < pinchClosed, 0.9, 0.2)
}

func pinchOut(f *Features, _ *Motion) float64 {
	return hit(f.Pinch > pinchOpen, 0.9, 0.2)
}

func stop(f *Features, _ *Motion) float64 {
	return hit(isOpen(f) && f.PalmDepth < palmFacingDepth, 0.9, 0.3)
}

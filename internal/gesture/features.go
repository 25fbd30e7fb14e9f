package gesture

import (
	"github.com/ayusman/holocore/internal/landmark"
)

// Feature extraction constants, in normalized units.
const (
	extensionMargin    = 0.02
	extensionMinLength = 0.08
)

// Features is the per-frame scalar description of a tracked hand.
type Features struct {
	// Extended reports, per finger, whether the tip is raised above its
	// PIP joint and away from the palm. For the thumb it mirrors ThumbUp.
	Extended [landmark.NumFingers]bool

	// ThumbUp and ThumbDown compare the thumb tip to its IP joint.
	ThumbUp   bool
	ThumbDown bool

	// AbovePIP reports tip.y < pip.y without margin.
	AbovePIP [landmark.NumFingers]bool

	TipToPalm  [landmark.NumFingers]float64
	TipToWrist [landmark.NumFingers]float64

	// Pinch is the thumb tip to index tip distance.
	Pinch float64
	// IndexMiddle is the index tip to middle tip distance.
	IndexMiddle float64

	// PalmDepth is |z(palm) - z(wrist)|.
	PalmDepth float64
}

// Motion describes palm movement over the motion window.
type Motion struct {
	// Samples is the palm history, oldest first.
	Samples []PalmSample
	// Window is the configured history length.
	Window int
	// Complete is true once Samples holds a full window.
	Complete bool

	// DX and DY are the palm displacement between the newest sample and the
	// sample Window-1 frames earlier. Zero until Complete.
	DX, DY float64

	// SignedArea is the shoelace area of the palm polyline. Positive values
	// turn clockwise on screen (y grows downwards). Zero until Complete.
	SignedArea float64
}

// ExtractFeatures derives static features from the smoothed landmarks.
func ExtractFeatures(h *TrackedHand) *Features {
	pts := &h.Landmarks
	palm := pts[landmark.Palm]
	wrist := pts[landmark.Wrist]

	f := &Features{}
	for _, finger := range landmark.Fingers {
		tip := pts[finger.Tip()]
		pip := pts[finger.PIP()]

		f.TipToPalm[finger] = landmark.Distance(tip, palm)
		f.TipToWrist[finger] = landmark.Distance(tip, wrist)
		f.AbovePIP[finger] = tip.Y < pip.Y

		if finger == landmark.Thumb {
			f.ThumbUp = tip.Y < pip.Y-extensionMargin
			f.ThumbDown = tip.Y > pip.Y+extensionMargin
			f.Extended[finger] = f.ThumbUp
			continue
		}
		f.Extended[finger] = tip.Y < pip.Y-extensionMargin &&
			f.TipToPalm[finger] > extensionMinLength
	}

	f.Pinch = landmark.Distance(pts[landmark.ThumbTip], pts[landmark.IndexTip])
	f.IndexMiddle = landmark.Distance(pts[landmark.IndexTip], pts[landmark.MiddleTip])
	f.PalmDepth = abs(palm.Z - wrist.Z)
	return f
}

// ExtractMotion derives motion features from the palm history.
func ExtractMotion(h *TrackedHand, window int) *Motion {
	m := &Motion{Samples: h.palm.Tail(window), Window: window}
	if len(m.Samples) < window || window < 2 {
		return m
	}

	m.Complete = true
	first, last := m.Samples[0].Point, m.Samples[len(m.Samples)-1].Point
	m.DX = last.X - first.X
	m.DY = last.Y - first.Y
	m.SignedArea = signedArea(m.Samples)
	return m
}

// signedArea applies the shoelace formula to the closed palm polyline.
func signedArea(samples []PalmSample) float64 {
	var sum float64
	n := len(samples)
	for i := range samples {
		a := samples[i].Point
		b := samples[(i+1)%n].Point
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package landmark defines the hand landmark topology and the observation
// types exchanged between landmark providers and the gesture recognizer.
package landmark

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Palm is the landmark used as the position proxy of a hand.
const Palm = MiddleMCP

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers = 5
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// Tip returns the landmark index of the finger tip.
func (f Finger) Tip() int {
	return [NumFingers]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}[f]
}

// PIP returns the landmark index of the middle joint used for extension
// checks. For the thumb this is the IP joint.
func (f Finger) PIP() int {
	return [NumFingers]int{ThumbIP, IndexPIP, MiddlePIP, RingPIP, PinkyPIP}[f]
}

// Fingers lists all fingers in anatomical order.
var Fingers = [NumFingers]Finger{Thumb, Index, Middle, Ring, Pinky}

// Point represents a 3D landmark position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsFinite reports whether every component is a finite number.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsNaN(p.Z) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) && !math.IsInf(p.Z, 0)
}

// Lerp moves p towards q by alpha: (1-alpha)*p + alpha*q.
func (p Point) Lerp(q Point, alpha float64) Point {
	return Point{
		X: (1-alpha)*p.X + alpha*q.X,
		Y: (1-alpha)*p.Y + alpha*q.Y,
		Z: (1-alpha)*p.Z + alpha*q.Z,
	}
}

// Distance returns the Euclidean distance between two points over (x, y, z).
func Distance(a, b Point) float64 {
	return floats.Distance([]float64{a.X, a.Y, a.Z}, []float64{b.X, b.Y, b.Z}, 2)
}

// Handedness is the hand label reported by the landmark provider.
type Handedness string

const (
	Left  Handedness = "left"
	Right Handedness = "right"
)

// ParseHandedness accepts the provider's label in any letter case.
func ParseHandedness(s string) (Handedness, bool) {
	switch s {
	case "left", "Left", "LEFT":
		return Left, true
	case "right", "Right", "RIGHT":
		return Right, true
	}
	return "", false
}

// Observation is one hand seen by the landmark provider in one frame.
type Observation struct {
	HandID     string  `json:"handId"`
	Handedness string  `json:"handedness"`
	Landmarks  []Point `json:"landmarks"`
	Confidence float64 `json:"trackerConfidence"`
	Timestamp  int64   `json:"timestamp"`
}

// Frame is the set of observations delivered for one animation tick.
// Timestamp is optional; when zero the latest observation timestamp is used.
type Frame struct {
	Timestamp    int64         `json:"timestamp,omitempty"`
	Observations []Observation `json:"hands"`
}

// Time returns the frame clock: the explicit timestamp, or the latest
// observation timestamp, or zero for an empty frame.
func (f Frame) Time() int64 {
	if f.Timestamp != 0 {
		return f.Timestamp
	}
	var latest int64
	for _, o := range f.Observations {
		if o.Timestamp > latest {
			latest = o.Timestamp
		}
	}
	return latest
}

// Hand represents the 21 hand landmarks detected by a landmark detector.
type Hand struct {
	ID         string              `json:"id,omitempty"`
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness"` // "Left" or "Right"
	Score      float64             `json:"score"`
}

// Observation converts a detected hand into a recognizer observation.
func (h Hand) Observation(id string, timestamp int64) Observation {
	points := make([]Point, NumLandmarks)
	copy(points, h.Points[:])
	if h.ID != "" {
		id = h.ID
	}
	return Observation{
		HandID:     id,
		Handedness: h.Handedness,
		Landmarks:  points,
		Confidence: h.Score,
		Timestamp:  timestamp,
	}
}

// Normalize normalizes the hand landmarks relative to wrist position and hand size.
// The normalized landmarks have the wrist at origin (0,0,0) and are scaled
// so that the distance from wrist to middle finger MCP is 1.0.
func Normalize(points []Point) []Point {
	if len(points) <= MiddleMCP {
		return nil
	}

	wrist := points[Wrist]
	normalized := make([]Point, len(points))
	for i, p := range points {
		normalized[i] = Point{X: p.X - wrist.X, Y: p.Y - wrist.Y, Z: p.Z - wrist.Z}
	}

	scale := Distance(Point{}, normalized[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := range normalized {
		normalized[i].X /= scale
		normalized[i].Y /= scale
		normalized[i].Z /= scale
	}
	return normalized
}

package gesture

import (
	"math"

	"github.com/ayusman/holocore/internal/landmark"
)

func observation(id string, ts int64, points []landmark.Point) landmark.Observation {
	return landmark.Observation{
		HandID:     id,
		Handedness: "right",
		Landmarks:  points,
		Confidence: 0.9,
		Timestamp:  ts,
	}
}

// inPixels scales normalized points to the default canvas.
func inPixels(points []landmark.Point) []landmark.Point {
	for i := range points {
		points[i].X *= DefaultCanvasWidth
		points[i].Y *= DefaultCanvasHeight
	}
	return points
}

func frameOf(ts int64, obs ...landmark.Observation) landmark.Frame {
	return landmark.Frame{Timestamp: ts, Observations: obs}
}

func handAt(points []landmark.Point) *TrackedHand {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)
	h, err := tr.Update(observation("h", 0, points), landmark.Right)
	if err != nil {
		panic(err)
	}
	return h
}

// circle returns n palm centres on a circle, clockwise on screen.
func circle(cx, cy, r float64, n int) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[i] = [2]float64{cx + r*math.Cos(theta), cy + r*math.Sin(theta)}
	}
	return out
}

// recorder collects events published on a topic.
type recorder struct {
	events []Event
}

func (r *recorder) handle(ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) ids() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.ID
	}
	return out
}

func newStarted(opts ...RecognizerOption) *Recognizer {
	r := NewRecognizer(append([]RecognizerOption{WithClock(func() int64 { return 0 })}, opts...)...)
	r.Start()
	return r
}

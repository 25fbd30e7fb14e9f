// Package testdata scripts landmark sessions for end-to-end tests.
package testdata

import (
	"encoding/json"
	"io"

	"github.com/ayusman/holocore/internal/landmark"
)

// FrameStep is the spacing of scripted frames, about 60 fps.
const FrameStep int64 = 16

// Pose builds a hand centred on (cx, cy), e.g. landmark.Pinch.
type Pose func(cx, cy float64) []landmark.Point

// Session accumulates frames for one hand.
type Session struct {
	hand       string
	handedness string
	ts         int64
	frames     []landmark.Frame
}

// NewSession starts a right-hand session at timestamp 0.
func NewSession(hand string) *Session {
	return &Session{hand: hand, handedness: "right"}
}

// Hold keeps pose still at (cx, cy) for n frames.
func (s *Session) Hold(pose Pose, cx, cy float64, n int) *Session {
	for range n {
		s.add(pose(cx, cy))
	}
	return s
}

// Move slides pose in a straight line from (x0, y0) to (x1, y1) over n
// frames.
func (s *Session) Move(pose Pose, x0, y0, x1, y1 float64, n int) *Session {
	for i := range n {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		s.add(pose(x0+(x1-x0)*t, y0+(y1-y0)*t))
	}
	return s
}

// Pause appends n empty frames, long enough pauses let the hand expire.
func (s *Session) Pause(n int) *Session {
	for range n {
		s.frames = append(s.frames, landmark.Frame{Timestamp: s.ts})
		s.ts += FrameStep
	}
	return s
}

// Wait advances the clock by ms without emitting frames.
func (s *Session) Wait(ms int64) *Session {
	s.ts += ms
	return s
}

// Frames returns the scripted frames.
func (s *Session) Frames() []landmark.Frame {
	return s.frames
}

// WriteJSONL writes the session in the recording format, one frame per
// line.
func (s *Session) WriteJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, f := range s.frames {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) add(points []landmark.Point) {
	s.frames = append(s.frames, landmark.Frame{
		Timestamp: s.ts,
		Observations: []landmark.Observation{{
			HandID:     s.hand,
			Handedness: s.handedness,
			Landmarks:  points,
			Confidence: 0.95,
			Timestamp:  s.ts,
		}},
	})
	s.ts += FrameStep
}

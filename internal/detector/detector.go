// Package detector turns camera frames into hand landmarks.
package detector

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/holocore/internal/landmark"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]landmark.Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `koanf:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `koanf:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `koanf:"min_tracking_confidence"`

	// Script overrides the location of mediapipe_service.py.
	Script string `koanf:"script"`

	// Python overrides the interpreter used to run the script.
	Python string `koanf:"python"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}

// AssignIDs gives every hand without an id a stable per-frame id built from
// its handedness and its rank among hands of the same side, for example
// "right-0". MediaPipe reports hands in a consistent order between frames
// so this is enough for the tracker to follow them.
func AssignIDs(hands []landmark.Hand) {
	seen := make(map[string]int)
	for i := range hands {
		if hands[i].ID != "" {
			continue
		}
		side := strings.ToLower(hands[i].Handedness)
		if side == "" {
			side = "hand"
		}
		hands[i].ID = fmt.Sprintf("%s-%d", side, seen[side])
		seen[side]++
	}
}

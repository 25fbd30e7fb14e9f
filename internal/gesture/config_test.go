package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		base, sensitivity, want float64
	}{
		{0.85, 1, 0.85},
		{0.85, 2, 0.425},
		{0.9, 0.5, 1},
		{0.1, 10, 0.05},
		{0.8, 0, 0.8},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, effectiveThreshold(tt.base, tt.sensitivity), 1e-12,
			"base=%g sensitivity=%g", tt.base, tt.sensitivity)
	}
}

func TestConfigClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHands = 0
	cfg.Sensitivity = 50
	cfg.MotionWindow = 1
	cfg.CoordinateSpace = "weird"
	cfg.Thresholds = map[string]float64{"pinch": 1.5}

	out, clamps := cfg.clamped()
	assert.Equal(t, 1, out.MaxHands)
	assert.Equal(t, 10.0, out.Sensitivity)
	assert.Equal(t, 2, out.MotionWindow)
	assert.Equal(t, Normalized, out.CoordinateSpace)
	assert.Equal(t, 1.0, out.Thresholds["pinch"])
	assert.Equal(t, 1.5, cfg.Thresholds["pinch"], "input must not be modified")

	fields := make([]string, len(clamps))
	for i, c := range clamps {
		fields[i] = c.Field
	}
	assert.ElementsMatch(t, []string{"maxHands", "sensitivity", "motionWindow", "coordinateSpace", "thresholds.pinch"}, fields)
}

func TestConfigClamped_CoordinateSpace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CoordinateSpace = ""
	out, clamps := cfg.clamped()
	assert.Equal(t, Normalized, out.CoordinateSpace)
	assert.Empty(t, clamps, "an unset space defaults silently")

	cfg.CoordinateSpace = "polar"
	out, clamps = cfg.clamped()
	assert.Equal(t, Normalized, out.CoordinateSpace)
	assert.Equal(t, []Clamp{{Field: "coordinateSpace", FromText: "polar", ToText: "normalized"}}, clamps)
	assert.Equal(t, `coordinateSpace="polar" reset to "normalized"`, clamps[0].String())
}

func TestDefaultConfigIsValid(t *testing.T) {
	_, clamps := DefaultConfig().clamped()
	assert.Empty(t, clamps)
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithMaxHands(4),
		WithSensitivity(1.5),
		WithSmoothing(0.5),
		WithConfidenceWeightedSmoothing(true),
		WithDebounce(250),
		WithHandTTL(800),
		WithMotionWindow(12),
		WithCustomGestures(false),
		WithCoordinateSpace(Pixel),
		WithCanvas(640, 480),
		WithThreshold("pinch", 0.5),
	} {
		opt(&cfg)
	}

	assert.Equal(t, Config{
		MaxHands:             4,
		Sensitivity:          1.5,
		Smoothing:            0.5,
		ConfidenceWeighted:   true,
		DebounceMs:           250,
		HandTTLMs:            800,
		MotionWindow:         12,
		EnableCustomGestures: false,
		CoordinateSpace:      Pixel,
		CanvasWidth:          640,
		CanvasHeight:         480,
		Thresholds:           map[string]float64{"pinch": 0.5},
	}, cfg)
}

package gesture

import (
	"fmt"
	"maps"
)

// CoordinateSpace selects how landmark coordinates are interpreted.
type CoordinateSpace string

const (
	// Normalized landmarks lie in [0,1] and are scaled to the canvas.
	Normalized CoordinateSpace = "normalized"
	// Pixel landmarks are already expressed in canvas pixels.
	Pixel CoordinateSpace = "pixel"
)

// Config holds the recognizer settings.
type Config struct {
	// MaxHands caps the number of concurrently tracked hands.
	MaxHands int `koanf:"max_hands" json:"maxHands"`

	// Sensitivity divides every base confidence to get the effective threshold.
	Sensitivity float64 `koanf:"sensitivity" json:"sensitivity"`

	// Smoothing is the exponential smoothing factor applied to landmarks.
	Smoothing float64 `koanf:"smoothing" json:"smoothing"`

	// ConfidenceWeighted scales Smoothing by each observation's tracker confidence.
	ConfidenceWeighted bool `koanf:"confidence_weighted" json:"confidenceWeighted"`

	// DebounceMs is the minimum interval between two events sharing a gesture id.
	DebounceMs int64 `koanf:"debounce_ms" json:"debounceMs"`

	// HandTTLMs is the age after which an unseen hand is forgotten.
	HandTTLMs int64 `koanf:"hand_ttl_ms" json:"handTtlMs"`

	// MotionWindow is the palm history length in frames.
	MotionWindow int `koanf:"motion_window" json:"motionWindow"`

	// EnableCustomGestures toggles evaluation of custom gestures.
	EnableCustomGestures bool `koanf:"enable_custom_gestures" json:"enableCustomGestures"`

	CoordinateSpace CoordinateSpace `koanf:"coordinate_space" json:"coordinateSpace"`

	// CanvasWidth and CanvasHeight are the projection target of normalized palms.
	CanvasWidth  float64 `koanf:"canvas_width" json:"canvasWidth"`
	CanvasHeight float64 `koanf:"canvas_height" json:"canvasHeight"`

	// Thresholds overrides the base confidence of individual gestures.
	Thresholds map[string]float64 `koanf:"thresholds" json:"thresholds,omitempty"`
}

// Default configuration values.
const (
	DefaultMaxHands     = 2
	DefaultSensitivity  = 1.0
	DefaultSmoothing    = 0.3
	DefaultDebounceMs   = 1000
	DefaultHandTTLMs    = 500
	DefaultMotionWindow = 10
	DefaultCanvasWidth  = 1280
	DefaultCanvasHeight = 720
	HistoryCapacity     = 50
	DefaultHistoryLimit = 10
)

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:             DefaultMaxHands,
		Sensitivity:          DefaultSensitivity,
		Smoothing:            DefaultSmoothing,
		DebounceMs:           DefaultDebounceMs,
		HandTTLMs:            DefaultHandTTLMs,
		MotionWindow:         DefaultMotionWindow,
		EnableCustomGestures: true,
		CoordinateSpace:      Normalized,
		CanvasWidth:          DefaultCanvasWidth,
		CanvasHeight:         DefaultCanvasHeight,
	}
}

// Accepted ranges. Values outside are clamped and reported once per field.
const (
	minMaxHands     = 1
	maxMaxHands     = 8
	minSensitivity  = 0.1
	maxSensitivity  = 10
	minSmoothing    = 0.01
	maxSmoothing    = 1
	maxDebounceMs   = 60_000
	minHandTTLMs    = 1
	maxHandTTLMs    = 60_000
	minMotionWindow = 2
	maxMotionWindow = 120
	minCanvas       = 1
	maxCanvas       = 16_384
)

// Clamp records a config value that was out of range. Enumerated fields
// carry their values in FromText and ToText instead.
type Clamp struct {
	Field    string
	From     float64
	To       float64
	FromText string
	ToText   string
}

func (c Clamp) String() string {
	if c.FromText != "" || c.ToText != "" {
		return fmt.Sprintf("%s=%q reset to %q", c.Field, c.FromText, c.ToText)
	}
	return fmt.Sprintf("%s=%g clamped to %g", c.Field, c.From, c.To)
}

// clamped returns a copy of c with every value inside its accepted range,
// and the list of adjustments that were made.
func (c Config) clamped() (Config, []Clamp) {
	var clamps []Clamp
	note := func(field string, from, to float64) {
		if from != to {
			clamps = append(clamps, Clamp{Field: field, From: from, To: to})
		}
	}

	out := c
	out.MaxHands = int(clampFloat(float64(c.MaxHands), minMaxHands, maxMaxHands))
	note("maxHands", float64(c.MaxHands), float64(out.MaxHands))

	out.Sensitivity = clampFloat(c.Sensitivity, minSensitivity, maxSensitivity)
	note("sensitivity", c.Sensitivity, out.Sensitivity)

	out.Smoothing = clampFloat(c.Smoothing, minSmoothing, maxSmoothing)
	note("smoothing", c.Smoothing, out.Smoothing)

	out.DebounceMs = int64(clampFloat(float64(c.DebounceMs), 0, maxDebounceMs))
	note("debounceMs", float64(c.DebounceMs), float64(out.DebounceMs))

	out.HandTTLMs = int64(clampFloat(float64(c.HandTTLMs), minHandTTLMs, maxHandTTLMs))
	note("handTtlMs", float64(c.HandTTLMs), float64(out.HandTTLMs))

	out.MotionWindow = int(clampFloat(float64(c.MotionWindow), minMotionWindow, maxMotionWindow))
	note("motionWindow", float64(c.MotionWindow), float64(out.MotionWindow))

	out.CanvasWidth = clampFloat(c.CanvasWidth, minCanvas, maxCanvas)
	note("canvasWidth", c.CanvasWidth, out.CanvasWidth)

	out.CanvasHeight = clampFloat(c.CanvasHeight, minCanvas, maxCanvas)
	note("canvasHeight", c.CanvasHeight, out.CanvasHeight)

	switch c.CoordinateSpace {
	case Pixel, Normalized:
	case "":
		out.CoordinateSpace = Normalized
	default:
		out.CoordinateSpace = Normalized
		clamps = append(clamps, Clamp{
			Field:    "coordinateSpace",
			FromText: string(c.CoordinateSpace),
			ToText:   string(Normalized),
		})
	}

	if c.Thresholds != nil {
		out.Thresholds = make(map[string]float64, len(c.Thresholds))
		for id, v := range c.Thresholds {
			out.Thresholds[id] = clampFloat(v, 0, 1)
			note("thresholds."+id, v, out.Thresholds[id])
		}
	}
	return out, clamps
}

func (c Config) clone() Config {
	out := c
	out.Thresholds = maps.Clone(c.Thresholds)
	return out
}

// Option mutates a Config. Options are applied in order on top of the
// current configuration, so Configure merges rather than replaces.
type Option func(*Config)

// WithMaxHands sets the number of concurrently tracked hands.
func WithMaxHands(n int) Option { return func(c *Config) { c.MaxHands = n } }

// WithSensitivity sets the global threshold divisor.
func WithSensitivity(s float64) Option { return func(c *Config) { c.Sensitivity = s } }

// WithSmoothing sets the exponential smoothing factor.
func WithSmoothing(alpha float64) Option { return func(c *Config) { c.Smoothing = alpha } }

// WithConfidenceWeightedSmoothing scales smoothing by tracker confidence.
func WithConfidenceWeightedSmoothing(on bool) Option {
	return func(c *Config) { c.ConfidenceWeighted = on }
}

// WithDebounce sets the per-gesture minimum interval in milliseconds.
func WithDebounce(ms int64) Option { return func(c *Config) { c.DebounceMs = ms } }

// WithHandTTL sets the hand eviction age in milliseconds.
func WithHandTTL(ms int64) Option { return func(c *Config) { c.HandTTLMs = ms } }

// WithMotionWindow sets the palm history length.
func WithMotionWindow(n int) Option { return func(c *Config) { c.MotionWindow = n } }

// WithCustomGestures enables or disables custom gesture evaluation.
func WithCustomGestures(on bool) Option { return func(c *Config) { c.EnableCustomGestures = on } }

// WithCoordinateSpace selects normalized or pixel landmarks.
func WithCoordinateSpace(s CoordinateSpace) Option {
	return func(c *Config) { c.CoordinateSpace = s }
}

// WithCanvas sets the screen projection size.
func WithCanvas(width, height float64) Option {
	return func(c *Config) {
		c.CanvasWidth = width
		c.CanvasHeight = height
	}
}

// WithThreshold overrides the base confidence of one gesture.
func WithThreshold(id string, base float64) Option {
	return func(c *Config) {
		if c.Thresholds == nil {
			c.Thresholds = make(map[string]float64)
		}
		c.Thresholds[id] = base
	}
}

// WithConfig replaces every field with cfg. Zero values are kept as given,
// so callers building a Config by hand should start from DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg.clone() }
}

// effectiveThreshold returns clamp(base / sensitivity, 0.05, 1.0).
func effectiveThreshold(base, sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = DefaultSensitivity
	}
	return clampFloat(base/sensitivity, 0.05, 1.0)
}

func clampFloat(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

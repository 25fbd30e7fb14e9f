package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/holocore/internal/capture"
	"github.com/ayusman/holocore/internal/detector"
	"github.com/ayusman/holocore/internal/landmark"
	"github.com/ayusman/holocore/pkg/logger"
)

// Frame rates of the camera provider. The camera idles at a low rate
// until the motion gate opens.
const (
	IdleFPS       = 5
	ActiveFPS     = 15
	IdleTimeoutMs = 2000
)

// CameraConfig tunes the camera provider.
type CameraConfig struct {
	IdleFPS   int `koanf:"idle_fps"`
	ActiveFPS int `koanf:"active_fps"`
	// IdleTimeoutMs is how long without motion before dropping to IdleFPS.
	IdleTimeoutMs int64 `koanf:"idle_timeout_ms"`
	// MotionThreshold is the percentage of changed pixels that opens the
	// gate. Zero disables gating and every frame goes to the detector.
	MotionThreshold float64 `koanf:"motion_threshold"`
	// MotionHold keeps the gate open for this many still frames.
	MotionHold int `koanf:"motion_hold"`
}

// DefaultCameraConfig returns the provider defaults.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		IdleFPS:         IdleFPS,
		ActiveFPS:       ActiveFPS,
		IdleTimeoutMs:   IdleTimeoutMs,
		MotionThreshold: 1,
		MotionHold:      10,
	}
}

// CameraProvider captures frames from a camera, runs the hand detector
// on the ones that pass the motion gate and stamps them with the wall
// clock. Gated frames are delivered empty so stale hands still expire.
type CameraProvider struct {
	camera   capture.Camera
	detector detector.Detector
	gate     *capture.MotionGate
	cfg      CameraConfig
	log      logger.Logger
	clock    func() int64

	ticker     *time.Ticker
	active     bool
	lastMotion int64
}

// CameraOption configures a CameraProvider.
type CameraOption func(*CameraProvider)

// WithCameraClock sets the millisecond clock used for timestamps.
func WithCameraClock(now func() int64) CameraOption {
	return func(c *CameraProvider) { c.clock = now }
}

// WithCameraLogger sets the logger.
func WithCameraLogger(l logger.Logger) CameraOption {
	return func(c *CameraProvider) { c.log = l }
}

// NewCameraProvider opens cam and returns a provider that detects hands
// with det. The provider owns both and closes them on Close.
func NewCameraProvider(cam capture.Camera, det detector.Detector, cfg CameraConfig, opts ...CameraOption) (*CameraProvider, error) {
	def := DefaultCameraConfig()
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleTimeoutMs <= 0 {
		cfg.IdleTimeoutMs = def.IdleTimeoutMs
	}

	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}

	c := &CameraProvider{
		camera:   cam,
		detector: det,
		cfg:      cfg,
		log:      logger.Nop(),
		clock:    func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.MotionThreshold > 0 {
		c.gate = capture.NewMotionGate(cfg.MotionThreshold, cfg.MotionHold)
	} else {
		c.active = true
	}

	rate := cfg.IdleFPS
	if c.active {
		rate = cfg.ActiveFPS
	}
	cam.SetFPS(rate)
	c.ticker = time.NewTicker(time.Second / time.Duration(rate))
	return c, nil
}

func (c *CameraProvider) Name() string { return "camera" }

// Next waits for the next tick and returns the detected hands.
func (c *CameraProvider) Next(ctx context.Context) (landmark.Frame, error) {
	select {
	case <-ctx.Done():
		return landmark.Frame{}, ctx.Err()
	case <-c.ticker.C:
	}

	mat, err := c.camera.ReadFrame()
	if errors.Is(err, capture.ErrEndOfStream) {
		return landmark.Frame{}, io.EOF
	}
	if err != nil {
		return landmark.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	defer mat.Close()

	now := c.clock()
	frame := landmark.Frame{Timestamp: now}

	if c.gate != nil {
		open, _ := c.gate.Open(mat)
		c.pace(open, now)
		if !open {
			return frame, nil
		}
	}

	hands, err := c.detector.Detect(mat)
	if err != nil {
		return landmark.Frame{}, fmt.Errorf("detect hands: %w", err)
	}
	detector.AssignIDs(hands)

	frame.Observations = make([]landmark.Observation, len(hands))
	for i, h := range hands {
		frame.Observations[i] = h.Observation(h.ID, now)
	}
	return frame, nil
}

// pace switches between the idle and active frame rates.
func (c *CameraProvider) pace(motion bool, now int64) {
	switch {
	case motion:
		c.lastMotion = now
		if !c.active {
			c.active = true
			c.setRate(c.cfg.ActiveFPS)
			c.log.Debug("camera active", logger.Int("fps", c.cfg.ActiveFPS))
		}
	case c.active && now-c.lastMotion > c.cfg.IdleTimeoutMs:
		c.active = false
		c.setRate(c.cfg.IdleFPS)
		c.log.Debug("camera idle", logger.Int("fps", c.cfg.IdleFPS))
	}
}

func (c *CameraProvider) setRate(fps int) {
	c.camera.SetFPS(fps)
	c.ticker.Reset(time.Second / time.Duration(fps))
}

// Active reports whether the provider runs at the active frame rate.
func (c *CameraProvider) Active() bool { return c.active }

// Close stops the ticker and releases the camera and detector.
func (c *CameraProvider) Close() error {
	c.ticker.Stop()
	if c.gate != nil {
		c.gate.Close()
	}
	return errors.Join(c.detector.Close(), c.camera.Close())
}

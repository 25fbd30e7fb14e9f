package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame differencing constants.
const (
	// blurSize is the Gaussian kernel applied before differencing.
	blurSize = 21
	// diffThreshold is the per-pixel intensity change counted as motion.
	diffThreshold = 25
)

// MotionGate decides whether a frame is worth sending to the hand
// detector. It opens when the share of changed pixels exceeds Threshold
// percent and stays open for Hold further frames, so a hand that comes to
// rest keeps being tracked long enough to finish a static pose.
type MotionGate struct {
	threshold   float64
	hold        int
	remaining   int
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionGate creates a gate that opens above threshold percent change.
func NewMotionGate(threshold float64, hold int) *MotionGate {
	return &MotionGate{
		threshold: threshold,
		hold:      max(hold, 0),
		prevGray:  gocv.NewMat(),
	}
}

// Open reports whether the frame should be processed, together with the
// percentage of pixels that changed since the previous frame. The first
// frame always opens the gate.
func (m *MotionGate) Open(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		m.remaining = m.hold
		return true, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100
	blurred.CopyTo(&m.prevGray)

	if changed > m.threshold {
		m.remaining = m.hold
		return true, changed
	}
	if m.remaining > 0 {
		m.remaining--
		return true, changed
	}
	return false, changed
}

// Reset forgets the baseline frame.
func (m *MotionGate) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Close releases the baseline frame. The gate may be reused afterwards.
func (m *MotionGate) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *MotionGate) resetLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
	m.remaining = 0
}

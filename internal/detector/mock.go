package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/holocore/internal/landmark"
)

// MockDetector is a Detector whose results are set by tests. Queued
// results are returned one per call; once the queue is empty the last
// value set with SetHands is repeated.
type MockDetector struct {
	mu     sync.Mutex
	hands  []landmark.Hand
	queue  [][]landmark.Hand
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by Detect.
func (m *MockDetector) SetHands(hands []landmark.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Queue appends per-call results ahead of the SetHands value.
func (m *MockDetector) Queue(frames ...[]landmark.Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next queued result, the configured hands or the error.
func (m *MockDetector) Detect(*gocv.Mat) ([]landmark.Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// PoseHand returns a right hand in one of the preset poses, centred at
// (0.5, 0.5). Unknown pose names yield the neutral pose.
func PoseHand(pose string) landmark.Hand {
	build, ok := landmark.PresetPoses[pose]
	if !ok {
		build = landmark.Neutral
	}
	return landmark.HandFromPoints("", "Right", 0.95, build(0.5, 0.5))
}

package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// SequenceCamera plays back a fixed list of frames. It stands in for a
// device in tests and in headless runs driven by a mock detector.
type SequenceCamera struct {
	frames []gocv.Mat
	index  int
	loop   bool
	fps    int
	open   bool
	mu     sync.Mutex
}

// NewSequenceCamera returns a camera that yields clones of frames in
// order. With loop set it starts over instead of returning ErrEndOfStream.
func NewSequenceCamera(frames []gocv.Mat, loop bool) *SequenceCamera {
	return &SequenceCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

// BlankFrames returns n black frames of the given size.
func BlankFrames(n, width, height int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	}
	return frames
}

func (c *SequenceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.index = 0
	return nil
}

func (c *SequenceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *SequenceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++
	return &frame, nil
}

func (c *SequenceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *SequenceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *SequenceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Release closes every frame held by the camera.
func (c *SequenceCamera) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.frames {
		c.frames[i].Close()
	}
	c.frames = nil
}

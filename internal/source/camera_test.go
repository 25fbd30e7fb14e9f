package source

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/holocore/internal/capture"
	"github.com/ayusman/holocore/internal/detector"
	"github.com/ayusman/holocore/internal/landmark"
)

func fastConfig() CameraConfig {
	return CameraConfig{IdleFPS: 500, ActiveFPS: 1000, IdleTimeoutMs: 5}
}

func TestCameraProvider_DetectsAndStamps(t *testing.T) {
	cam := capture.NewSequenceCamera(capture.BlankFrames(2, 32, 24), false)
	defer cam.Release()

	det := detector.NewMockDetector()
	det.Queue(
		[]landmark.Hand{detector.PoseHand("pinch"), detector.PoseHand("fist")},
		nil,
	)

	var now int64 = 1000
	p, err := NewCameraProvider(cam, det, fastConfig(), WithCameraClock(func() int64 {
		now += 16
		return now
	}))
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	f, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1016), f.Timestamp)
	require.Len(t, f.Observations, 2)
	assert.Equal(t, "right-0", f.Observations[0].HandID)
	assert.Equal(t, "right-1", f.Observations[1].HandID)
	assert.Equal(t, int64(1016), f.Observations[0].Timestamp)
	assert.Len(t, f.Observations[0].Landmarks, landmark.NumLandmarks)

	f, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.Observations)

	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, p.Close())
	assert.True(t, det.Closed())
	assert.False(t, cam.IsOpen())
}

func TestCameraProvider_MotionGate(t *testing.T) {
	cam := capture.NewSequenceCamera(capture.BlankFrames(4, 32, 24), false)
	defer cam.Release()
	det := detector.NewMockDetector()
	det.SetHands([]landmark.Hand{detector.PoseHand("fist")})

	cfg := fastConfig()
	cfg.MotionThreshold = 1
	cfg.MotionHold = 1
	p, err := NewCameraProvider(cam, det, cfg)
	require.NoError(t, err)
	defer p.Close()

	var counts []int
	for range 4 {
		f, err := p.Next(context.Background())
		require.NoError(t, err)
		counts = append(counts, len(f.Observations))
	}

	// first frame opens, one held frame, then identical frames are gated
	assert.Equal(t, []int{1, 1, 0, 0}, counts)
	assert.Equal(t, 2, det.Calls())
}

func TestCameraProvider_DetectorError(t *testing.T) {
	cam := capture.NewSequenceCamera(capture.BlankFrames(1, 8, 8), true)
	defer cam.Release()
	det := detector.NewMockDetector()
	det.SetError(errors.New("service crashed"))

	p, err := NewCameraProvider(cam, det, fastConfig())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Next(context.Background())
	assert.ErrorContains(t, err, "service crashed")
}

func TestCameraProvider_Cancelled(t *testing.T) {
	cam := capture.NewSequenceCamera(capture.BlankFrames(1, 8, 8), true)
	defer cam.Release()

	p, err := NewCameraProvider(cam, detector.NewMockDetector(), CameraConfig{IdleFPS: 1, ActiveFPS: 1})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

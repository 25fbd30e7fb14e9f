package gesture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/holocore/internal/landmark"
)

func TestTracker_NewHandUsesRawLandmarks(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)
	points := landmark.OpenPalm(0.4, 0.6)

	h, err := tr.Update(observation("a", 100, points), landmark.Left)
	require.NoError(t, err)

	assert.Equal(t, points, h.Landmarks[:])
	assert.Equal(t, landmark.Left, h.Handedness)
	assert.Equal(t, int64(100), h.FirstSeen)
	assert.Equal(t, []PalmSample{{Point: points[landmark.Palm], Timestamp: 100}}, h.PalmHistory())
}

func TestTracker_Smoothing(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)

	_, err := tr.Update(observation("a", 0, landmark.Fist(0.2, 0.2)), landmark.Right)
	require.NoError(t, err)
	h, err := tr.Update(observation("a", 16, landmark.Fist(0.6, 0.2)), landmark.Right)
	require.NoError(t, err)

	// (1-0.3)*0.2 + 0.3*0.6
	assert.InDelta(t, 0.32, h.Palm().X, 1e-9)
	assert.InDelta(t, 0.2, h.Palm().Y, 1e-9)

	// the palm ring keeps raw positions
	history := h.PalmHistory()
	require.Len(t, history, 2)
	assert.InDelta(t, 0.6, history[1].Point.X, 1e-9)
}

func TestTracker_ConfidenceWeightedSmoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfidenceWeighted = true
	tr := NewTracker(&cfg)

	_, err := tr.Update(observation("a", 0, landmark.Fist(0.2, 0.2)), landmark.Right)
	require.NoError(t, err)

	obs := observation("a", 16, landmark.Fist(0.6, 0.2))
	obs.Confidence = 0.5
	h, err := tr.Update(obs, landmark.Right)
	require.NoError(t, err)

	// alpha = 0.3 * 0.5
	assert.InDelta(t, 0.26, h.Palm().X, 1e-9)
}

func TestTracker_SmoothingIsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	for range 200 {
		cfg.Smoothing = 0.01 + rng.Float64()*0.99
		tr := NewTracker(&cfg)

		prev := randomPoints(rng)
		raw := randomPoints(rng)
		_, err := tr.Update(observation("a", 0, prev), landmark.Right)
		require.NoError(t, err)
		h, err := tr.Update(observation("a", 1, raw), landmark.Right)
		require.NoError(t, err)

		for i, p := range h.Landmarks {
			assertBetween(t, p.X, prev[i].X, raw[i].X)
			assertBetween(t, p.Y, prev[i].Y, raw[i].Y)
			assertBetween(t, p.Z, prev[i].Z, raw[i].Z)
		}
	}
}

func randomPoints(rng *rand.Rand) []landmark.Point {
	points := make([]landmark.Point, landmark.NumLandmarks)
	for i := range points {
		points[i] = landmark.Point{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64() - 0.5}
	}
	return points
}

func assertBetween(t *testing.T, v, a, b float64) {
	t.Helper()
	lo, hi := math.Min(a, b), math.Max(a, b)
	assert.True(t, v >= lo-1e-12 && v <= hi+1e-12, "%g not in [%g, %g]", v, lo, hi)
}

func TestTracker_RejectsNonFiniteSmoothing(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)

	_, err := tr.Update(observation("a", 0, landmark.Fist(0.5, 0.5)), landmark.Right)
	require.NoError(t, err)

	// corrupt the stored state so the next step yields Inf - Inf
	h, _ := tr.Get("a")
	h.Landmarks[3].X = math.Inf(1)
	raw := landmark.Fist(0.5, 0.5)
	raw[3].X = -math.MaxFloat64

	cfg.Smoothing = 1
	h, err = tr.Update(observation("a", 16, raw), landmark.Right)
	require.ErrorIs(t, err, errNonFiniteSmoothing)
	assert.True(t, math.IsInf(h.Landmarks[3].X, 1))
	assert.Equal(t, int64(0), h.LastUpdate)
	assert.Equal(t, 1, h.Frames)
	assert.Len(t, h.PalmHistory(), 1)
}

func TestTracker_PalmHistoryBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotionWindow = 5
	tr := NewTracker(&cfg)

	var h *TrackedHand
	for i := range 12 {
		var err error
		h, err = tr.Update(observation("a", int64(i), landmark.Fist(0.5, 0.5)), landmark.Right)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(h.PalmHistory()), cfg.MotionWindow)
	}
	assert.Equal(t, int64(7), h.PalmHistory()[0].Timestamp)

	cfg.MotionWindow = 3
	tr.ResizeHistory(cfg.MotionWindow)
	history := h.PalmHistory()
	require.Len(t, history, 3)
	assert.Equal(t, int64(9), history[0].Timestamp)
}

func TestTracker_Evict(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)

	_, _ = tr.Update(observation("a", 0, landmark.Fist(0.5, 0.5)), landmark.Right)
	_, _ = tr.Update(observation("b", 400, landmark.Fist(0.5, 0.5)), landmark.Right)

	assert.Empty(t, tr.Evict(500, 500))
	assert.Equal(t, []string{"a"}, tr.Evict(501, 500))
	assert.False(t, tr.Has("a"))
	assert.True(t, tr.Has("b"))
}

func TestTracker_EvictStalest(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)
	_, _ = tr.Update(observation("a", 10, landmark.Fist(0.5, 0.5)), landmark.Right)
	_, _ = tr.Update(observation("b", 5, landmark.Fist(0.5, 0.5)), landmark.Right)
	_, _ = tr.Update(observation("c", 1, landmark.Fist(0.5, 0.5)), landmark.Right)

	id, ok := tr.EvictStalest(map[string]bool{"c": true})
	require.True(t, ok)
	assert.Equal(t, "b", id)

	assert.Equal(t, []string{"c"}, tr.Trim(1))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_ScreenPosition(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(&cfg)
	h, _ := tr.Update(observation("a", 0, landmark.Fist(0.25, 0.5)), landmark.Right)

	assert.Equal(t, ScreenPoint{X: 320, Y: 360}, tr.ScreenPosition(h))

	cfg.CoordinateSpace = Pixel
	assert.Equal(t, ScreenPoint{X: 0.25, Y: 0.5}, tr.ScreenPosition(h))
}

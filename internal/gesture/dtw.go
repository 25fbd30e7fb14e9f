package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// PathPoint is one point of a palm trajectory.
type PathPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// DTWDistance returns the dynamic time warping distance between two paths,
// normalized by the longer path length. Empty paths are infinitely far.
func DTWDistance(a, b []PathPoint) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Two rolling rows of the (n+1) x (m+1) cost matrix.
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := pathDistance(a[i-1], b[j-1])
			curr[j] = cost + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[m] / float64(max(n, m))
}

func pathDistance(a, b PathPoint) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// pathExtent is the larger side of the bounding box of path.
func pathExtent(path []PathPoint) float64 {
	if len(path) == 0 {
		return 0
	}
	xs := make([]float64, len(path))
	ys := make([]float64, len(path))
	for i, p := range path {
		xs[i], ys[i] = p.X, p.Y
	}
	return math.Max(floats.Max(xs)-floats.Min(xs), floats.Max(ys)-floats.Min(ys))
}

// normalizePath scales a path into the unit square, keeping timestamps.
// Axes without spread collapse to 0.
func normalizePath(path []PathPoint) []PathPoint {
	if len(path) == 0 {
		return nil
	}
	minX, maxX := path[0].X, path[0].X
	minY, maxY := path[0].Y, path[0].Y
	for _, p := range path[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	out := make([]PathPoint, len(path))
	for i, p := range path {
		out[i].Timestamp = p.Timestamp
		if rangeX > 0 {
			out[i].X = (p.X - minX) / rangeX
		}
		if rangeY > 0 {
			out[i].Y = (p.Y - minY) / rangeY
		}
	}
	return out
}

// resamplePath linearly interpolates path to exactly n points.
func resamplePath(path []PathPoint, n int) []PathPoint {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 || n <= 1 {
		return []PathPoint{path[0]}
	}

	out := make([]PathPoint, n)
	for i := range out {
		pos := float64(i) / float64(n-1) * float64(len(path)-1)
		idx := min(int(pos), len(path)-2)
		frac := pos - float64(idx)

		p1, p2 := path[idx], path[idx+1]
		out[i] = PathPoint{
			X:         p1.X + frac*(p2.X-p1.X),
			Y:         p1.Y + frac*(p2.Y-p1.Y),
			Timestamp: p1.Timestamp + int64(frac*float64(p2.Timestamp-p1.Timestamp)),
		}
	}
	return out
}

// palmPath converts palm samples into a trajectory.
func palmPath(samples []PalmSample) []PathPoint {
	out := make([]PathPoint, len(samples))
	for i, s := range samples {
		out[i] = PathPoint{X: s.Point.X, Y: s.Point.Y, Timestamp: s.Timestamp}
	}
	return out
}

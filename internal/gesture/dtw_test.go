package gesture

import (
	"math"
	"testing"
)

func TestDTW_IdenticalPaths(t *testing.T) {
	path := []PathPoint{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 1, Y: 1, Timestamp: 100},
		{X: 2, Y: 2, Timestamp: 200},
	}

	if d := DTWDistance(path, path); d != 0 {
		t.Errorf("expected distance 0 for identical paths, got %f", d)
	}
}

func TestDTW_DifferentPaths(t *testing.T) {
	path1 := []PathPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	path2 := []PathPoint{{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2}}

	d := DTWDistance(path1, path2)
	if math.Abs(d-2) > 1e-9 {
		t.Errorf("expected distance 2 for parallel paths 2 apart, got %f", d)
	}
}

func TestDTW_SpeedInvariant(t *testing.T) {
	fast := []PathPoint{{X: 0}, {X: 1}, {X: 2}}
	slow := []PathPoint{
		{X: 0}, {X: 0.25}, {X: 0.5}, {X: 0.75}, {X: 1},
		{X: 1.25}, {X: 1.5}, {X: 1.75}, {X: 2},
	}

	if d := DTWDistance(fast, slow); d > 0.5 {
		t.Errorf("expected low distance for the same trajectory at different speeds, got %f", d)
	}
}

func TestDTW_Symmetric(t *testing.T) {
	a := []PathPoint{{X: 0, Y: 0}, {X: 0.3, Y: 0.1}, {X: 0.9, Y: 0.4}}
	b := []PathPoint{{X: 0.1, Y: 0}, {X: 0.5, Y: 0.5}}

	if d1, d2 := DTWDistance(a, b), DTWDistance(b, a); math.Abs(d1-d2) > 1e-12 {
		t.Errorf("expected symmetric distance, got %f and %f", d1, d2)
	}
}

func TestDTW_EmptyPaths(t *testing.T) {
	path := []PathPoint{{X: 0, Y: 0}}

	tests := []struct {
		name string
		a, b []PathPoint
	}{
		{"first empty", nil, path},
		{"second empty", path, nil},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := DTWDistance(tt.a, tt.b); !math.IsInf(d, 1) {
				t.Errorf("expected +Inf, got %f", d)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	path := []PathPoint{
		{X: 10, Y: 20, Timestamp: 0},
		{X: 20, Y: 40, Timestamp: 100},
		{X: 30, Y: 20, Timestamp: 200},
	}
	got := normalizePath(path)
	want := []PathPoint{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 0.5, Y: 1, Timestamp: 100},
		{X: 1, Y: 0, Timestamp: 200},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if normalizePath(nil) != nil {
		t.Error("expected nil for empty path")
	}
	if single := normalizePath([]PathPoint{{X: 5, Y: 5, Timestamp: 7}}); single[0] != (PathPoint{Timestamp: 7}) {
		t.Errorf("single point should collapse to origin, got %+v", single[0])
	}
}

func TestPathExtent(t *testing.T) {
	path := []PathPoint{{X: 0.1, Y: 0.5}, {X: 0.2, Y: 0.8}, {X: 0.15, Y: 0.6}}
	if e := pathExtent(path); math.Abs(e-0.3) > 1e-9 {
		t.Errorf("expected extent 0.3, got %f", e)
	}
	if e := pathExtent(nil); e != 0 {
		t.Errorf("expected 0 for empty path, got %f", e)
	}
}

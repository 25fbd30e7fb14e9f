package gesture

// Motion gesture thresholds, in normalized units.
const (
	swipeDistance = 0.05
	rotationArea  = 0.02
)

// swipe returns a classifier firing when the palm displacement along one
// axis passes the swipe distance in the given direction.
func swipe(axis func(m *Motion) float64, direction float64) classifier {
	return func(_ *Features, m *Motion) float64 {
		if !m.Complete {
			return 0
		}
		return hit(axis(m)*direction > swipeDistance, 0.8, 0.1)
	}
}

func deltaX(m *Motion) float64 { return m.DX }
func deltaY(m *Motion) float64 { return m.DY }

// rotate returns a classifier for a circular palm path; direction +1 is
// clockwise on screen, -1 counter-clockwise.
func rotate(direction float64) classifier {
	return func(_ *Features, m *Motion) float64 {
		if !m.Complete {
			return 0
		}
		return hit(m.SignedArea*direction > rotationArea, 0.7, 0.1)
	}
}

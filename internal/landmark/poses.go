package landmark

// Preset hand poses in normalized image coordinates. Each pose is laid out
// around the palm point (landmark 9) and is used by the mock detector, the
// simulate endpoint and tests.

type offset struct{ dx, dy float64 }

// Shared geometry: wrist below the palm, MCP knuckles fanned out.
var (
	wristOffset = offset{0, 0.06}
	mcpOffsets  = [NumFingers]offset{
		{0.07, 0.03},    // thumb MCP
		{0.045, 0.005},  // index MCP
		{0, 0},          // middle MCP (palm)
		{-0.045, 0.005}, // ring MCP
		{-0.085, 0.02},  // pinky MCP
	}
	thumbCMC = offset{0.05, 0.05}
)

// fingerShape holds PIP, DIP and tip offsets of a non-thumb finger relative
// to the palm point.
type fingerShape [3]offset

// thumbShape holds IP and tip offsets relative to the palm point.
type thumbShape [2]offset

func extended(f Finger) fingerShape {
	m := mcpOffsets[f]
	return fingerShape{{m.dx, m.dy - 0.06}, {m.dx, m.dy - 0.10}, {m.dx, m.dy - 0.14}}
}

var folded = [NumFingers]fingerShape{
	Index:  {{0.045, -0.025}, {0.035, -0.005}, {0.02, 0.01}},
	Middle: {{0, -0.03}, {-0.005, -0.01}, {0, 0.015}},
	Ring:   {{-0.045, -0.025}, {-0.035, -0.005}, {-0.02, 0.015}},
	Pinky:  {{-0.085, -0.01}, {-0.07, 0.01}, {-0.04, 0.02}},
}

// half-curled: not extended, but far enough from the palm not to count as folded.
var curled = [NumFingers]fingerShape{
	Ring:  {{-0.045, -0.025}, {-0.055, -0.03}, {-0.065, -0.03}},
	Pinky: {{-0.085, -0.01}, {-0.09, -0.005}, {-0.09, 0}},
}

var (
	thumbTucked = thumbShape{{0.055, 0.03}, {0.045, 0.04}}
	thumbUp     = thumbShape{{0.08, -0.03}, {0.08, -0.09}}
	thumbDown   = thumbShape{{0.08, 0.07}, {0.08, 0.13}}
	thumbOut    = thumbShape{{0.10, 0.01}, {0.14, 0}}
)

func build(cx, cy float64, thumb thumbShape, fingers [NumFingers]fingerShape) []Point {
	at := func(o offset) Point { return Point{X: cx + o.dx, Y: cy + o.dy} }

	points := make([]Point, NumLandmarks)
	points[Wrist] = at(wristOffset)
	points[ThumbCMC] = at(thumbCMC)
	points[ThumbMCP] = at(mcpOffsets[Thumb])
	points[ThumbIP] = at(thumb[0])
	points[ThumbTip] = at(thumb[1])

	for _, f := range Fingers[1:] {
		mcp := f.Tip() - 3
		points[mcp] = at(mcpOffsets[f])
		for j, o := range fingers[f] {
			points[mcp+1+j] = at(o)
		}
	}
	return points
}

// OpenPalm returns all five fingers spread, palm facing the camera.
func OpenPalm(cx, cy float64) []Point {
	return build(cx, cy, thumbOut, [NumFingers]fingerShape{
		Index: extended(Index), Middle: extended(Middle), Ring: extended(Ring), Pinky: extended(Pinky),
	})
}

// Fist returns a closed hand with every fingertip near the palm.
func Fist(cx, cy float64) []Point {
	return build(cx, cy, thumbTucked, folded)
}

// Pointing returns an extended index finger with the rest folded.
func Pointing(cx, cy float64) []Point {
	fingers := folded
	fingers[Index] = extended(Index)
	return build(cx, cy, thumbTucked, fingers)
}

// ThumbsUp returns a fist with the thumb raised.
func ThumbsUp(cx, cy float64) []Point {
	return build(cx, cy, thumbUp, folded)
}

// ThumbsDown returns a fist with the thumb lowered.
func ThumbsDown(cx, cy float64) []Point {
	return build(cx, cy, thumbDown, folded)
}

// Victory returns index and middle extended and held together.
func Victory(cx, cy float64) []Point {
	fingers := folded
	fingers[Index] = fingerShape{{0.04, -0.055}, {0.03, -0.095}, {0.025, -0.135}}
	fingers[Middle] = extended(Middle)
	return build(cx, cy, thumbTucked, fingers)
}

// Three returns index, middle and ring extended with the pinky folded.
func Three(cx, cy float64) []Point {
	fingers := folded
	fingers[Index] = extended(Index)
	fingers[Middle] = extended(Middle)
	fingers[Ring] = extended(Ring)
	return build(cx, cy, thumbTucked, fingers)
}

// Pinch returns the thumb and index tips touching 0.10 above the palm.
func Pinch(cx, cy float64) []Point {
	fingers := folded
	fingers[Index] = fingerShape{{0.04, -0.09}, {0.03, -0.10}, {0.01, -0.10}}
	return build(cx, cy, thumbShape{{0.03, -0.09}, {0, -0.10}}, fingers)
}

// Neutral returns a relaxed hand that matches none of the built-in poses.
func Neutral(cx, cy float64) []Point {
	fingers := folded
	fingers[Ring] = curled[Ring]
	fingers[Pinky] = curled[Pinky]
	return build(cx, cy, thumbTucked, fingers)
}

// PresetPoses maps pose names to their constructors.
var PresetPoses = map[string]func(cx, cy float64) []Point{
	"open_palm":   OpenPalm,
	"fist":        Fist,
	"pointing":    Pointing,
	"thumbs_up":   ThumbsUp,
	"thumbs_down": ThumbsDown,
	"victory":     Victory,
	"three":       Three,
	"pinch":       Pinch,
	"neutral":     Neutral,
}

// HandFromPoints packs a 21-point slice into a detector Hand.
func HandFromPoints(id, handedness string, score float64, points []Point) Hand {
	h := Hand{ID: id, Handedness: handedness, Score: score}
	copy(h.Points[:], points)
	return h
}

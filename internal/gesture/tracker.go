package gesture

import (
	"errors"
	"sort"

	"github.com/ayusman/holocore/internal/landmark"
)

var errNonFiniteSmoothing = errors.New("smoothing produced a non-finite landmark")

// PalmSample is one entry of a hand's palm history.
type PalmSample struct {
	Point     landmark.Point `json:"point"`
	Timestamp int64          `json:"timestamp"`
}

// TrackedHand is the smoothed state of one hand id.
type TrackedHand struct {
	ID         string
	Handedness landmark.Handedness
	Landmarks  [landmark.NumLandmarks]landmark.Point
	Confidence float64
	FirstSeen  int64
	LastUpdate int64
	Frames     int

	palm *Ring[PalmSample]
}

// Palm returns the smoothed palm point.
func (h *TrackedHand) Palm() landmark.Point {
	return h.Landmarks[landmark.Palm]
}

// PalmHistory returns the palm samples, oldest first.
func (h *TrackedHand) PalmHistory() []PalmSample {
	return h.palm.Slice()
}

// scaled returns a copy of h with x multiplied by sx and y by sy in the
// landmarks and the palm history.
func (h *TrackedHand) scaled(sx, sy float64) *TrackedHand {
	out := *h
	for i := range out.Landmarks {
		out.Landmarks[i].X *= sx
		out.Landmarks[i].Y *= sy
	}
	out.palm = NewRing[PalmSample](h.palm.Cap())
	for _, s := range h.palm.Slice() {
		s.Point.X *= sx
		s.Point.Y *= sy
		out.palm.Push(s)
	}
	return &out
}

// HandSnapshot is an immutable copy of a tracked hand carried by events.
type HandSnapshot struct {
	ID          string                                `json:"id"`
	Handedness  landmark.Handedness                   `json:"handedness"`
	Landmarks   [landmark.NumLandmarks]landmark.Point `json:"landmarks"`
	Confidence  float64                               `json:"confidence"`
	PalmHistory []PalmSample                          `json:"palmHistory"`
	LastUpdate  int64                                 `json:"lastUpdate"`
}

// Snapshot copies the hand state.
func (h *TrackedHand) Snapshot() HandSnapshot {
	return HandSnapshot{
		ID:          h.ID,
		Handedness:  h.Handedness,
		Landmarks:   h.Landmarks,
		Confidence:  h.Confidence,
		PalmHistory: h.palm.Slice(),
		LastUpdate:  h.LastUpdate,
	}
}

// Tracker maintains per-hand state keyed by hand id.
type Tracker struct {
	hands map[string]*TrackedHand
	cfg   *Config
}

// NewTracker creates a tracker reading its settings from cfg.
func NewTracker(cfg *Config) *Tracker {
	return &Tracker{
		hands: make(map[string]*TrackedHand),
		cfg:   cfg,
	}
}

// Len returns the number of tracked hands.
func (t *Tracker) Len() int { return len(t.hands) }

// Get returns the tracked hand with the given id.
func (t *Tracker) Get(id string) (*TrackedHand, bool) {
	h, ok := t.hands[id]
	return h, ok
}

// Has reports whether id is tracked.
func (t *Tracker) Has(id string) bool {
	_, ok := t.hands[id]
	return ok
}

// Hands returns the tracked hands ordered by id.
func (t *Tracker) Hands() []*TrackedHand {
	out := make([]*TrackedHand, 0, len(t.hands))
	for _, h := range t.hands {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update applies an admitted observation. A new hand id starts from the raw
// landmarks; a known id is smoothed towards them. When smoothing would yield
// a non-finite landmark the previous state is kept and an error returned.
func (t *Tracker) Update(obs landmark.Observation, handedness landmark.Handedness) (*TrackedHand, error) {
	palm := PalmSample{Point: obs.Landmarks[landmark.Palm], Timestamp: obs.Timestamp}

	h, ok := t.hands[obs.HandID]
	if !ok {
		h = &TrackedHand{
			ID:         obs.HandID,
			Handedness: handedness,
			Confidence: obs.Confidence,
			FirstSeen:  obs.Timestamp,
			LastUpdate: obs.Timestamp,
			Frames:     1,
			palm:       NewRing[PalmSample](t.cfg.MotionWindow),
		}
		copy(h.Landmarks[:], obs.Landmarks)
		h.palm.Push(palm)
		t.hands[obs.HandID] = h
		return h, nil
	}

	alpha := t.cfg.Smoothing
	if t.cfg.ConfidenceWeighted {
		alpha *= clampFloat(obs.Confidence, 0, 1)
	}

	var next [landmark.NumLandmarks]landmark.Point
	for i := range next {
		next[i] = h.Landmarks[i].Lerp(obs.Landmarks[i], alpha)
		if !next[i].IsFinite() {
			return h, errNonFiniteSmoothing
		}
	}

	h.Landmarks = next
	h.Handedness = handedness
	h.Confidence = obs.Confidence
	h.LastUpdate = obs.Timestamp
	h.Frames++
	if h.palm.Cap() != t.cfg.MotionWindow {
		h.palm.Resize(t.cfg.MotionWindow)
	}
	h.palm.Push(palm)
	return h, nil
}

// Evict removes hands not updated for more than ttl milliseconds before now
// and returns their ids.
func (t *Tracker) Evict(now, ttl int64) []string {
	var evicted []string
	for id, h := range t.hands {
		if now-h.LastUpdate > ttl {
			delete(t.hands, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// EvictStalest removes the least recently updated hand whose id is not in
// keep. It returns false when every hand is protected.
func (t *Tracker) EvictStalest(keep map[string]bool) (string, bool) {
	var victim *TrackedHand
	for id, h := range t.hands {
		if keep[id] {
			continue
		}
		if victim == nil || h.LastUpdate < victim.LastUpdate ||
			(h.LastUpdate == victim.LastUpdate && h.ID < victim.ID) {
			victim = h
		}
	}
	if victim == nil {
		return "", false
	}
	delete(t.hands, victim.ID)
	return victim.ID, true
}

// Trim evicts the stalest hands until at most n remain.
func (t *Tracker) Trim(n int) []string {
	var evicted []string
	for len(t.hands) > n {
		id, ok := t.EvictStalest(nil)
		if !ok {
			break
		}
		evicted = append(evicted, id)
	}
	return evicted
}

// ResizeHistory applies a new motion window to every palm ring.
func (t *Tracker) ResizeHistory(window int) {
	for _, h := range t.hands {
		h.palm.Resize(window)
	}
}

// Reset forgets every hand.
func (t *Tracker) Reset() {
	clear(t.hands)
}

// ScreenPosition projects the smoothed palm onto the canvas.
func (t *Tracker) ScreenPosition(h *TrackedHand) ScreenPoint {
	return project(h.Palm(), t.cfg)
}

// ScreenPoint is a position in canvas pixels.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func project(p landmark.Point, cfg *Config) ScreenPoint {
	if cfg.CoordinateSpace == Pixel {
		return ScreenPoint{X: p.X, Y: p.Y}
	}
	return ScreenPoint{X: p.X * cfg.CanvasWidth, Y: p.Y * cfg.CanvasHeight}
}

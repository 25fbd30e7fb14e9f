package gesture

import (
	"slices"

	"github.com/ayusman/holocore/internal/bus"
)

// Event is an accepted gesture, published on the bus and kept in history.
// Subscribers must treat it as read-only.
type Event struct {
	ID             string       `json:"id"`
	Hand           HandSnapshot `json:"hand"`
	Confidence     float64      `json:"confidence"`
	ScreenPosition ScreenPoint  `json:"screenPosition"`
	Timestamp      int64        `json:"timestamp"`
	Triggers       []string     `json:"triggers,omitempty"`
	Simulated      bool         `json:"simulated,omitempty"`
}

// Phase is the debounce state of one gesture id.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseArmed    Phase = "armed"
	PhaseEmitted  Phase = "emitted"
	PhaseCooldown Phase = "cooldown"
)

// Dispatcher debounces arbiter winners per gesture id, records accepted
// events and publishes them.
type Dispatcher struct {
	cfg     *Config
	bus     *bus.Bus[Event]
	history *Ring[Event]

	lastEmitted map[string]int64
	armed       map[string]bool
	lastEvent   int64
}

// NewDispatcher creates a dispatcher publishing on b.
func NewDispatcher(cfg *Config, b *bus.Bus[Event]) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		bus:         b,
		history:     NewRing[Event](HistoryCapacity),
		lastEmitted: make(map[string]int64),
		armed:       make(map[string]bool),
	}
}

// BeginFrame forgets the candidates seen on the previous frame.
func (d *Dispatcher) BeginFrame() {
	clear(d.armed)
}

// Arm records that id was a candidate on the current frame.
func (d *Dispatcher) Arm(id string) {
	d.armed[id] = true
}

// Clock returns the timestamp an event offered at ts would carry. Event
// timestamps never go backwards.
func (d *Dispatcher) Clock(ts int64) int64 {
	return max(ts, d.lastEvent)
}

// Offer submits a winner. It returns the event and true when accepted,
// or false when the id is still cooling down.
func (d *Dispatcher) Offer(ev Event) (Event, bool) {
	ev.Timestamp = d.Clock(ev.Timestamp)
	if last, ok := d.lastEmitted[ev.ID]; ok && ev.Timestamp-last < d.cfg.DebounceMs {
		return ev, false
	}

	ev.Triggers = slices.Clone(ev.Triggers)
	d.lastEmitted[ev.ID] = ev.Timestamp
	d.lastEvent = ev.Timestamp
	delete(d.armed, ev.ID)
	d.history.Push(ev)
	return ev, true
}

// Publish sends an accepted event on gesture_recognized, then on one topic
// per trigger.
func (d *Dispatcher) Publish(ev Event) {
	d.bus.Emit(TopicRecognized, ev)
	for _, trigger := range ev.Triggers {
		d.bus.Emit(TriggerTopic(trigger), ev)
	}
}

// Phase reports the debounce state of id at now.
func (d *Dispatcher) Phase(id string, now int64) Phase {
	if last, ok := d.lastEmitted[id]; ok && now-last < d.cfg.DebounceMs {
		if now == last {
			return PhaseEmitted
		}
		return PhaseCooldown
	}
	if d.armed[id] {
		return PhaseArmed
	}
	return PhaseIdle
}

// History returns up to limit of the most recent events, oldest first.
// A non-positive limit selects the default.
func (d *Dispatcher) History(limit int) []Event {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return d.history.Tail(limit)
}

// LastEvent returns the newest accepted event.
func (d *Dispatcher) LastEvent() (Event, bool) {
	return d.history.Last()
}

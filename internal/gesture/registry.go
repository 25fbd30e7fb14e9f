package gesture

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"
)

// Kind classifies gestures for arbitration and enablement.
type Kind string

const (
	KindMotion Kind = "motion"
	KindStatic Kind = "static"
	KindCustom Kind = "custom"
)

// rank orders kinds when two winners tie: motion, then static, then custom.
func (k Kind) rank() int {
	switch k {
	case KindMotion:
		return 0
	case KindStatic:
		return 1
	default:
		return 2
	}
}

// Evaluator scores how well a hand matches a gesture, in [0,1].
// Custom evaluators may fail by returning an error or panicking.
type Evaluator func(h *TrackedHand, f *Features, m *Motion) (float64, error)

// Definition describes one gesture of the catalogue.
type Definition struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description"`
	BaseConfidence float64   `json:"baseConfidence"`
	Triggers       []string  `json:"triggers"`
	Kind           Kind      `json:"kind"`
	Evaluator      Evaluator `json:"-"`
}

// Info is the catalogue view of a gesture returned by List.
type Info struct {
	Definition
	Builtin     bool `json:"builtin"`
	Quarantined bool `json:"quarantined"`
}

// Topics returns the bus topics an accepted event of this gesture is
// published on, after the gesture_recognized topic.
func (d *Definition) Topics() []string {
	topics := make([]string, 0, len(d.Triggers))
	for _, t := range d.Triggers {
		topics = append(topics, TriggerTopic(t))
	}
	return topics
}

// TopicRecognized carries every accepted gesture event.
const TopicRecognized = "gesture_recognized"

// TriggerTopic namespaces a trigger verb as a bus topic.
func TriggerTopic(trigger string) string {
	return "gesture_" + trigger
}

// ValidateID rejects empty ids and ids containing whitespace.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidGestureID)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidGestureID, id)
	}
	return nil
}

type entry struct {
	def         Definition
	builtin     bool
	quarantined bool
}

// Registry holds the gesture catalogue: built-ins plus user definitions.
type Registry struct {
	entries map[string]*entry
}

// NewRegistry creates a registry preloaded with the built-in gestures.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]*entry)}
	for _, def := range Builtins() {
		r.entries[def.ID] = &entry{def: def, builtin: true}
	}
	return r
}

// Define inserts or replaces a gesture. Replacing a built-in keeps it
// protected from removal; replacing any gesture lifts its quarantine.
func (r *Registry) Define(def Definition) error {
	if err := ValidateID(def.ID); err != nil {
		return err
	}
	if def.Evaluator == nil {
		return fmt.Errorf("%w: %s", ErrMissingEvaluator, def.ID)
	}
	if def.Kind == "" {
		def.Kind = KindCustom
	}
	def.BaseConfidence = clampFloat(def.BaseConfidence, 0, 1)
	def.Triggers = slices.Clone(def.Triggers)
	if def.DisplayName == "" {
		def.DisplayName = def.ID
	}

	builtin := false
	if old, ok := r.entries[def.ID]; ok {
		builtin = old.builtin
	}
	r.entries[def.ID] = &entry{def: def, builtin: builtin}
	return nil
}

// Remove deletes a user gesture.
func (r *Registry) Remove(id string) error {
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGesture, id)
	}
	if e.builtin {
		return fmt.Errorf("%w: %s", ErrBuiltinGesture, id)
	}
	delete(r.entries, id)
	return nil
}

// Get returns the definition of id.
func (r *Registry) Get(id string) (Definition, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Definition{}, false
	}
	return e.def, true
}

// List returns a snapshot of the catalogue ordered by id.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		def := e.def
		def.Triggers = slices.Clone(def.Triggers)
		out = append(out, Info{Definition: def, Builtin: e.builtin, Quarantined: e.quarantined})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Quarantine disables a gesture for the rest of the session. It returns
// false if the gesture was already quarantined or is unknown.
func (r *Registry) Quarantine(id string) bool {
	e, ok := r.entries[id]
	if !ok || e.quarantined {
		return false
	}
	e.quarantined = true
	return true
}

// Quarantined lists quarantined gesture ids.
func (r *Registry) Quarantined() []string {
	var ids []string
	for id, e := range r.entries {
		if e.quarantined {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// active returns the definitions to evaluate this frame, ordered by id.
func (r *Registry) active(customEnabled bool) []*entry {
	out := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.quarantined {
			continue
		}
		if e.def.Kind == KindCustom && !customEnabled {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].def.ID < out[j].def.ID })
	return out
}

// TriggerTopics returns every topic the active catalogue can publish on.
func (r *Registry) TriggerTopics() []string {
	seen := map[string]bool{TopicRecognized: true}
	topics := []string{TopicRecognized}
	for _, info := range r.List() {
		for _, t := range info.Topics() {
			if !seen[t] {
				seen[t] = true
				topics = append(topics, t)
			}
		}
	}
	sort.Strings(topics[1:])
	return topics
}

func builtin(id, name, description string, kind Kind, base float64, triggers []string, fn classifier) Definition {
	return Definition{
		ID:             id,
		DisplayName:    name,
		Description:    description,
		BaseConfidence: base,
		Triggers:       triggers,
		Kind:           kind,
		Evaluator: func(_ *TrackedHand, f *Features, m *Motion) (float64, error) {
			return fn(f, m), nil
		},
	}
}

// Builtins returns the built-in gesture catalogue.
func Builtins() []Definition {
	return []Definition{
		builtin("hand_open", "Open Hand", "All fingers spread away from the wrist", KindStatic, 0.9, []string{"release"}, handOpen),
		builtin("hand_closed", "Closed Fist", "Fingertips curled onto the palm", KindStatic, 0.9, []string{"hold"}, handClosed),
		builtin("pointing", "Pointing", "Index extended, other fingers folded", KindStatic, 0.85, []string{"select"}, pointing),
		builtin("thumbs_up", "Thumbs Up", "Thumb raised over a closed hand", KindStatic, 0.85, []string{"confirm"}, thumbsUp),
		builtin("thumbs_down", "Thumbs Down", "Thumb lowered under a closed hand", KindStatic, 0.85, []string{"reject"}, thumbsDown),
		builtin("victory", "Victory", "Index and middle raised together", KindStatic, 0.8, []string{"toggle"}, victory),
		builtin("number_one", "Number One", "One counting finger raised", KindStatic, 0.8, []string{"one"}, number(1)),
		builtin("number_two", "Number Two", "Two counting fingers raised", KindStatic, 0.8, []string{"two"}, number(2)),
		builtin("number_three", "Number Three", "Three counting fingers raised", KindStatic, 0.8, []string{"three"}, number(3)),
		builtin("pinch", "Pinch", "Thumb and index tips touching", KindStatic, 0.9, []string{"grab"}, pinch),
		builtin("pinch_out", "Pinch Out", "Thumb and index tips spread apart", KindStatic, 0.9, []string{"zoom"}, pinchOut),
		builtin("stop", "Stop", "Open hand with the palm facing the camera", KindStatic, 0.9, []string{"halt"}, stop),
		builtin("swipe_left", "Swipe Left", "Palm moved left across the window", KindMotion, 0.8, []string{"previous", "navigate"}, swipe(deltaX, -1)),
		builtin("swipe_right", "Swipe Right", "Palm moved right across the window", KindMotion, 0.8, []string{"next", "navigate"}, swipe(deltaX, 1)),
		builtin("swipe_up", "Swipe Up", "Palm moved up across the window", KindMotion, 0.8, []string{"scroll_up"}, swipe(deltaY, -1)),
		builtin("swipe_down", "Swipe Down", "Palm moved down across the window", KindMotion, 0.8, []string{"scroll_down"}, swipe(deltaY, 1)),
		builtin("rotate_cw", "Rotate Clockwise", "Palm traced a clockwise loop", KindMotion, 0.7, []string{"rotate", "rotate_right"}, rotate(1)),
		builtin("rotate_ccw", "Rotate Counter-clockwise", "Palm traced a counter-clockwise loop", KindMotion, 0.7, []string{"rotate", "rotate_left"}, rotate(-1)),
	}
}

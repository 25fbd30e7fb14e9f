package gesture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/holocore/internal/bus"
	"github.com/ayusman/holocore/internal/landmark"
	"github.com/ayusman/holocore/pkg/logger"
)

// ErrSuppressed is returned by Simulate when the gesture is cooling down.
var ErrSuppressed = errors.New("gesture suppressed by debounce")

// SimulatedHandID identifies the synthetic hand carried by simulated events.
const SimulatedHandID = "simulated"

const simulatedConfidence = 0.9

// Status is a snapshot of the recognizer for introspection.
type Status struct {
	Running     bool             `json:"running"`
	Config      Config           `json:"config"`
	Hands       []HandSnapshot   `json:"hands"`
	Gestures    int              `json:"gestures"`
	Quarantined []string         `json:"quarantined,omitempty"`
	Phases      map[string]Phase `json:"phases,omitempty"`
	LastEvent   *Event           `json:"lastEvent,omitempty"`
	Frames      int64            `json:"frames"`
}

// Recognizer turns landmark frames into debounced gesture events. All
// operations are serialised; handlers run synchronously after the state
// update of the call that produced the event, in acceptance order.
// Handlers must not call Push or Simulate.
type Recognizer struct {
	mu    sync.Mutex
	pubMu sync.Mutex

	cfg        Config
	registry   *Registry
	tracker    *Tracker
	arbiter    *Arbiter
	dispatcher *Dispatcher
	bus        *bus.Bus[Event]

	running      bool
	resetPending bool
	lastFrame    int64
	frames       int64
	clampsSeen   map[Clamp]bool

	log      logger.Logger
	metrics  Metrics
	diagnose func(Diagnostic)
	clock    func() int64
}

// RecognizerOption configures a Recognizer.
type RecognizerOption func(*Recognizer)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l logger.Logger) RecognizerOption {
	return func(r *Recognizer) { r.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) RecognizerOption {
	return func(r *Recognizer) { r.metrics = m }
}

// WithDiagnostics receives every diagnostic.
func WithDiagnostics(fn func(Diagnostic)) RecognizerOption {
	return func(r *Recognizer) { r.diagnose = fn }
}

// WithClock sets the millisecond clock used by Simulate. By default
// simulated events are stamped with the latest frame time.
func WithClock(now func() int64) RecognizerOption {
	return func(r *Recognizer) { r.clock = now }
}

// WithSettings applies config options at construction.
func WithSettings(opts ...Option) RecognizerOption {
	return func(r *Recognizer) {
		for _, opt := range opts {
			opt(&r.cfg)
		}
	}
}

// NewRecognizer creates a stopped recognizer with the built-in catalogue.
func NewRecognizer(opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		cfg:        DefaultConfig(),
		registry:   NewRegistry(),
		clampsSeen: make(map[Clamp]bool),
		log:        logger.Nop(),
		metrics:    nopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.bus = bus.New[Event](bus.WithErrorHandler(r.subscriberFailed))
	r.tracker = NewTracker(&r.cfg)
	r.arbiter = NewArbiter(r.registry, &r.cfg)
	r.dispatcher = NewDispatcher(&r.cfg, r.bus)
	r.applyConfig(r.cfg)
	return r
}

// Configure merges opts into the current configuration and returns the
// effective configuration. Out-of-range values are clamped and reported
// once.
func (r *Recognizer) Configure(opts ...Option) Config {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.clone()
	for _, opt := range opts {
		opt(&next)
	}
	r.applyConfig(next)
	return r.cfg.clone()
}

func (r *Recognizer) applyConfig(next Config) {
	cfg, clamps := next.clamped()
	for _, c := range clamps {
		if r.clampsSeen[c] {
			continue
		}
		r.clampsSeen[c] = true
		r.log.Warn("config value clamped", logger.String("field", c.Field), logger.String("change", c.String()))
		r.report(Diagnostic{Kind: DiagConfigClamped, Clamp: &c})
	}

	r.cfg = cfg
	if r.tracker != nil {
		r.tracker.ResizeHistory(cfg.MotionWindow)
		r.tracker.Trim(cfg.MaxHands)
		r.metrics.TrackedHands(r.tracker.Len())
	}
}

// Config returns the effective configuration.
func (r *Recognizer) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg.clone()
}

// Start enables ingestion. Calling Start on a running recognizer is a no-op.
func (r *Recognizer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.log.Info("recognizer started")
}

// Stop rejects further pushes until Start and clears per-hand state on the
// next accepted frame. History is kept. Stop is idempotent.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	r.resetPending = true
	r.log.Info("recognizer stopped")
}

// Running reports whether pushes are accepted.
func (r *Recognizer) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Push ingests one frame. Malformed observations are dropped and returned
// as a *FrameError while the rest of the frame is processed.
func (r *Recognizer) Push(frame landmark.Frame) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		r.report(Diagnostic{Kind: DiagLifecycle, Timestamp: frame.Time(), Err: ErrStopped})
		return ErrStopped
	}

	events, err := r.process(frame)

	r.pubMu.Lock()
	r.mu.Unlock()
	defer r.pubMu.Unlock()
	for _, ev := range events {
		r.dispatcher.Publish(ev)
	}
	return err
}

func (r *Recognizer) process(frame landmark.Frame) ([]Event, error) {
	started := time.Now()
	if r.resetPending {
		r.tracker.Reset()
		r.resetPending = false
	}

	kept, issues, excess := r.admit(frame)
	now := r.frameClock(frame, kept)
	r.lastFrame = max(r.lastFrame, now)
	r.frames++

	var frameErr error
	if len(issues) > 0 {
		fe := &FrameError{Timestamp: now, Issues: issues}
		for range issues {
			r.metrics.ObservationDropped("malformed")
		}
		r.log.Warn("dropped malformed observations",
			logger.Int64("timestamp", now),
			logger.Int("count", len(issues)),
			logger.Error(fe))
		r.report(Diagnostic{Kind: DiagMalformedFrame, Timestamp: now, Err: fe})
		frameErr = fe
	}
	for range excess {
		r.metrics.ObservationDropped("max_hands")
	}

	inFrame := make(map[string]bool, len(kept))
	for _, a := range kept {
		inFrame[a.obs.HandID] = true
	}

	r.dispatcher.BeginFrame()
	var events []Event
	for _, a := range kept {
		if !a.tracked && r.tracker.Len() >= r.cfg.MaxHands {
			if id, ok := r.tracker.EvictStalest(inFrame); ok {
				r.log.Debug("evicted hand for capacity", logger.String("hand", id))
			}
		}

		h, err := r.tracker.Update(a.obs, a.handedness)
		if err != nil {
			r.metrics.ObservationDropped("smoothing")
			r.log.Warn("rejected observation", logger.String("hand", a.obs.HandID), logger.Error(err))
			r.report(Diagnostic{Kind: DiagSmoothingRejected, Timestamp: a.obs.Timestamp, HandID: a.obs.HandID, Err: err})
			continue
		}
		if ev, ok := r.arbitrate(h); ok {
			events = append(events, ev)
		}
	}

	for _, id := range r.tracker.Evict(now, r.cfg.HandTTLMs) {
		r.log.Debug("hand expired", logger.String("hand", id))
	}
	r.metrics.TrackedHands(r.tracker.Len())
	r.metrics.FrameProcessed(len(kept), time.Since(started))
	return events, frameErr
}

// frameClock returns the time used to expire hands: the explicit frame
// timestamp, else the latest admitted observation, else the last frame.
// Dropped observations never move the clock.
func (r *Recognizer) frameClock(frame landmark.Frame, kept []admitted) int64 {
	if frame.Timestamp != 0 {
		return frame.Timestamp
	}
	var now int64
	for _, a := range kept {
		now = max(now, a.obs.Timestamp)
	}
	if now == 0 {
		return r.lastFrame
	}
	return now
}

// arbitrate evaluates h, offers the winner to the dispatcher and returns
// the accepted event.
func (r *Recognizer) arbitrate(h *TrackedHand) (Event, bool) {
	scores, failures := r.arbiter.Evaluate(h)
	for _, f := range failures {
		r.quarantine(f, h)
	}
	for _, s := range scores {
		if s.Candidate() {
			r.dispatcher.Arm(s.ID)
		}
	}

	win, ok := Pick(scores)
	if !ok {
		return Event{}, false
	}
	def, _ := r.registry.Get(win.ID)
	ev, accepted := r.dispatcher.Offer(Event{
		ID:             win.ID,
		Hand:           h.Snapshot(),
		Confidence:     win.Confidence,
		ScreenPosition: r.tracker.ScreenPosition(h),
		Timestamp:      h.LastUpdate,
		Triggers:       def.Triggers,
	})
	if !accepted {
		r.metrics.GestureSuppressed(win.ID)
		return Event{}, false
	}

	r.metrics.GestureAccepted(ev.ID)
	r.log.Debug("gesture accepted",
		logger.String("gesture", ev.ID),
		logger.String("hand", h.ID),
		logger.Float64("confidence", ev.Confidence),
		logger.Int64("timestamp", ev.Timestamp))
	return ev, true
}

func (r *Recognizer) quarantine(f failure, h *TrackedHand) {
	if !r.registry.Quarantine(f.id) {
		return
	}
	r.metrics.EvaluatorQuarantined(f.id)
	r.log.Error("gesture evaluator quarantined",
		logger.String("gesture", f.id),
		logger.String("hand", h.ID),
		logger.Error(f.err))
	r.report(Diagnostic{
		Kind:      DiagEvaluatorQuarantine,
		Timestamp: h.LastUpdate,
		GestureID: f.id,
		HandID:    h.ID,
		Err:       f.err,
	})
}

// Simulate routes a synthetic event for id at the canvas centre through the
// debouncer, bypassing arbitration.
func (r *Recognizer) Simulate(id string) (Event, error) {
	r.mu.Lock()

	def, ok := r.registry.Get(id)
	if !ok {
		r.mu.Unlock()
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownGesture, id)
	}

	ts := r.lastFrame
	if r.clock != nil {
		ts = r.clock()
	}
	ts = r.dispatcher.Clock(ts)
	hand := r.simulatedHand()
	hand.LastUpdate = ts
	ev, accepted := r.dispatcher.Offer(Event{
		ID:             id,
		Hand:           hand,
		Confidence:     simulatedConfidence,
		ScreenPosition: ScreenPoint{X: r.cfg.CanvasWidth / 2, Y: r.cfg.CanvasHeight / 2},
		Timestamp:      ts,
		Triggers:       def.Triggers,
		Simulated:      true,
	})
	if !accepted {
		r.mu.Unlock()
		r.metrics.GestureSuppressed(id)
		return ev, ErrSuppressed
	}
	r.metrics.GestureAccepted(id)

	r.pubMu.Lock()
	r.mu.Unlock()
	defer r.pubMu.Unlock()
	r.dispatcher.Publish(ev)
	return ev, nil
}

func (r *Recognizer) simulatedHand() HandSnapshot {
	points := landmark.Neutral(0.5, 0.5)
	if r.cfg.CoordinateSpace == Pixel {
		for i := range points {
			points[i].X *= r.cfg.CanvasWidth
			points[i].Y *= r.cfg.CanvasHeight
		}
	}
	snap := HandSnapshot{
		ID:         SimulatedHandID,
		Handedness: landmark.Right,
		Confidence: simulatedConfidence,
	}
	copy(snap.Landmarks[:], points)
	return snap
}

// On subscribes fn to topic.
func (r *Recognizer) On(topic string, fn bus.Handler[Event]) bus.Subscription {
	return r.bus.On(topic, fn)
}

// Off removes a subscription.
func (r *Recognizer) Off(sub bus.Subscription) bool {
	return r.bus.Off(sub)
}

// Topics lists the topics the current catalogue can publish on.
func (r *Recognizer) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.TriggerTopics()
}

// RegisterGesture defines or replaces a gesture.
func (r *Recognizer) RegisterGesture(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.registry.Define(def); err != nil {
		return err
	}
	r.log.Info("gesture registered", logger.String("gesture", def.ID), logger.String("kind", string(def.Kind)))
	return nil
}

// RemoveGesture removes a user-defined gesture.
func (r *Recognizer) RemoveGesture(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.registry.Remove(id); err != nil {
		return err
	}
	r.log.Info("gesture removed", logger.String("gesture", id))
	return nil
}

// ListGestures returns the catalogue ordered by id.
func (r *Recognizer) ListGestures() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.List()
}

// History returns up to limit recent events, oldest first. A non-positive
// limit returns the default of 10.
func (r *Recognizer) History(limit int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dispatcher.History(limit)
}

// Status returns a snapshot of the recognizer state.
func (r *Recognizer) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Running:     r.running,
		Config:      r.cfg.clone(),
		Gestures:    len(r.registry.entries),
		Quarantined: r.registry.Quarantined(),
		Frames:      r.frames,
	}
	if !r.resetPending {
		for _, h := range r.tracker.Hands() {
			st.Hands = append(st.Hands, h.Snapshot())
		}
	}

	now := r.dispatcher.Clock(r.lastFrame)
	for _, info := range r.registry.List() {
		if p := r.dispatcher.Phase(info.ID, now); p != PhaseIdle {
			if st.Phases == nil {
				st.Phases = make(map[string]Phase)
			}
			st.Phases[info.ID] = p
		}
	}
	if ev, ok := r.dispatcher.LastEvent(); ok {
		st.LastEvent = &ev
	}
	return st
}

func (r *Recognizer) subscriberFailed(err *bus.HandlerError) {
	r.metrics.SubscriberFailed(err.Topic)
	r.log.Error("subscriber failed", logger.String("topic", err.Topic), logger.Bool("panic", err.Panic), logger.Error(err.Err))
	r.report(Diagnostic{Kind: DiagSubscriberError, Topic: err.Topic, Err: err})
}

func (r *Recognizer) report(d Diagnostic) {
	if r.diagnose != nil {
		r.diagnose(d)
	}
}

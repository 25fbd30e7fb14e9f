package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/pkg/logger"
)

// ErrQueueFull is returned by Handle when the runner cannot keep up.
var ErrQueueFull = errors.New("action queue full")

// DefaultQueueSize is the number of events buffered for execution.
const DefaultQueueSize = 32

// Bindings looks up the actions bound to a gesture.
// *store.ActionRepository satisfies it.
type Bindings interface {
	Enabled(gestureID string) ([]*store.Action, error)
}

// Metrics records action executions.
type Metrics interface {
	ActionExecuted(plugin, action string, ok bool, elapsed time.Duration)
	ActionDropped()
}

type nopMetrics struct{}

func (nopMetrics) ActionExecuted(string, string, bool, time.Duration) {}
func (nopMetrics) ActionDropped()                                     {}

// Result describes one finished action run.
type Result struct {
	Action  *store.Action
	Event   gesture.Event
	Elapsed time.Duration
	Err     error
}

// Runner executes the plugin actions bound to recognized gestures. Handle
// only queues the event, so it is safe to subscribe it to the recognizer;
// a single worker started by Run executes actions in event order.
type Runner struct {
	plugins  *Manager
	executor *Executor
	bindings Bindings
	queue    chan gesture.Event
	log      logger.Logger
	metrics  Metrics
	onResult func(Result)

	wg sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithQueueSize sets how many events may wait for execution.
func WithQueueSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.queue = make(chan gesture.Event, n)
		}
	}
}

// WithRunnerMetrics sets the metrics sink.
func WithRunnerMetrics(m Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithResults receives the outcome of every action run.
func WithResults(fn func(Result)) RunnerOption {
	return func(r *Runner) { r.onResult = fn }
}

// NewRunner creates a Runner.
func NewRunner(plugins *Manager, executor *Executor, bindings Bindings, opts ...RunnerOption) *Runner {
	r := &Runner{
		plugins:  plugins,
		executor: executor,
		bindings: bindings,
		queue:    make(chan gesture.Event, DefaultQueueSize),
		log:      logger.Named("actions"),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle queues ev. It never blocks.
func (r *Runner) Handle(ev gesture.Event) error {
	select {
	case r.queue <- ev:
		return nil
	default:
		r.metrics.ActionDropped()
		return fmt.Errorf("%w: dropped %s", ErrQueueFull, ev.ID)
	}
}

// Start runs the runner in a new goroutine. Wait returns once it has
// stopped, even when called before the goroutine is scheduled.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()
}

// Run executes queued events until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	r.wg.Add(1)
	defer r.wg.Done()
	r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.queue:
			r.dispatch(ctx, ev)
		}
	}
}

// Wait blocks until Run and every started runner have returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) dispatch(ctx context.Context, ev gesture.Event) {
	actions, err := r.bindings.Enabled(ev.ID)
	if err != nil {
		r.log.Error("load action bindings", logger.String("gesture", ev.ID), logger.Error(err))
		return
	}
	if len(actions) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("encode event", logger.String("gesture", ev.ID), logger.Error(err))
		return
	}
	for _, a := range actions {
		started := time.Now()
		err := r.execute(ctx, a, ev.ID, payload)
		elapsed := time.Since(started)

		r.metrics.ActionExecuted(a.PluginName, a.ActionName, err == nil, elapsed)
		if err != nil {
			r.log.Warn("action failed",
				logger.String("gesture", ev.ID),
				logger.String("plugin", a.PluginName),
				logger.String("action", a.ActionName),
				logger.Error(err))
		} else {
			r.log.Debug("action executed",
				logger.String("gesture", ev.ID),
				logger.String("plugin", a.PluginName),
				logger.String("action", a.ActionName),
				logger.Any("elapsed", elapsed))
		}
		if r.onResult != nil {
			r.onResult(Result{Action: a, Event: ev, Elapsed: elapsed, Err: err})
		}
	}
}

func (r *Runner) execute(ctx context.Context, a *store.Action, gestureID string, event json.RawMessage) error {
	p, err := r.plugins.Get(a.PluginName)
	if err != nil {
		return err
	}
	if !p.Supports(a.ActionName) {
		return fmt.Errorf("plugin %s has no action %q", a.PluginName, a.ActionName)
	}

	resp, err := r.executor.Execute(ctx, p, &Request{
		Action:  a.ActionName,
		Gesture: gestureID,
		Config:  a.Config,
		Event:   event,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", a.PluginName, resp.Error)
	}
	return nil
}

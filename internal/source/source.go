// Package source feeds landmark frames from a provider into a recognizer.
package source

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
	"github.com/ayusman/holocore/pkg/logger"
)

// Provider produces landmark frames.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Next blocks until the next frame is ready. Finite providers return
	// io.EOF when exhausted. Other errors are transient.
	Next(ctx context.Context) (landmark.Frame, error)
	// Close releases the provider's resources.
	Close() error
}

// Sink consumes frames. *gesture.Recognizer satisfies it.
type Sink interface {
	Push(frame landmark.Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(landmark.Frame) error

// Push calls f.
func (f SinkFunc) Push(frame landmark.Frame) error { return f(frame) }

// Stats counts what a pump has moved.
type Stats struct {
	Frames    int64 `json:"frames"`
	Rejected  int64 `json:"rejected"`
	Malformed int64 `json:"malformed"`
	Errors    int64 `json:"errors"`
}

// Pump moves frames from a provider into a sink until the context ends or
// the provider is exhausted.
type Pump struct {
	provider Provider
	sink     Sink
	log      logger.Logger
	backoff  time.Duration
	maxErrs  int

	frames    atomic.Int64
	rejected  atomic.Int64
	malformed atomic.Int64
	errs      atomic.Int64
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithPumpLogger sets the logger.
func WithPumpLogger(l logger.Logger) PumpOption {
	return func(p *Pump) { p.log = l }
}

// WithErrorBackoff sets the pause after a transient provider error.
func WithErrorBackoff(d time.Duration) PumpOption {
	return func(p *Pump) { p.backoff = d }
}

// WithMaxConsecutiveErrors stops the pump after n provider errors in a
// row. Zero means never.
func WithMaxConsecutiveErrors(n int) PumpOption {
	return func(p *Pump) { p.maxErrs = n }
}

// NewPump connects provider to sink.
func NewPump(provider Provider, sink Sink, opts ...PumpOption) *Pump {
	p := &Pump{
		provider: provider,
		sink:     sink,
		log:      logger.Nop(),
		backoff:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ErrTooManyErrors is returned by Run when the provider keeps failing.
var ErrTooManyErrors = errors.New("provider failed repeatedly")

// Run pumps frames. It returns nil when the context is cancelled or the
// provider is exhausted. The provider is not closed.
func (p *Pump) Run(ctx context.Context) error {
	log := p.log.With(logger.String("provider", p.provider.Name()))
	log.Info("pump started")
	defer log.Info("pump stopped")

	consecutive := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.provider.Next(ctx)
		switch {
		case err == nil:
			consecutive = 0
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			p.errs.Add(1)
			consecutive++
			log.Warn("provider error", logger.Error(err), logger.Int("consecutive", consecutive))
			if p.maxErrs > 0 && consecutive >= p.maxErrs {
				return ErrTooManyErrors
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
			continue
		}

		p.frames.Add(1)
		if err := p.sink.Push(frame); err != nil {
			var fe *gesture.FrameError
			switch {
			case errors.As(err, &fe):
				// the recognizer already reported the dropped observations
				p.malformed.Add(int64(len(fe.Issues)))
			case errors.Is(err, gesture.ErrStopped):
				p.rejected.Add(1)
			default:
				p.errs.Add(1)
				log.Warn("sink rejected frame", logger.Error(err))
			}
		}
	}
}

// Stats returns the counters so far.
func (p *Pump) Stats() Stats {
	return Stats{
		Frames:    p.frames.Load(),
		Rejected:  p.rejected.Load(),
		Malformed: p.malformed.Load(),
		Errors:    p.errs.Load(),
	}
}

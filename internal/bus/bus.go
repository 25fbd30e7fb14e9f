// Package bus provides topic-keyed publish/subscribe with isolated handlers.
package bus

import (
	"fmt"
	"sort"
	"sync"
)

// Handler receives one payload. A returned error or a panic is reported to
// the bus error handler and does not stop delivery to other handlers.
type Handler[T any] func(payload T) error

// Subscription identifies one registered handler. It is the key passed to
// Off, since function values cannot be compared.
type Subscription struct {
	Topic string
	id    uint64
}

// HandlerError describes a handler that failed during Emit.
type HandlerError struct {
	Topic string
	Sub   Subscription
	Err   error
	Panic bool
}

func (e *HandlerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("handler for %q panicked: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("handler for %q failed: %v", e.Topic, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

type options struct {
	onError func(*HandlerError)
}

// Option configures a Bus.
type Option func(*options)

// WithErrorHandler receives every handler failure exactly once.
func WithErrorHandler(fn func(*HandlerError)) Option {
	return func(o *options) { o.onError = fn }
}

type subscriber[T any] struct {
	id uint64
	fn Handler[T]
}

// Bus dispatches payloads of type T to handlers by topic. Handlers run
// synchronously on the emitting goroutine in subscription order.
type Bus[T any] struct {
	mu      sync.RWMutex
	topics  map[string][]subscriber[T]
	nextID  uint64
	onError func(*HandlerError)
}

// New creates an empty bus.
func New[T any](opts ...Option) *Bus[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus[T]{
		topics:  make(map[string][]subscriber[T]),
		onError: o.onError,
	}
}

// On appends fn to the handlers of topic.
func (b *Bus[T]) On(topic string, fn Handler[T]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.topics[topic] = append(b.topics[topic], subscriber[T]{id: b.nextID, fn: fn})
	return Subscription{Topic: topic, id: b.nextID}
}

// Off removes a handler. It reports whether the subscription was active.
func (b *Bus[T]) Off(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[sub.Topic]
	for i, s := range subs {
		if s.id != sub.id {
			continue
		}
		next := make([]subscriber[T], 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, sub.Topic)
		} else {
			b.topics[sub.Topic] = next
		}
		return true
	}
	return false
}

// Emit delivers payload to every handler of topic and returns the number of
// handlers that completed without error. Handlers added or removed during
// Emit take effect from the next call.
func (b *Bus[T]) Emit(topic string, payload T) int {
	b.mu.RLock()
	subs := b.topics[topic]
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if err := b.call(topic, s, payload); err != nil {
			if b.onError != nil {
				b.onError(err)
			}
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Bus[T]) call(topic string, s subscriber[T], payload T) (herr *HandlerError) {
	sub := Subscription{Topic: topic, id: s.id}
	defer func() {
		if r := recover(); r != nil {
			herr = &HandlerError{Topic: topic, Sub: sub, Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()
	if err := s.fn(payload); err != nil {
		return &HandlerError{Topic: topic, Sub: sub, Err: err}
	}
	return nil
}

// Count returns the number of handlers on topic.
func (b *Bus[T]) Count(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Topics lists topics with at least one handler.
func (b *Bus[T]) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.topics))
	for t := range b.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

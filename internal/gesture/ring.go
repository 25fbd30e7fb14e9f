package gesture

// Ring is a fixed-capacity FIFO that overwrites its oldest element when full.
type Ring[T any] struct {
	buf   []T
	start int
	size  int
}

// NewRing creates a ring holding at most capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, dropping the oldest element when at capacity.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// At returns the i-th element, oldest first.
func (r *Ring[T]) At(i int) T {
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last returns the newest element.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.At(r.size - 1), true
}

// Slice copies the contents, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Tail copies the newest n elements, oldest first.
func (r *Ring[T]) Tail(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, n)
	for i := range out {
		out[i] = r.At(r.size - n + i)
	}
	return out
}

// Resize changes the capacity, keeping the newest elements.
func (r *Ring[T]) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(r.buf) {
		return
	}
	kept := r.Tail(capacity)
	r.buf = make([]T, capacity)
	copy(r.buf, kept)
	r.start = 0
	r.size = len(kept)
}

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.start = 0
	r.size = 0
}

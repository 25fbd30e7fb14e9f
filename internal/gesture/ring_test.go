package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing(t *testing.T) {
	r := NewRing[int](3)
	_, ok := r.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Slice())
	assert.Equal(t, []int{4, 5}, r.Tail(2))
	assert.Equal(t, []int{3, 4, 5}, r.Tail(10))
	assert.Empty(t, r.Tail(-1))

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 5, last)

	r.Resize(5)
	r.Push(6)
	assert.Equal(t, []int{3, 4, 5, 6}, r.Slice())

	r.Resize(2)
	assert.Equal(t, []int{5, 6}, r.Slice())
	assert.Equal(t, 2, r.Cap())

	r.Reset()
	assert.Zero(t, r.Len())
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := NewRing[string](0)
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"b"}, r.Slice())
}

package source

import (
	"context"
	"io"
	"sync"

	"github.com/ayusman/holocore/internal/landmark"
)

// StaticProvider returns a fixed list of frames and then io.EOF.
type StaticProvider struct {
	mu     sync.Mutex
	frames []landmark.Frame
	next   int
}

// NewStaticProvider returns a provider for frames.
func NewStaticProvider(frames ...landmark.Frame) *StaticProvider {
	return &StaticProvider{frames: frames}
}

func (s *StaticProvider) Name() string { return "static" }

func (s *StaticProvider) Next(ctx context.Context) (landmark.Frame, error) {
	if err := ctx.Err(); err != nil {
		return landmark.Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.frames) {
		return landmark.Frame{}, io.EOF
	}
	f := s.frames[s.next]
	s.next++
	return f, nil
}

func (s *StaticProvider) Close() error { return nil }

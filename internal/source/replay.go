package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ayusman/holocore/internal/landmark"
)

// maxLineBytes bounds a single recorded frame.
const maxLineBytes = 1 << 20

// ReplayProvider reads frames recorded as JSON lines. Blank lines are
// skipped; a line that does not decode is returned as a transient error
// and reading continues with the next line.
type ReplayProvider struct {
	name    string
	closer  io.Closer
	scanner *bufio.Scanner
	line    int

	realtime bool
	speed    float64
	last     int64
	sleep    func(context.Context, time.Duration) error
	mu       sync.Mutex
}

// ReplayOption configures a ReplayProvider.
type ReplayOption func(*ReplayProvider)

// Realtime paces frames by their recorded timestamps divided by speed.
func Realtime(speed float64) ReplayOption {
	return func(r *ReplayProvider) {
		if speed <= 0 {
			speed = 1
		}
		r.realtime = true
		r.speed = speed
	}
}

// NewReplayProvider reads frames from r.
func NewReplayProvider(name string, r io.Reader, opts ...ReplayOption) *ReplayProvider {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	p := &ReplayProvider{name: name, scanner: scanner, speed: 1, sleep: sleepCtx}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OpenReplay opens a recording file.
func OpenReplay(path string, opts ...ReplayOption) (*ReplayProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return NewReplayProvider(path, f, opts...), nil
}

func (r *ReplayProvider) Name() string { return "replay:" + r.name }

func (r *ReplayProvider) Next(ctx context.Context) (landmark.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var frame landmark.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return landmark.Frame{}, fmt.Errorf("%s line %d: %w", r.name, r.line, err)
		}

		if r.realtime {
			ts := frame.Time()
			if r.last != 0 && ts > r.last {
				wait := time.Duration(float64(ts-r.last)/r.speed) * time.Millisecond
				if err := r.sleep(ctx, wait); err != nil {
					return landmark.Frame{}, err
				}
			}
			r.last = max(r.last, ts)
		}
		return frame, nil
	}
	if err := r.scanner.Err(); err != nil {
		return landmark.Frame{}, fmt.Errorf("%s line %d: %w", r.name, r.line+1, err)
	}
	return landmark.Frame{}, io.EOF
}

func (r *ReplayProvider) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Recorder is a Sink that writes every frame as a JSON line before
// passing it on.
type Recorder struct {
	mu   sync.Mutex
	enc  *json.Encoder
	next Sink
}

// NewRecorder records frames to w and forwards them to next, which may be nil.
func NewRecorder(w io.Writer, next Sink) *Recorder {
	return &Recorder{enc: json.NewEncoder(w), next: next}
}

// Push records frame and forwards it. A write failure does not stop the
// frame from reaching the next sink; the first error is returned.
func (r *Recorder) Push(frame landmark.Frame) error {
	r.mu.Lock()
	werr := r.enc.Encode(frame)
	r.mu.Unlock()

	if r.next == nil {
		return werr
	}
	if err := r.next.Push(frame); err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("record frame: %w", werr)
	}
	return nil
}

package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/store"
)

type fakeBindings map[string][]*store.Action

func (f fakeBindings) Enabled(id string) ([]*store.Action, error) {
	if id == "broken" {
		return nil, errors.New("database locked")
	}
	return f[id], nil
}

type countingMetrics struct {
	mu       sync.Mutex
	executed []bool
	dropped  int
}

func (m *countingMetrics) ActionExecuted(_, _ string, ok bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, ok)
}

func (m *countingMetrics) ActionDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func TestRunner_ExecutesBoundActions(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "requests.jsonl")
	writePlugin(t, root, "logger", `cat >> `+out+`
echo >> `+out+`
echo '{"success":true}'
`, "append")
	writePlugin(t, root, "refuser", `echo '{"success":false,"error":"nope"}'
`, "refuse")

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	bindings := fakeBindings{
		"swipe_left": {
			{ID: "1", GestureID: "swipe_left", PluginName: "logger", ActionName: "append", Config: json.RawMessage(`{"n":1}`)},
			{ID: "2", GestureID: "swipe_left", PluginName: "refuser", ActionName: "refuse"},
			{ID: "3", GestureID: "swipe_left", PluginName: "missing", ActionName: "append"},
			{ID: "4", GestureID: "swipe_left", PluginName: "logger", ActionName: "undeclared"},
		},
	}

	var mu sync.Mutex
	var results []Result
	done := make(chan struct{})
	metrics := &countingMetrics{}
	runner := NewRunner(manager, NewExecutor(5*time.Second), bindings,
		WithRunnerMetrics(metrics),
		WithResults(func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
			if len(results) == 4 {
				close(done)
			}
		}))

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)

	if err := runner.Handle(gesture.Event{ID: "pinch"}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if err := runner.Handle(gesture.Event{ID: "swipe_left", Confidence: 0.8, Timestamp: 42}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for actions")
	}
	cancel()
	runner.Wait()

	if results[0].Err != nil {
		t.Errorf("logger action failed: %v", results[0].Err)
	}
	if results[1].Err == nil || !strings.Contains(results[1].Err.Error(), "nope") {
		t.Errorf("refuser should report the plugin error, got %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrPluginNotFound) {
		t.Errorf("missing plugin error = %v", results[2].Err)
	}
	if results[3].Err == nil {
		t.Error("undeclared action should fail")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("plugin did not write its request: %v", err)
	}
	var req Request
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &req); err != nil {
		t.Fatalf("invalid request written: %v", err)
	}
	if req.Gesture != "swipe_left" || req.Action != "append" || string(req.Config) != `{"n":1}` {
		t.Errorf("request = %+v", req)
	}
	var ev gesture.Event
	if err := json.Unmarshal(req.Event, &ev); err != nil || ev.Timestamp != 42 {
		t.Errorf("event = %s, err %v", req.Event, err)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.executed) != 4 || !metrics.executed[0] || metrics.executed[1] {
		t.Errorf("metrics = %v", metrics.executed)
	}
}

func TestRunner_QueueFull(t *testing.T) {
	metrics := &countingMetrics{}
	runner := NewRunner(NewManager(t.TempDir()), NewExecutor(time.Second), fakeBindings{},
		WithQueueSize(1), WithRunnerMetrics(metrics))

	if err := runner.Handle(gesture.Event{ID: "a"}); err != nil {
		t.Fatalf("first Handle() error = %v", err)
	}
	if err := runner.Handle(gesture.Event{ID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("second Handle() error = %v, want ErrQueueFull", err)
	}
	if metrics.dropped != 1 {
		t.Errorf("dropped = %d, want 1", metrics.dropped)
	}
}

func TestRunner_BindingErrorIsSkipped(t *testing.T) {
	called := false
	runner := NewRunner(NewManager(t.TempDir()), NewExecutor(time.Second), fakeBindings{},
		WithResults(func(Result) { called = true }))

	runner.dispatch(context.Background(), gesture.Event{ID: "broken"})
	if called {
		t.Error("no action should run when bindings cannot be loaded")
	}
}

type blockingBindings struct {
	entered chan struct{}
	release chan struct{}
}

func (b blockingBindings) Enabled(string) ([]*store.Action, error) {
	close(b.entered)
	<-b.release
	return nil, nil
}

func TestRunner_WaitCoversStartedRunner(t *testing.T) {
	bindings := blockingBindings{entered: make(chan struct{}), release: make(chan struct{})}
	runner := NewRunner(NewManager(t.TempDir()), NewExecutor(time.Second), bindings)
	if err := runner.Handle(gesture.Event{ID: "pinch"}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner.Start(ctx)

	waited := make(chan struct{})
	go func() {
		runner.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while the runner was still going")
	case <-bindings.entered:
	}
	select {
	case <-waited:
		t.Fatal("Wait returned during a dispatch")
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	close(bindings.release)
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the runner stopped")
	}
}

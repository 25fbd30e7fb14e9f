package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/holocore/internal/config"
	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
	"github.com/ayusman/holocore/internal/plugin"
	"github.com/ayusman/holocore/internal/source"
	"github.com/ayusman/holocore/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.DataDir = t.TempDir()
	cfg.Plugins.Timeout = 2 * time.Second
	cfg.Addr = ""
	cfg.Tray = false
	return cfg
}

func handFrame(ts int64, points []landmark.Point) landmark.Frame {
	return landmark.Frame{
		Timestamp: ts,
		Observations: []landmark.Observation{{
			HandID:     "h1",
			Handedness: "right",
			Landmarks:  points,
			Confidence: 0.9,
			Timestamp:  ts,
		}},
	}
}

func staticSource(frames ...landmark.Frame) ProviderFactory {
	return func() (source.Provider, error) {
		return source.NewStaticProvider(frames...), nil
	}
}

// writeScriptPlugin installs a shell plugin that appends every request
// it receives to out.
func writeScriptPlugin(t *testing.T, root, name, out string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins are not supported on Windows")
	}
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := fmt.Sprintf(`{"name":%q,"version":"1.0.0","executable":"run.sh","actions":["append"]}`, name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0o644))
	script := "#!/bin/sh\ncat >> " + out + "\necho >> " + out + "\necho '{\"success\":true}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755))
}

func runApp(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		a.Close()
	})
}

func TestApp_RecognizesFramesAndRunsActions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "requests.jsonl")
	writeScriptPlugin(t, cfg.PluginDir(), "recorder", out)

	var mu sync.Mutex
	var results []plugin.Result
	a, err := New(cfg,
		WithProvider(staticSource(
			handFrame(0, landmark.Pinch(0.5, 0.6)),
			handFrame(500, landmark.Pinch(0.5, 0.6)),
			handFrame(1100, landmark.Pinch(0.5, 0.6)),
		)),
		WithResults(func(r plugin.Result) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		}),
	)
	require.NoError(t, err)

	require.NoError(t, a.Store().Actions().Create(&store.Action{
		ID:         "a1",
		GestureID:  "pinch",
		PluginName: "recorder",
		ActionName: "append",
		Config:     json.RawMessage(`{"note":"hi"}`),
		Enabled:    true,
	}))
	runApp(t, a)

	var recognized []string
	a.Recognizer().On(gesture.TopicRecognized, func(ev gesture.Event) error {
		recognized = append(recognized, ev.ID)
		return nil
	})

	require.NoError(t, a.Start())
	a.Wait()
	assert.False(t, a.Running(), "the app stops when the source is exhausted")
	assert.False(t, a.Recognizer().Running())
	assert.Equal(t, []string{"pinch", "pinch"}, recognized)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 2
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, "a1", r.Action.ID)
	}
	mu.Unlock()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var req plugin.Request
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &req))
	assert.Equal(t, "append", req.Action)
	assert.Equal(t, "pinch", req.Gesture)
	assert.JSONEq(t, `{"note":"hi"}`, string(req.Config))
}

func TestApp_RestoresSettingsAndGestures(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	st, err := store.New(cfg.Database())
	require.NoError(t, err)
	saved := gesture.DefaultConfig()
	saved.DebounceMs = 250
	require.NoError(t, st.Settings().Set(store.SettingRecognizer, saved))
	require.NoError(t, st.Gestures().Create(&store.Gesture{
		ID: "rock_on", Name: "Rock On", Kind: gesture.TemplateStatic, Tolerance: gesture.DefaultStaticTolerance,
	}))
	require.NoError(t, st.Gestures().SaveLandmarks("rock_on", landmark.Normalize(landmark.Victory(0.5, 0.5))))
	require.NoError(t, st.Gestures().Create(&store.Gesture{ID: "untrained", Name: "Untrained", Kind: gesture.TemplateStatic}))
	require.NoError(t, st.Close())

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.EqualValues(t, 250, a.Recognizer().Config().DebounceMs)

	ids := map[string]bool{}
	for _, info := range a.Recognizer().ListGestures() {
		ids[info.ID] = true
	}
	assert.True(t, ids["rock_on"], "trained gestures are registered")
	assert.False(t, ids["untrained"], "untrained gestures are skipped")
	assert.Len(t, ids, len(gesture.Builtins())+1)
}

func TestApp_StartStop(t *testing.T) {
	cfg := testConfig(t)

	t.Run("source failure", func(t *testing.T) {
		a, err := New(cfg, WithProvider(func() (source.Provider, error) {
			return nil, errors.New("no camera")
		}))
		require.NoError(t, err)
		defer a.Close()

		assert.ErrorContains(t, a.Start(), "no camera")
		assert.False(t, a.Running())
		assert.False(t, a.Recognizer().Running())
	})

	t.Run("stop while streaming", func(t *testing.T) {
		a, err := New(cfg, WithProvider(liveSource()))
		require.NoError(t, err)
		defer a.Close()

		require.NoError(t, a.Start())
		require.NoError(t, a.Start(), "starting twice is a no-op")
		assert.True(t, a.Running())
		assert.True(t, a.Recognizer().Running())

		a.Stop()
		assert.False(t, a.Running())
		assert.False(t, a.Recognizer().Running())
		a.Stop()
	})
}

// liveProvider emits empty frames until the pump is cancelled.
type liveProvider struct {
	ts     int64
	closed bool
}

func (p *liveProvider) Name() string { return "live" }

func (p *liveProvider) Next(ctx context.Context) (landmark.Frame, error) {
	select {
	case <-ctx.Done():
		return landmark.Frame{}, ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	p.ts += 10
	return landmark.Frame{Timestamp: p.ts}, nil
}

func (p *liveProvider) Close() error {
	p.closed = true
	return nil
}

func liveSource() ProviderFactory {
	return func() (source.Provider, error) { return &liveProvider{}, nil }
}

func TestApp_Recorder(t *testing.T) {
	cfg := testConfig(t)
	var buf bytes.Buffer
	a, err := New(cfg,
		WithProvider(staticSource(handFrame(0, landmark.Fist(0.5, 0.5)), handFrame(40, landmark.Fist(0.5, 0.5)))),
		WithRecorder(&buf),
	)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Start())
	a.Wait()

	replay := source.NewReplayProvider("recorded", &buf)
	var frames []landmark.Frame
	for {
		f, err := replay.Next(context.Background())
		if err != nil {
			break
		}
		frames = append(frames, f)
	}
	require.Len(t, frames, 2)
	assert.EqualValues(t, 40, frames[1].Timestamp)
}

func TestApp_ControlThroughAPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.Addr = "127.0.0.1:0"
	a, err := New(cfg, WithProvider(liveSource()))
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Server())

	ts := httptest.NewServer(a.Server())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/recognizer/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, a.Running())

	resp, err = http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var st struct {
		Running bool `json:"running"`
		Source  bool `json:"source"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.True(t, st.Running)
	assert.True(t, st.Source)

	resp, err = http.Post(ts.URL+"/api/recognizer/stop", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, a.Running())
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOLOCORE_DATA_DIR", t.TempDir())
	t.Setenv("HOLOCORE_TRAY", "false")
	t.Setenv("HOLOCORE_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRecording(t *testing.T, frames ...landmark.Frame) string {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range frames {
		require.NoError(t, enc.Encode(f))
	}
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func pose(ts int64, points []landmark.Point) landmark.Frame {
	return landmark.Frame{
		Timestamp: ts,
		Observations: []landmark.Observation{{
			HandID: "h1", Handedness: "right", Landmarks: points, Confidence: 0.95, Timestamp: ts,
		}},
	}
}

func TestReplayCommand(t *testing.T) {
	path := writeRecording(t,
		pose(0, landmark.Pinch(0.4, 0.5)),
		pose(100, landmark.Pinch(0.4, 0.5)),
		pose(1500, landmark.Pinch(0.4, 0.5)),
	)

	out, err := execute(t, "replay", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var ev gesture.Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, "pinch", ev.ID)
		assert.Equal(t, "h1", ev.Hand.ID)
		assert.False(t, ev.Simulated)
	}
}

func TestReplayCommand_Errors(t *testing.T) {
	_, err := execute(t, "replay")
	assert.Error(t, err)

	_, err = execute(t, "replay", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorContains(t, err, "open recording")
}

func TestGesturesCommand(t *testing.T) {
	out, err := execute(t, "gestures")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(gesture.Builtins())+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out, "swipe_left")
	assert.Contains(t, out, "previous,navigate")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "gestures", "--log-level", "loud")
	assert.Error(t, err)
}

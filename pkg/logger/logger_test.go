package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetBeforeInitIsNop(t *testing.T) {
	l := Get()
	require.NotNil(t, l)
	l.Info("discarded", String("k", "v"))
}

func TestInit(t *testing.T) {
	require.NoError(t, Init(Options{Level: "debug"}))
	defer func() { _ = Sync() }()

	l := Named("test")
	require.NotNil(t, l)
	l.Debug("hello", Int("n", 1))

	assert.Error(t, Init(Options{Level: "loud"}))
}

func TestFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core)).Named("recognizer").With(String("session", "s1"))

	l.Warn("custom evaluator quarantined",
		String("gesture", "wave"),
		Float64("confidence", 0.5),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "recognizer", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "s1", fields["session"])
	assert.Equal(t, "wave", fields["gesture"])
	assert.Equal(t, 0.5, fields["confidence"])
	assert.Equal(t, "boom", fields["error"])
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		assert.NoError(t, SetLevelString(lvl), lvl)
	}
	assert.Error(t, SetLevelString("verbose"))
}

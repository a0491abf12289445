package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)

	lg, err := New(Options{Dev: true, Level: "warn"})
	require.NoError(t, err)
	assert.NotNil(t, lg)
}

func TestWith_AddsFieldsToEveryRecord(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	lg := &Logger{s: zap.New(core).Sugar()}

	child := lg.With("component", "mirror")
	child.Debug("dropped")
	child.Warn("permission lost", "dir", "/data")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "permission lost", entry.Message)
	assert.Equal(t, map[string]any{"component": "mirror", "dir": "/data"}, entry.ContextMap())
}

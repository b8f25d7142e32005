package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRequestIDAddsField(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(Config{Level: "debug"}, &buf)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithRequestID(ctx, log).Info("hello")
	require.NoError(t, log.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Contains(t, entry, "timestamp")
}

func TestLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(Config{Level: "nonsense"}, &buf)

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")
	log := newLogger(Config{Level: "info", File: path, MaxSizeMB: 1}, &buf)

	log.Info("to both")
	require.NoError(t, log.Sync())
	assert.FileExists(t, path)
}

func TestRequestIDMissing(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "room_id", "room-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "room-1", entry["room_id"])

	_, err = New(&buf, "verbose")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}

func TestComponent(t *testing.T) {
	t.Parallel()

	var fallback, scoped bytes.Buffer
	fallbackLogger := slog.New(slog.NewJSONHandler(&fallback, nil))

	Component(context.Background(), fallbackLogger, "handler", "RoomHandler", "", "room_id", "7").
		Info("plain")
	assert.Contains(t, fallback.String(), `"handler":"RoomHandler"`)
	assert.Contains(t, fallback.String(), `"room_id":"7"`)
	assert.NotContains(t, fallback.String(), `"operation"`)

	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewJSONHandler(&scoped, nil)))
	Component(ctx, fallbackLogger, "service", "RoomService", "CreateRoom").InfoContext(ctx, "scoped")
	assert.Contains(t, scoped.String(), `"service":"RoomService"`)
	assert.Contains(t, scoped.String(), `"operation":"CreateRoom"`)
	assert.NotContains(t, fallback.String(), "scoped")
}

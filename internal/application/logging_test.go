package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, custom, defaultLogger(custom))
	assert.Same(t, slog.Default(), defaultLogger(nil))
}

func TestServiceLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewJSONHandler(&base, nil))
	ctx := logging.ContextWithLogger(context.Background(),
		slog.New(slog.NewJSONHandler(&scoped, nil)).With("request_id", "req-1"))

	serviceLogger(ctx, baseLogger, "ReservationService", "CreateReservation", "room_id", "1").
		InfoContext(ctx, "hello")

	assert.Zero(t, base.Len())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(scoped.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "ReservationService", entry["service"])
	assert.Equal(t, "CreateReservation", entry["operation"])
	assert.Equal(t, "1", entry["room_id"])
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNew_JSONIncludesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "info", Format: "json"})
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-123")
	l.With("component", "test").InfoContext(ctx, "hello", "provider", "gemini")
	l.Debug("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "req-123", rec["request_id"])
	assert.Equal(t, "gemini", rec["provider"])
	assert.Equal(t, "test", rec["component"])
}

func TestNew_TextWithoutRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "debug"})
	require.NoError(t, err)

	l.DebugContext(context.Background(), "plain")
	assert.Contains(t, buf.String(), "msg=plain")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestNew_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)
}

func TestRequestIDFromContext(t *testing.T) {
	t.Parallel()

	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithRequestID(context.Background(), "")
	_, ok = RequestIDFromContext(ctx)
	assert.False(t, ok)

	id, ok := RequestIDFromContext(WithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}

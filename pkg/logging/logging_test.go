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
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{FormatCLI, func(t *testing.T, out string) {
			assert.Contains(t, out, "hello: key=value")
			assert.Contains(t, out, colorGreen)
		}},
		{FormatText, func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
			assert.Contains(t, out, "key=value")
		}},
		{FormatJSON, func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, "hello", m["msg"])
			assert.Equal(t, "value", m["key"])
		}},
		{"unknown", func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, "info", tt.format)
			l.Info("hello", "key", "value")
			tt.check(t, buf.String())
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", FormatText)
	l.Info("quiet")
	assert.Zero(t, buf.Len())
	l.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	SetDefault(&buf, "debug", FormatText)
	slog.Debug("from default")
	assert.Contains(t, buf.String(), "from default")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"  debug  ", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	l := New(&buf, "info", FormatText).With("request_id", "abc")
	ctx := WithLogger(context.Background(), l)

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "request_id=abc")
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatCLI  = "cli"
	FormatText = "text"
	FormatJSON = "json"
)

type ctxKey struct{}

// New returns a logger writing to w in the given format. Unknown formats
// fall back to text.
func New(w io.Writer, level, format string) *slog.Logger {
	lev := ParseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lev}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCLI:
		return slog.New(NewCLIHandler(w, lev))
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// SetDefault installs a new logger as the slog default.
func SetDefault(w io.Writer, level, format string) {
	slog.SetDefault(New(w, level, format))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithLogger stores a request-scoped logger on ctx.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or the default one.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

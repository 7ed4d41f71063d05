package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a structured stdout logger. format is "json" or "text";
// level is one of debug, info, warn, error (default info).
func New(format, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, format, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
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

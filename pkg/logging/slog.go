package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func New() *slog.Logger {
	return NewWithLevel("info")
}

// NewWithLevel builds the JSON logger used by every service. Unknown levels fall back to info.
func NewWithLevel(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

// Discard is handy in tests where log output is noise.
func Discard() *slog.Logger {
	return newLogger(io.Discard, "error")
}

func newLogger(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(h)
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

package logger

import (
	"io"
	"log/slog"
)

// NewTestHandler discards everything; tests that assert on log output use
// NewCloudRunHandlerTo with a buffer instead.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}

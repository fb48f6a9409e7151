// ABOUTME: This file configures the process-wide slog logger from environment
// ABOUTME: Supports text/json handlers and level selection for production use
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger from LOG_LEVEL and LOG_FORMAT. Unknown values
// fall back to info-level text output.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Package logging builds the structured logger shared by all subcommands
// and the slog-backed progress reporter.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the console slog.Logger for one subcommand run. Output goes
// to stderr; stdout is left to the relayed browser console.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// Component tags a logger with the subsystem it speaks for. Every log
// line of the grid accessors and use cases carries this attribute.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

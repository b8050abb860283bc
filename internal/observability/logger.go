package observability

import (
	"log/slog"
	"os"
)

// NewLogger returns the process-wide structured logger. Level defaults
// to info; LOG_LEVEL=debug turns on debug output.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

package logging

import (
	"log/slog"
	"os"
	"strings"

	"newsweave/internal/config"
)

// New creates the process-wide text logger from configuration. Output
// goes to stderr; stdout stays clean for the binaries that print to it.
func New(cfg config.LoggingConfig) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromString(cfg.Level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

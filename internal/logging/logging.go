package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"SMMAgent/internal/config"
)

// New builds the process logger from configuration, writing to stdout.
func New(cfg config.LoggingConfig) *slog.Logger {
	return NewWriter(os.Stdout, cfg)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "smm-agent")
}

// ParseLevel maps a level name to slog; unknown names mean info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

// Package logx builds the service's structured logger.
package logx

import (
	"io"
	"log/slog"
	"strings"
)

const serviceName = "resphone"

// New returns a JSON slog.Logger writing to w at the named level.
func New(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", serviceName)
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Module returns a child logger tagged with module.
func Module(l *slog.Logger, module string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("module", module)
}

package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewLoggerTo builds a logger writing to w. The service binary logs to stdout
// through the shared observability package; this variant serves tools whose
// stdout carries data. format is "json" or "text"; level is one of debug,
// info, warn, error (unknown values fall back to info).
func NewLoggerTo(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
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

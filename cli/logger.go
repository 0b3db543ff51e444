package cli

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger creates a text logger writing to w with the given level
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl := slog.LevelWarn
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

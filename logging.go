package main

import (
	"log/slog"
	"os"
	"strings"
)

// logLevel is shared by every logger NewLogger builds so a config reload can
// change verbosity without rebuilding handlers.
var logLevel = new(slog.LevelVar)

// NewLogger returns a text logger on stderr. LOG_LEVEL, when set, wins over
// level.
func NewLogger(level string) *slog.Logger {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	logLevel.Set(parseLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogLevel changes the level of every logger built by NewLogger.
func SetLogLevel(level string) {
	if os.Getenv("LOG_LEVEL") != "" {
		return
	}
	logLevel.Set(parseLevel(level))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

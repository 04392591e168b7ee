// Package logger wraps a process-wide structured JSON logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// Logger is the global slog logger instance
	Logger *slog.Logger
)

// Init initializes the global logger from the LOG_LEVEL environment variable.
func Init() {
	InitWithLevel(os.Getenv("LOG_LEVEL"))
}

// InitWithLevel initializes the global logger at the named level
// (debug, info, warn, error). Anything else means info.
func InitWithLevel(levelName string) {
	InitWithWriter(os.Stdout, levelName)
}

// InitWithWriter is InitWithLevel writing to w, for tests that inspect output.
func InitWithWriter(w io.Writer, levelName string) {
	if levelName == "" {
		levelName = "info"
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(levelName)})
	Logger = slog.New(handler).With("service", "picklewickel-scores")
	slog.SetDefault(Logger)

	Logger.Debug("Logger initialized", "level", levelName)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func get() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

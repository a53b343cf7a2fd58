package logger

import (
	"log/slog"
	"os"
)

// Log is the process-wide logger. Setup must run before anything logs;
// the helpers fall back to slog's default logger otherwise.
var Log *slog.Logger

// Setup initializes the global logger. Production emits JSON for log
// shipping; everywhere else gets human-readable text with debug enabled.
func Setup(env string) {
	level := slog.LevelDebug
	if env == "production" {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

func get() *slog.Logger {
	if Log == nil {
		return slog.Default()
	}
	return Log
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Package logging wraps log/slog with a process-wide logger and helpers used
// across the service.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Service struct {
	Logger *slog.Logger
}

var Default *Service

// Setup builds the global logger. Logs always go to stderr; when logDir is
// set they are duplicated into logDir/app.log as well.
func Setup(level string, logDir string) *slog.Logger {
	var out io.Writer = os.Stderr

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err == nil {
			file, err := os.OpenFile(filepath.Join(logDir, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				out = io.MultiWriter(os.Stderr, file)
			}
		}
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))

	Default = &Service{Logger: logger}
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package-level functions for direct access. They fall back to a plain
// stderr logger when Setup has not run, so library code and tests can log
// without initialization order constraints.

func logger() *slog.Logger {
	if Default != nil && Default.Logger != nil {
		return Default.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

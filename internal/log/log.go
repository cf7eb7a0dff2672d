// Package log provides structured logging for go-soundscape.
// It wraps slog with defaults for the soundscape binaries.
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// ScopeName is the instrumentation scope used for the OpenTelemetry bridge.
const ScopeName = "github.com/teslashibe/go-soundscape"

var (
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps "debug", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Init initializes the global logger with the specified level.
//
// The handler is chosen from the environment: LOG_FORMAT=otel forwards
// records to the OpenTelemetry log bridge, GO_ENV=production selects
// JSON, otherwise human-readable text.
func Init(level string) {
	once.Do(func() {
		logger = newLogger(ParseLevel(level), os.Getenv("LOG_FORMAT"), os.Getenv("GO_ENV"))
		slog.SetDefault(logger)
	})
}

func newLogger(lvl slog.Level, format, env string) *slog.Logger {
	if format == "otel" {
		return otelslog.NewLogger(ScopeName)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" || env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// L returns the global logger instance.
func L() *slog.Logger {
	// No-op after the first Init; also orders the read of logger.
	Init("info")
	return logger
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

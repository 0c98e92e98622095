package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/glowmed/platform/internal/tenancy"
)

// Logger wraps slog.Logger with application-specific functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger with the specified level
func New(level string) *Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{Logger: logger}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// WithTenant returns a logger tagged with the tenant carried by ctx, if any.
func (l *Logger) WithTenant(ctx context.Context) *Logger {
	if id, ok := tenancy.Tenant(ctx); ok {
		return &Logger{Logger: l.Logger.With("org_id", id)}
	}
	return l
}

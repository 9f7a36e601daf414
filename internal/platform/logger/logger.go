package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/sortlab/sortlab-api/internal/ciutil"
	"github.com/sortlab/sortlab-api/internal/config"
)

// contextKey is unexported so only this package can store the logger.
type contextKey struct{}

var loggerKey = contextKey{}

// Setup initializes the application's logging system from server
// configuration. It creates a structured JSON logger at the configured level,
// sets it as the process default, and returns it.
//
// An unknown log level falls back to info with a warning rather than failing
// startup.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if ciutil.IsCI() {
		// CI runs get provider metadata stamped onto every record so log
		// lines can be traced back to the originating job.
		handler = NewCIHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log, nil
}

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext retrieves the logger stored in the context, reporting whether
// one was present.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	log, ok := ctx.Value(loggerKey).(*slog.Logger)
	return log, ok
}

// FromContextOrDefault retrieves the logger stored in the context, falling
// back to the provided default, and to slog.Default() when that is nil too.
// Callers always get a usable logger.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if log, ok := FromContext(ctx); ok {
		return log
	}
	if def != nil {
		return def
	}
	return slog.Default()
}

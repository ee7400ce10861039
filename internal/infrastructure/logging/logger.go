package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/openems/dispatch-core/internal/infrastructure/config"
)

// Logger is the process-wide structured logger. Construct one with New or
// Default; components derive child loggers with With. Safe for concurrent
// use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of the config file. The
// service name and version ride on every record so aggregated logs from
// several deployments stay attributable.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(pickWriter(cfg.Output), cfg, version)
}

// NewWithWriter is New with an explicit destination instead of the
// configured stdout/stderr stream.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "dispatch-core"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// Default is the logger used before the config file has been read: JSON
// to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a child logger carrying extra default attributes, usually
// a component name.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func pickWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel maps a config level name to slog; unknown names fall back
// to info rather than failing startup.
func parseLevel(level string) slog.Level {
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

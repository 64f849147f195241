package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"changerisk/internal/configuration"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel converts a level name to slog.Level.
// Unrecognized names fall back to slog.LevelInfo.
func ParseLevel(level string) slog.Level {
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

// Logger is a JSON slog logger writing to stdout and, optionally, to a rotated file.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// New creates a logger from configuration. When cfg.File is set, records are also
// written to that file, rotated at cfg.MaxSize megabytes and compressed.
func New(cfg configuration.LoggerConfig) *Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(stdout io.Writer, cfg configuration.LoggerConfig) *Logger {
	l := &Logger{}
	out := stdout
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		out = io.MultiWriter(stdout, l.file)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	l.Logger = slog.New(handler)
	return l
}

// Prepare creates a logger from configuration and installs it as the slog default.
func Prepare(cfg configuration.LoggerConfig) *Logger {
	l := New(cfg)
	slog.SetDefault(l.Logger)
	return l
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

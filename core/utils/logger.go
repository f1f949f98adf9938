package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger keeps the printf-style call sites used across the service while
// emitting structured records through slog.
type Logger struct {
	base *slog.Logger
}

func NewLogger() *Logger {
	return NewLoggerWithOptions("info", "text", os.Stdout)
}

// NewLoggerWithOptions builds a logger for the given level (debug, info,
// warn, error) and format (text or json).
func NewLoggerWithOptions(level, format string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{base: slog.New(h)}
}

func parseLevel(level string) slog.Level {
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

func (l *Logger) Printf(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

// With returns a child logger carrying the given key/value attributes.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.base == nil {
		return l
	}
	return &Logger{base: l.base.With(args...)}
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Log(context.Background(), level, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

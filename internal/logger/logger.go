// Package logger provides the structured logging setup for edusmoke.
// Uses log/slog writing to stderr and, optionally, an append-only log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger wraps slog.Logger and owns the log file, if any.
type Logger struct {
	*slog.Logger
	file *os.File
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
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

// Init builds the process logger and installs it as the slog default.
// debug forces the debug level and adds source locations.
func Init(level, format, logFile string, debug bool) (*Logger, error) {
	return New(os.Stderr, level, format, logFile, debug)
}

// New is Init with an explicit console writer.
func New(console io.Writer, level, format, logFile string, debug bool) (*Logger, error) {
	lvl := ParseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}

	// Always write to the console, optionally to file
	writers := []io.Writer{console}

	var f *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		var err error
		f, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
	}

	out := io.MultiWriter(writers...)

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: lvl, AddSource: debug}
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	base := slog.New(handler)
	slog.SetDefault(base)

	return &Logger{Logger: base, file: f}, nil
}

// Close flushes and closes the log file. Safe on a console-only logger.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

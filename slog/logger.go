// Package slog provides the schemex logger and logging decorators for
// schemex services.
package slog

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Default log file settings.
const (
	DefaultLogFile    = "schemex.log"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
)

// Options configures NewLogger.
type Options struct {
	// Level is one of debug, info, warn or error. Anything else means info.
	Level string

	// File is the rotating log file. Empty disables file logging.
	File string

	MaxSizeMB  int
	MaxBackups int

	// Console receives the same records as the file. Nil disables it.
	Console io.Writer
}

// NewLogger returns a text logger writing to the console and a size-rotated
// log file. The returned closer releases the file.
func NewLogger(opts Options) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, DefaultMaxBackups),
		}
		writers = append(writers, lj)
		closer = lj
	}

	var w io.Writer = io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(h), closer
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

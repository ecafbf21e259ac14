// Package logger builds the process-wide slog logger: a colored console
// handler for humans and a rotating log file, fanned out from one logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/llamaterm/internal/env"
)

type options struct {
	console    io.Writer
	logFile    string
	level      slog.Level
	maxSizeMB  int
	maxBackups int
	logToFile  bool
	truncate   bool
}

// Option configures New.
type Option func(*options)

// WithLogToFile enables the file handler.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithTruncate empties the log file before the first write.
func WithTruncate(enabled bool) Option {
	return func(o *options) { o.truncate = enabled }
}

// WithConsole sets the console writer. A nil writer disables console output,
// which is required while a full-screen UI owns the terminal.
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// WithRotation sets the lumberjack rotation limits.
func WithRotation(maxSizeMB, maxBackups int) Option {
	return func(o *options) {
		o.maxSizeMB = maxSizeMB
		o.maxBackups = maxBackups
	}
}

// New creates a logger for the given environment.
func New(environment env.Environment, opts ...Option) *slog.Logger {
	o := &options{
		console:   os.Stderr,
		logFile:   "llamaterm.log",
		level:     slog.LevelInfo,
		maxSizeMB: 10,
	}
	for _, opt := range opts {
		opt(o)
	}

	if environment.IsDevelopment() {
		o.level = slog.LevelDebug
	}

	var (
		handlers []slog.Handler
		setupErr error
	)

	if o.console != nil {
		if environment.IsDevelopment() {
			handlers = append(handlers, tint.NewHandler(o.console, &tint.Options{
				Level:      o.level,
				TimeFormat: time.Kitchen,
			}))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(o.console, &slog.HandlerOptions{Level: o.level}))
		}
	}

	if o.logToFile && o.logFile != "" {
		if err := prepareFile(o.logFile, o.truncate); err != nil {
			setupErr = err
		}

		handlers = append(handlers, slog.NewTextHandler(&lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    o.maxSizeMB,
			MaxBackups: o.maxBackups,
		}, &slog.HandlerOptions{Level: o.level, AddSource: environment.IsDevelopment()}))
	}

	var log *slog.Logger
	switch len(handlers) {
	case 0:
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	case 1:
		log = slog.New(handlers[0])
	default:
		log = slog.New(fanout(handlers))
	}

	if setupErr != nil {
		log.Warn("Failed to prepare log file", "path", o.logFile, "error", setupErr)
	}

	return log.With("env", string(environment))
}

// prepareFile creates the log directory and optionally truncates the file.
func prepareFile(path string, truncate bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	if !truncate {
		return nil
	}

	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("truncate log file: %w", err)
	}
	return nil
}

// Recover logs a panic with its stack trace. Defer it directly:
//
//	defer logger.Recover("relay")
func Recover(where string) {
	if r := recover(); r != nil {
		slog.Error("Uncaught panic", "where", where, "panic", r, "stack", string(debug.Stack()))
	}
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// Logger is a structured key/value logger. Arguments after the message are
// alternating keys and values.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Options controls how the process-wide logger is built.
type Options struct {
	Output  io.Writer
	Debug   bool // info and above
	Verbose bool // everything
	Silent  bool // errors only
	JSON    bool
}

type slogLogger struct {
	l *slog.Logger
}

var (
	mu      sync.RWMutex
	level   = new(slog.LevelVar)
	root    Logger
	discard = &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
)

func init() {
	level.Set(slog.LevelWarn)
	root = newSlogLogger(os.Stderr, false, level)
}

// Setup replaces the process-wide logger. Default level is warn; Debug lowers
// it to info and Verbose to debug.
func Setup(opts Options) {
	level.Set(levelFor(opts))

	mu.Lock()
	root = newSlogLogger(outputFor(opts), opts.JSON, level)
	mu.Unlock()
}

// New builds a logger with its own level, leaving the process-wide logger
// untouched.
func New(opts Options) Logger {
	lv := new(slog.LevelVar)
	lv.Set(levelFor(opts))
	return newSlogLogger(outputFor(opts), opts.JSON, lv)
}

func levelFor(opts Options) slog.Level {
	switch {
	case opts.Silent:
		return slog.LevelError
	case opts.Verbose:
		return slog.LevelDebug
	case opts.Debug:
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func outputFor(opts Options) io.Writer {
	if opts.Output == nil {
		return os.Stderr
	}
	return opts.Output
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() Logger {
	return discard
}

// Default returns the process-wide logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

func newSlogLogger(out io.Writer, json bool, lv slog.Leveler) *slogLogger {
	handlerOpts := &slog.HandlerOptions{Level: lv}
	if json {
		return &slogLogger{l: slog.New(slog.NewJSONHandler(out, handlerOpts))}
	}
	return &slogLogger{l: slog.New(slog.NewTextHandler(out, handlerOpts))}
}

func (s *slogLogger) Debug(msg string, args ...interface{}) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...interface{})  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...interface{})  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...interface{}) { s.l.Error(msg, args...) }

func (s *slogLogger) WithField(key string, value interface{}) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

func (s *slogLogger) WithFields(fields map[string]interface{}) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &slogLogger{l: s.l.With(args...)}
}

// Package-level helpers delegate to the process-wide logger.

func Debug(msg string, args ...interface{}) { Default().Debug(msg, args...) }
func Info(msg string, args ...interface{})  { Default().Info(msg, args...) }
func Warn(msg string, args ...interface{})  { Default().Warn(msg, args...) }
func Error(msg string, args ...interface{}) { Default().Error(msg, args...) }

func WithField(key string, value interface{}) Logger {
	return Default().WithField(key, value)
}

func WithFields(fields map[string]interface{}) Logger {
	return Default().WithFields(fields)
}

// Package logger provides structured logging for gitu using log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgerlanc/gitu/internal/constants"
)

// LevelTrace is below debug; -vvv enables it.
const LevelTrace = slog.LevelDebug - 4

var (
	log       *slog.Logger
	once      sync.Once
	verbosity int
	logFile   io.Closer
)

// Options configures the logger.
type Options struct {
	// Verbosity is the number of -v flags: 0 warns and errors only,
	// 1 info, 2 debug, 3 trace.
	Verbosity int
	// Output is the writer for log output (defaults to os.Stderr)
	Output io.Writer
	// JSON enables JSON-formatted output
	JSON bool
	// File, when set, also writes every record to a size-rotated log file.
	File string
	// FileMaxSize is the rotation size in megabytes (default 1).
	FileMaxSize int
	// FileMaxBackups is the number of rotated files kept (default 2).
	FileMaxBackups int
}

// LevelFor maps a verbosity count to a slog level.
func LevelFor(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	}
	return LevelTrace
}

// Init initializes the global logger with the given options.
// It is safe to call multiple times; only the first call takes effect.
func Init(opts Options) {
	once.Do(func() {
		verbosity = min(max(opts.Verbosity, 0), constants.MaxVerbosity)

		output := opts.Output
		if output == nil {
			output = os.Stderr
		}

		handlerOpts := &slog.HandlerOptions{Level: LevelFor(verbosity)}

		var handler slog.Handler
		if opts.JSON {
			handler = slog.NewJSONHandler(output, handlerOpts)
		} else {
			handler = slog.NewTextHandler(output, handlerOpts)
		}

		if opts.File != "" {
			if fh := fileHandler(opts); fh != nil {
				handler = &multiHandler{handlers: []slog.Handler{handler, fh}}
			}
		}

		log = slog.New(handler)
	})
}

// fileHandler opens the rotating log file. Failure to create its directory
// disables file logging rather than the command.
func fileHandler(opts Options) slog.Handler {
	if err := os.MkdirAll(filepath.Dir(opts.File), constants.DirMode); err != nil {
		return nil
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    1,
		MaxBackups: 2,
		MaxAge:     30,
	}
	if opts.FileMaxSize > 0 {
		lj.MaxSize = opts.FileMaxSize
	}
	if opts.FileMaxBackups > 0 {
		lj.MaxBackups = opts.FileMaxBackups
	}
	logFile = lj
	return slog.NewTextHandler(lj, &slog.HandlerOptions{Level: LevelTrace})
}

// Close flushes and closes the log file, if any.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Reset resets the logger for testing purposes.
// This should only be used in tests.
func Reset() {
	Close()
	once = sync.Once{}
	log = nil
	verbosity = 0
}

// IsVerbose returns true if at least one -v was given.
func IsVerbose() bool {
	return verbosity > 0
}

// Verbosity returns the effective verbosity count.
func Verbosity() int {
	return verbosity
}

// Trace logs at trace level.
func Trace(msg string, args ...any) {
	if log != nil {
		log.Log(context.Background(), LevelTrace, msg, args...)
	}
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	if log != nil {
		log.Debug(msg, args...)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if log != nil {
		log.Info(msg, args...)
	}
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if log != nil {
		log.Warn(msg, args...)
	}
}

// Error logs at error level.
func Error(msg string, args ...any) {
	if log != nil {
		log.Error(msg, args...)
	}
}

// With returns a logger with additional context attributes.
func With(args ...any) *slog.Logger {
	if log == nil {
		return slog.Default()
	}
	return log.With(args...)
}

// multiHandler fans out log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

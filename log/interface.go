package log

import (
	"fmt"
	"io"
	"os"
)

// LibraryLogger is the logging surface the resolver packages depend on.
// Query output goes to the caller through result sinks, never through
// this interface, so a logger can be swapped without touching results:
// files for the CLI and server, memory for tests, nothing at all for
// embedding.
type LibraryLogger interface {
	// Info logs informational messages (e.g., "tracking 12 packages")
	Info(format string, args ...any)

	// Debug logs debug/diagnostic messages (may be no-op in production)
	Debug(format string, args ...any)

	// Warn logs warning messages (skipped candidates, dropped items)
	Warn(format string, args ...any)

	// Error logs error messages (failures, but execution continues)
	Error(format string, args ...any)
}

// Level names used by the writer and memory loggers.
const (
	LevelInfo  = "INFO"
	LevelDebug = "DEBUG"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Info(format string, args ...any)  {}
func (NoOpLogger) Debug(format string, args ...any) {}
func (NoOpLogger) Warn(format string, args ...any)  {}
func (NoOpLogger) Error(format string, args ...any) {}

// WriterLogger prints messages with a severity prefix to W. Debug
// messages are dropped unless Verbose is set.
type WriterLogger struct {
	W       io.Writer
	Verbose bool
}

// StderrLogger returns a WriterLogger on stderr, leaving stdout to results.
func StderrLogger(verbose bool) *WriterLogger {
	return &WriterLogger{W: os.Stderr, Verbose: verbose}
}

func (w *WriterLogger) printf(level, format string, args ...any) {
	fmt.Fprintf(w.W, "["+level+"] "+format+"\n", args...)
}

func (w *WriterLogger) Info(format string, args ...any) {
	w.printf(LevelInfo, format, args...)
}

func (w *WriterLogger) Debug(format string, args ...any) {
	if w.Verbose {
		w.printf(LevelDebug, format, args...)
	}
}

func (w *WriterLogger) Warn(format string, args ...any) {
	w.printf(LevelWarn, format, args...)
}

func (w *WriterLogger) Error(format string, args ...any) {
	w.printf(LevelError, format, args...)
}

// Tee fans every message out to each logger in turn.
type Tee []LibraryLogger

func (t Tee) Info(format string, args ...any) {
	for _, l := range t {
		l.Info(format, args...)
	}
}

func (t Tee) Debug(format string, args ...any) {
	for _, l := range t {
		l.Debug(format, args...)
	}
}

func (t Tee) Warn(format string, args ...any) {
	for _, l := range t {
		l.Warn(format, args...)
	}
}

func (t Tee) Error(format string, args ...any) {
	for _, l := range t {
		l.Error(format, args...)
	}
}

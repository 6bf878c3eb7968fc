package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-pkresolve/config"
)

// Compile-time interface checks
var (
	_ LibraryLogger = (*Logger)(nil)
	_ LibraryLogger = (*ContextLogger)(nil)
)

// Log file names inside config.LogsPath.
const (
	QueriesLog = "00_queries.log"
	ErrorsLog  = "01_errors.log"
	DebugLog   = "02_debug.log"
)

// Logger manages the pkresolve log files. Files are opened in append mode
// so short CLI invocations and the long running server share them.
type Logger struct {
	cfg         *config.Config
	queriesFile *os.File
	errorsFile  *os.File
	debugFile   *os.File
	mu          sync.Mutex
}

// LogContext provides metadata for contextual logging
type LogContext struct {
	TxID string // Transaction UUID (full or short)
	Op   string // Operation name (e.g., "get-updates")
}

// ContextLogger wraps Logger with context metadata for enriched log entries
type ContextLogger struct {
	logger *Logger
	ctx    LogContext
}

// NewLogger creates a new logger
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	l := &Logger{cfg: cfg}

	var err error
	if l.queriesFile, err = openLog(cfg.LogsPath, QueriesLog); err != nil {
		return nil, err
	}
	if l.errorsFile, err = openLog(cfg.LogsPath, ErrorsLog); err != nil {
		l.Close()
		return nil, err
	}
	if l.debugFile, err = openLog(cfg.LogsPath, DebugLog); err != nil {
		l.Close()
		return nil, err
	}

	fmt.Fprintf(l.debugFile, "--- session started %s (pid %d)\n", time.Now().Format(time.RFC3339), os.Getpid())
	return l, nil
}

func openLog(dir, name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// Close closes all log files
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range []*os.File{l.queriesFile, l.errorsFile, l.debugFile} {
		if f != nil {
			f.Close()
		}
	}
}

// write appends line to every file and syncs them. Caller holds l.mu.
func (l *Logger) write(line string, files ...*os.File) {
	for _, f := range files {
		f.WriteString(line)
		f.Sync()
	}
}

func stamp() string {
	return time.Now().Format("15:04:05")
}

// Query records a finished query with the number of packages it emitted.
func (l *Logger) Query(op, args string, emitted int, took time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] %s %s: %d packages in %s\n",
		stamp(), op, args, emitted, took.Round(time.Millisecond)), l.queriesFile)
}

// ItemError records a per-item error reported to the caller.
func (l *Logger) ItemError(op, code string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] %s: %s: %v\n", stamp(), op, code, err), l.errorsFile)
}

// Debug logs debug information. Nothing is written unless cfg.Debug is set.
func (l *Logger) Debug(format string, args ...any) {
	if !l.cfg.Debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] %s\n", stamp(), fmt.Sprintf(format, args...)), l.debugFile)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] ERROR: %s\n", stamp(), fmt.Sprintf(format, args...)),
		l.errorsFile, l.debugFile)
}

// Warn logs a warning message (non-fatal issues)
func (l *Logger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] WARN: %s\n", stamp(), fmt.Sprintf(format, args...)),
		l.errorsFile, l.debugFile)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(fmt.Sprintf("[%s] INFO: %s\n", stamp(), fmt.Sprintf(format, args...)), l.queriesFile)
}

// NewTxID returns a fresh transaction identifier.
func NewTxID() string {
	return uuid.NewString()
}

// WithContext creates a ContextLogger with metadata for enriched logging.
// The TxID will be truncated to 8 characters for readability.
//
// Example:
//
//	ctxLogger := logger.WithContext(log.LogContext{
//	    TxID: log.NewTxID(),
//	    Op:   "get-updates",
//	})
//	ctxLogger.Warn("license: skipping %s", id)
//	// Output: [15:04:05] [a1b2c3d4] get-updates: WARN: license: skipping ...
func (l *Logger) WithContext(ctx LogContext) *ContextLogger {
	return &ContextLogger{
		logger: l,
		ctx:    ctx,
	}
}

// formatPrefix creates a log prefix with context metadata
func (cl *ContextLogger) formatPrefix() string {
	short := cl.ctx.TxID
	if len(short) > 8 {
		short = short[:8]
	}
	if cl.ctx.Op == "" {
		return fmt.Sprintf("[%s] ", short)
	}
	return fmt.Sprintf("[%s] %s: ", short, cl.ctx.Op)
}

// Query records a finished query under this transaction.
func (cl *ContextLogger) Query(args string, emitted int, took time.Duration) {
	prefix := cl.formatPrefix()
	cl.logger.mu.Lock()
	defer cl.logger.mu.Unlock()

	cl.logger.write(fmt.Sprintf("[%s] %s%s: %d packages in %s\n",
		stamp(), prefix, strings.TrimSpace(args), emitted, took.Round(time.Millisecond)),
		cl.logger.queriesFile)
}

// ItemError records a per-item error under this transaction.
func (cl *ContextLogger) ItemError(code string, err error) {
	prefix := cl.formatPrefix()
	cl.logger.mu.Lock()
	defer cl.logger.mu.Unlock()

	cl.logger.write(fmt.Sprintf("[%s] %s%s: %v\n", stamp(), prefix, code, err), cl.logger.errorsFile)
}

// Info logs an informational message with context
func (cl *ContextLogger) Info(format string, args ...any) {
	cl.log("INFO", fmt.Sprintf(format, args...), cl.logger.queriesFile)
}

// Error logs an error message with context
func (cl *ContextLogger) Error(format string, args ...any) {
	cl.log("ERROR", fmt.Sprintf(format, args...), cl.logger.errorsFile, cl.logger.debugFile)
}

// Warn logs a warning message with context
func (cl *ContextLogger) Warn(format string, args ...any) {
	cl.log("WARN", fmt.Sprintf(format, args...), cl.logger.errorsFile, cl.logger.debugFile)
}

// Debug logs debug information with context
func (cl *ContextLogger) Debug(format string, args ...any) {
	if !cl.logger.cfg.Debug {
		return
	}
	cl.log("DEBUG", fmt.Sprintf(format, args...), cl.logger.debugFile)
}

func (cl *ContextLogger) log(level, msg string, files ...*os.File) {
	prefix := cl.formatPrefix()
	cl.logger.mu.Lock()
	defer cl.logger.mu.Unlock()

	cl.logger.write(fmt.Sprintf("[%s] %s%s: %s\n", stamp(), prefix, level, msg), files...)
}

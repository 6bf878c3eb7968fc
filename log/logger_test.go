package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-pkresolve/config"
)

func newTestLogger(t *testing.T, debug bool) (*Logger, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		LogsPath: filepath.Join(t.TempDir(), "logs"),
		Debug:    debug,
	}
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	t.Cleanup(logger.Close)
	return logger, cfg
}

func readLog(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(cfg.LogsPath, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(content)
}

func TestNewLogger(t *testing.T) {
	_, cfg := newTestLogger(t, false)

	// Verify log directory was created
	if _, err := os.Stat(cfg.LogsPath); os.IsNotExist(err) {
		t.Error("Logs directory was not created")
	}

	for _, filename := range []string{QueriesLog, ErrorsLog, DebugLog} {
		if _, err := os.Stat(filepath.Join(cfg.LogsPath, filename)); os.IsNotExist(err) {
			t.Errorf("Log file %s was not created", filename)
		}
	}
}

func TestNewLogger_Appends(t *testing.T) {
	cfg := &config.Config{LogsPath: t.TempDir()}

	for i := 0; i < 2; i++ {
		logger, err := NewLogger(cfg)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		logger.Info("run %d", i)
		logger.Close()
	}

	content := readLog(t, cfg, QueriesLog)
	if !strings.Contains(content, "run 0") || !strings.Contains(content, "run 1") {
		t.Errorf("queries log lost an earlier session:\n%s", content)
	}
}

func TestLogger_Query(t *testing.T) {
	logger, cfg := newTestLogger(t, false)

	logger.Query("resolve", "newest app-misc/foo", 2, 1500*time.Microsecond)

	content := readLog(t, cfg, QueriesLog)
	if !strings.Contains(content, "resolve newest app-misc/foo: 2 packages") {
		t.Errorf("Queries log missing entry:\n%s", content)
	}
}

func TestLogger_ItemError(t *testing.T) {
	logger, cfg := newTestLogger(t, false)

	logger.ItemError("get-details", "package-not-found", errors.New("app-misc/none"))

	content := readLog(t, cfg, ErrorsLog)
	if !strings.Contains(content, "get-details: package-not-found: app-misc/none") {
		t.Errorf("Errors log missing entry:\n%s", content)
	}
}

func TestLogger_Levels(t *testing.T) {
	logger, cfg := newTestLogger(t, false)

	logger.Warn("slot %s has %d installed", "0", 2)
	logger.Error("store failed: %v", "timeout")
	logger.Debug("hidden")

	errorsLog := readLog(t, cfg, ErrorsLog)
	if !strings.Contains(errorsLog, "WARN: slot 0 has 2 installed") {
		t.Error("Errors log does not contain the warning")
	}
	if !strings.Contains(errorsLog, "ERROR: store failed: timeout") {
		t.Error("Errors log does not contain the error")
	}

	debugLog := readLog(t, cfg, DebugLog)
	if strings.Contains(debugLog, "hidden") {
		t.Error("Debug message written with debugging disabled")
	}
	if !strings.Contains(debugLog, "WARN: slot 0") {
		t.Error("Debug log should mirror warnings")
	}
}

func TestLogger_DebugEnabled(t *testing.T) {
	logger, cfg := newTestLogger(t, true)

	logger.Debug("bulk: delivered %d/%d packages", 4, 8)

	if !strings.Contains(readLog(t, cfg, DebugLog), "bulk: delivered 4/8 packages") {
		t.Error("Debug log does not contain the message")
	}
}

func TestContextLogger(t *testing.T) {
	logger, cfg := newTestLogger(t, true)

	tx := "a1b2c3d4-e5f6-7890-abcd-ef0123456789"
	cl := logger.WithContext(LogContext{TxID: tx, Op: "get-updates"})

	cl.Info("tracking %d packages", 12)
	cl.Warn("license: skipping %s", "app-misc/foo")
	cl.Debug("slot %s", "2")
	cl.ItemError("package-corrupt", errors.New("two installed in slot 0"))
	cl.Query("none", 3, time.Millisecond)

	queries := readLog(t, cfg, QueriesLog)
	if !strings.Contains(queries, "[a1b2c3d4] get-updates: INFO: tracking 12 packages") {
		t.Errorf("Queries log missing context entry:\n%s", queries)
	}
	if !strings.Contains(queries, "[a1b2c3d4] get-updates: none: 3 packages") {
		t.Errorf("Queries log missing query entry:\n%s", queries)
	}
	if strings.Contains(queries, tx) {
		t.Error("TxID should be truncated to 8 characters")
	}

	errorsLog := readLog(t, cfg, ErrorsLog)
	if !strings.Contains(errorsLog, "get-updates: WARN: license: skipping app-misc/foo") {
		t.Errorf("Errors log missing warning:\n%s", errorsLog)
	}
	if !strings.Contains(errorsLog, "package-corrupt: two installed in slot 0") {
		t.Errorf("Errors log missing item error:\n%s", errorsLog)
	}

	if !strings.Contains(readLog(t, cfg, DebugLog), "get-updates: DEBUG: slot 2") {
		t.Error("Debug log missing context entry")
	}
}

func TestNewTxID(t *testing.T) {
	a, b := NewTxID(), NewTxID()
	if a == b {
		t.Error("NewTxID returned the same id twice")
	}
	if len(a) != 36 {
		t.Errorf("NewTxID() = %q, want a 36 character UUID", a)
	}
}

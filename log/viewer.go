package log

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-pkresolve/config"
)

var logAliases = map[string]string{
	"00":      QueriesLog,
	"queries": QueriesLog,
	"01":      ErrorsLog,
	"errors":  ErrorsLog,
	"02":      DebugLog,
	"debug":   DebugLog,
}

// ResolveLogName maps a short alias ("queries", "01", ...) to its file
// name. Unknown names are returned unchanged.
func ResolveLogName(name string) string {
	if file, ok := logAliases[name]; ok {
		return file
	}
	return name
}

// ListLogs lists the log files and their sizes
func ListLogs(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Log files in %s:\n\n", cfg.LogsPath)
	for _, entry := range []struct{ alias, file string }{
		{"00 or queries", QueriesLog},
		{"01 or errors", ErrorsLog},
		{"02 or debug", DebugLog},
	} {
		size := "missing"
		if st, err := os.Stat(filepath.Join(cfg.LogsPath, entry.file)); err == nil {
			size = fmt.Sprintf("%d bytes", st.Size())
		}
		fmt.Fprintf(w, "  %-14s - %-16s %s\n", entry.alias, entry.file, size)
	}
}

// TailLog writes the last N lines of a log file
func TailLog(w io.Writer, cfg *config.Config, logName string, lines int) error {
	file, err := os.Open(filepath.Join(cfg.LogsPath, ResolveLogName(logName)))
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer file.Close()

	// Ring of the last N lines
	ring := make([]string, 0, lines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if lines <= 0 {
			continue
		}
		if len(ring) == lines {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, line := range ring {
		fmt.Fprintln(w, line)
	}
	return nil
}

// GrepLog writes the lines of a log file containing pattern, numbered
func GrepLog(w io.Writer, cfg *config.Config, logName, pattern string) error {
	file, err := os.Open(filepath.Join(cfg.LogsPath, ResolveLogName(logName)))
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.Contains(line, pattern) {
			fmt.Fprintf(w, "%d: %s\n", lineNum, line)
		}
	}
	return scanner.Err()
}

// GetLogSummary counts queries, warnings and errors recorded in the logs
func GetLogSummary(cfg *config.Config) map[string]int {
	summary := make(map[string]int)

	if n, err := countLines(filepath.Join(cfg.LogsPath, QueriesLog), " packages in "); err == nil {
		summary["queries"] = n
	}
	if n, err := countLines(filepath.Join(cfg.LogsPath, ErrorsLog), "WARN: "); err == nil {
		summary["warnings"] = n
	}
	if n, err := countLines(filepath.Join(cfg.LogsPath, ErrorsLog), ""); err == nil {
		summary["errors"] = n - summary["warnings"]
	}

	return summary
}

// countLines counts the non-empty lines of a file containing substr
func countLines(path, substr string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") && strings.Contains(line, substr) {
			count++
		}
	}

	return count, scanner.Err()
}

package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// AskYN prompts on out and reads a yes/no answer from in. An empty answer
// selects the default.
func AskYN(in io.Reader, out io.Writer, prompt string, defaultYes bool) bool {
	if defaultYes {
		fmt.Fprintf(out, "%s [Y/n]: ", prompt)
	} else {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
	}

	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))

	if response == "" {
		return defaultYes
	}

	return response == "y" || response == "yes"
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FormatBytes formats bytes as human-readable string (e.g., "1.5 MiB")
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
		if exp >= 5 { // Limit to EiB
			break
		}
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

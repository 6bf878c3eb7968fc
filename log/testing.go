package log

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryLogger captures all log messages in memory for testing.
// Thread-safe for concurrent use.
type MemoryLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a captured log entry
type LogMessage struct {
	Level   string // LevelInfo, LevelDebug, LevelWarn or LevelError
	Message string
}

// NewMemoryLogger creates a new MemoryLogger for testing
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level, format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (m *MemoryLogger) Info(format string, args ...any)  { m.record(LevelInfo, format, args...) }
func (m *MemoryLogger) Debug(format string, args ...any) { m.record(LevelDebug, format, args...) }
func (m *MemoryLogger) Warn(format string, args ...any)  { m.record(LevelWarn, format, args...) }
func (m *MemoryLogger) Error(format string, args ...any) { m.record(LevelError, format, args...) }

// filter returns the messages matching keep. Caller must not hold m.mu.
func (m *MemoryLogger) filter(keep func(LogMessage) bool) []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []LogMessage
	for _, msg := range m.messages {
		if keep(msg) {
			result = append(result, msg)
		}
	}
	return result
}

// GetMessages returns a copy of all captured messages
func (m *MemoryLogger) GetMessages() []LogMessage {
	return m.filter(func(LogMessage) bool { return true })
}

// GetMessagesByLevel returns all messages of a specific level
func (m *MemoryLogger) GetMessagesByLevel(level string) []LogMessage {
	return m.filter(func(msg LogMessage) bool { return msg.Level == level })
}

// HasMessage checks if any message contains the given substring
func (m *MemoryLogger) HasMessage(substring string) bool {
	return len(m.filter(func(msg LogMessage) bool {
		return strings.Contains(msg.Message, substring)
	})) > 0
}

// HasMessageWithLevel checks if any message at the given level contains the substring
func (m *MemoryLogger) HasMessageWithLevel(level, substring string) bool {
	return len(m.filter(func(msg LogMessage) bool {
		return msg.Level == level && strings.Contains(msg.Message, substring)
	})) > 0
}

// Clear removes all captured messages
func (m *MemoryLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}

// Count returns the total number of captured messages
func (m *MemoryLogger) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// CountByLevel returns the number of messages at a specific level
func (m *MemoryLogger) CountByLevel(level string) int {
	return len(m.GetMessagesByLevel(level))
}

// String returns a formatted string of all messages (useful for debugging tests)
func (m *MemoryLogger) String() string {
	var sb strings.Builder
	for i, msg := range m.GetMessages() {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, msg.Level, msg.Message)
	}
	return sb.String()
}

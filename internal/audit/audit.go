// Package audit appends one-line records of security relevant actions
// (logins, status changes, result declarations) to a log file.
package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Statuses
const (
	StatusSuccess = "Success"
	StatusFail    = "Fail"
)

// Logger writes records to <dir>/audit.log when enabled.
// A nil or disabled Logger discards everything.
type Logger struct {
	enabled bool
	path    string
	mu      sync.Mutex
}

// New creates a Logger writing into dir.
func New(enabled bool, dir string) *Logger {
	if dir == "" {
		dir = "log"
	}
	return &Logger{
		enabled: enabled,
		path:    filepath.Join(dir, "audit.log"),
	}
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log appends a record.
// Fields: timestamp (RFC3339) | level | action | status | identifier? | message?
// Failures to write are ignored.
func (l *Logger) Log(level, action, status, identifier, message string) {
	if l == nil || !l.enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	ts := time.Now().UTC().Format(time.RFC3339)
	parts := []string{ts, level, action, status}
	if identifier != "" {
		parts = append(parts, identifier)
	}
	if message != "" {
		parts = append(parts, sanitize(message))
	}

	_, _ = f.WriteString(strings.Join(parts, " | ") + "\n")
}

func sanitize(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(s)
}

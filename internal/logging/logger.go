package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/secondbrain/internal/project"
)

// Logger appends timestamped lines to .claude/hook-debug.log so hook failures
// can be inspected after the agent has moved on. A nil Logger discards
// everything, which is how logging stays off unless debugging is requested.
type Logger struct {
	mu        *sync.Mutex
	out       io.Writer
	closer    io.Closer
	component string
}

// New creates (or reuses) the debug log for the project rooted at root.
func New(root string) (*Logger, error) {
	path := project.DebugLogFile(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{mu: &sync.Mutex{}, out: f, closer: f}, nil
}

// NewWriter logs to w. Close does not close w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: w}
}

// With returns a logger sharing the same output whose lines are tagged with
// component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	clone := *l
	clone.component = component
	clone.closer = nil
	return &clone
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Printf writes a single timestamped line to the log.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.component != "" {
		fmt.Fprintf(l.out, "[%s] [%s] %s\n", timestamp, l.component, line)
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, line)
}

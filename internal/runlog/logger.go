// Package runlog records every delegated command of a release run to a
// Markdown transcript for auditing failed or partial releases.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry describes one executed command.
type Entry struct {
	Command  string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Logger appends command entries to {baseDir}/{timestamp}.md.
type Logger struct {
	baseDir string
	enabled bool

	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewLogger creates a new Logger instance.
// If enabled is false, all logging operations become no-ops.
func NewLogger(baseDir string, enabled bool) *Logger {
	return &Logger{
		baseDir: baseDir,
		enabled: enabled,
		now:     time.Now,
	}
}

// IsEnabled returns whether logging is enabled.
func (l *Logger) IsEnabled() bool {
	return l != nil && l.enabled
}

// Path returns the transcript file, or "" if nothing was logged yet.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Log appends an entry. The transcript file is created on first use.
// Returns nil if logging is disabled or logger is nil.
func (l *Logger) Log(e Entry) error {
	if !l.IsEnabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		if err := l.create(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path is generated by the logger
	if err != nil {
		return fmt.Errorf("failed to open command log %s: %w", l.path, err)
	}
	defer f.Close() //nolint:errcheck // write error is checked below

	if _, err := f.WriteString(formatEntry(e)); err != nil {
		return fmt.Errorf("failed to write command log %s: %w", l.path, err)
	}
	return nil
}

func (l *Logger) create() error {
	if err := os.MkdirAll(l.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", l.baseDir, err)
	}

	started := l.now().UTC()
	path := filepath.Join(l.baseDir, started.Format("2006-01-02T15-04-05Z")+".md")
	header := fmt.Sprintf("# Release Command Log\n\n**Started**: %s\n\n", started.Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(header), 0o600); err != nil {
		return fmt.Errorf("failed to write log file %s: %w", path, err)
	}
	l.path = path
	return nil
}

func formatEntry(e Entry) string {
	status := "✅ ok"
	if e.Err != nil {
		status = fmt.Sprintf("❌ %v", e.Err)
	}

	return fmt.Sprintf("## `%s`\n\n- **Started**: %s\n- **Duration**: %s\n- **Result**: %s\n\n",
		e.Command, e.Started.Format(time.RFC3339), e.Duration.Round(time.Millisecond), status)
}

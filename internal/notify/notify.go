// Package notify provides notification sinks for non-interactive use.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/homestead/internal/domain"
)

// LogNotifier writes notifications to a logger
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements domain.Notifier
func (n *LogNotifier) Notify(severity domain.Severity, message string) {
	level := slog.LevelInfo
	if severity == domain.SeverityError {
		level = slog.LevelError
	}
	n.logger.Log(context.Background(), level, "notification", "severity", severity.String(), "message", message)
}

// Entry is one recorded notification
type Entry struct {
	Severity domain.Severity
	Message  string
}

// Recorder keeps every notification in order
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Notify implements domain.Notifier
func (r *Recorder) Notify(severity domain.Severity, message string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Severity: severity, Message: message})
	r.mu.Unlock()
}

// Entries returns a copy of what was recorded
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Fanout delivers every notification to all sinks
type Fanout []domain.Notifier

// Notify implements domain.Notifier
func (f Fanout) Notify(severity domain.Severity, message string) {
	for _, n := range f {
		n.Notify(severity, message)
	}
}

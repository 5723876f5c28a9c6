// Package activity records the terminal-style log shown next to a prediction.
package activity

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Level marks an entry as normal progress or a failure.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Entry is one line of the activity log.
type Entry struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// String renders the entry the way the page prints it.
func (e Entry) String() string {
	return "> " + e.Message
}

// Log is an ordered, append-only list of entries. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{entries: []Entry{}, now: time.Now}
}

// FromEntries rebuilds a log from previously recorded entries.
func FromEntries(entries []Entry) *Log {
	l := NewLog()
	l.entries = append(l.entries, entries...)
	return l
}

// Info appends a progress line.
func (l *Log) Info(format string, args ...any) {
	l.append(LevelInfo, fmt.Sprintf(format, args...))
}

// Error appends a failure line.
func (l *Log) Error(format string, args ...any) {
	l.append(LevelError, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry{}, l.entries...)
}

// Messages returns only the message text of each entry.
func (l *Log) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// HasErrors reports whether any entry is an error.
func (l *Log) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Level == LevelError {
			return true
		}
	}
	return false
}

// Reset clears the log.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = []Entry{}
	l.mu.Unlock()
}

func (l *Log) append(level Level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg, Time: l.now()})
	l.mu.Unlock()

	if level == LevelError {
		slog.Debug("activity error", "message", msg)
	} else {
		slog.Debug("activity", "message", msg)
	}
}

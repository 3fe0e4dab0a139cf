package incoming

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/richardsondev/unreal-archive/internal/ua"
)

// EntryType grades a submission log entry.
type EntryType int

const (
	// Info is informational.
	Info EntryType = iota
	// Continue records a problem that indexing recovered from.
	Continue
	// Fatal records the problem that stopped indexing the submission.
	Fatal
)

func (t EntryType) String() string {
	switch t {
	case Info:
		return "INFO"
	case Continue:
		return "CONTINUE"
	case Fatal:
		return "FATAL"
	default:
		return fmt.Sprintf("EntryType(%d)", int(t))
	}
}

// LogEntry is one line of a submission's log.
type LogEntry struct {
	Time    time.Time
	Type    EntryType
	Message string
	Err     error
}

func (e LogEntry) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Time.UTC().Format(time.RFC3339), e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Time.UTC().Format(time.RFC3339), e.Type, e.Message)
}

// Log collects the messages produced while indexing one submission, so they
// can be reported together once the submission is done.
type Log struct {
	mu      sync.Mutex
	clock   ua.Clock
	entries []LogEntry
}

// NewLog creates an empty Log timestamped by clock.
func NewLog(clock ua.Clock) *Log {
	if clock == nil {
		clock = ua.RealClock{}
	}
	return &Log{clock: clock}
}

// Add appends an entry. err may be nil.
func (l *Log) Add(t EntryType, msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Time: l.clock.Now(), Type: t, Message: msg, Err: err})
}

func (l *Log) Info(msg string)                { l.Add(Info, msg, nil) }
func (l *Log) Continue(msg string, err error) { l.Add(Continue, msg, err) }
func (l *Log) Fatal(msg string, err error)    { l.Add(Fatal, msg, err) }

// OK reports whether no fatal entry has been logged.
func (l *Log) OK() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.Type == Fatal {
			return false
		}
	}
	return true
}

// Entries returns a copy of the log.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) String() string {
	var sb strings.Builder
	for _, e := range l.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

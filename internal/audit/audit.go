// Package audit provides the append-only log value that core components
// thread through their calls. Components only ever append; nothing is
// rewritten after it is recorded, and tests can inspect exactly what a
// call logged without any process-wide state.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry kinds.
const (
	Critical   = "critical"
	Warning    = "warning"
	Note       = "note"
	Score      = "score"
	Equivalent = "equivalent"
	ID         = "id"
	Hash       = "hash"
	Result     = "result"
)

// Entry is one recorded observation.
type Entry struct {
	Category string `json:"category"`
	Kind     string `json:"kind"`
	Message  any    `json:"message"`
}

// Log is an append-only sequence of entries. The zero value is not usable;
// a nil *Log is, and discards everything, so callers that do not care
// about the trail can pass nil.
type Log struct {
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Add appends one entry. Safe on a nil receiver.
func (l *Log) Add(category, kind string, message any) {
	if l == nil {
		return
	}
	l.entries = append(l.entries, Entry{Category: category, Kind: kind, Message: message})
}

// Entries returns the recorded entries in order.
func (l *Log) Entries() []Entry {
	if l == nil {
		return nil
	}
	return l.entries
}

// Messages returns the messages recorded under a category and kind.
func (l *Log) Messages(category, kind string) []any {
	var out []any
	for _, e := range l.Entries() {
		if e.Category == category && e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}

// MarshalJSON renders the log as its entry list.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// Recorder persists logs as numbered episode files, one JSON file per
// saved episode, under a base directory.
type Recorder struct {
	baseDir string
	episode int
}

// NewRecorder creates the base directory if needed.
func NewRecorder(baseDir string) (*Recorder, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log dir: %w", err)
	}
	return &Recorder{baseDir: baseDir}, nil
}

// Save writes the log to the next episode file and returns its path.
func (r *Recorder) Save(l *Log) (string, error) {
	data, err := json.MarshalIndent(l.Entries(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("audit: marshal episode: %w", err)
	}
	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(r.baseDir, fmt.Sprintf("episode_%d_%s.json", r.episode, ts))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("audit: write episode: %w", err)
	}
	r.episode++
	return path, nil
}

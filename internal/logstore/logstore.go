// Package logstore holds diagnostic log entries (errors, warnings, info) with
// a resolve/clear lifecycle. The store lives for the process only.
package logstore

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseLevel parses "error", "warning"/"warn" or "info".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "info":
		return LevelInfo, nil
	default:
		return 0, fmt.Errorf("logstore: unknown level %q", s)
	}
}

// Entry is one stored diagnostic record.
type Entry struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Component string    `json:"component"`
	Stack     string    `json:"stack,omitempty"` // empty when absent
	Resolved  bool      `json:"resolved"`
}

// Draft is an entry before the store assigns id, timestamp and resolved state.
type Draft struct {
	Level     Level
	Message   string
	Component string
	Stack     string
}

// Filter selects entries. Nil fields match everything.
type Filter struct {
	Level    *Level
	Resolved *bool
}

// ByLevel returns a filter matching one level.
func ByLevel(l Level) Filter { return Filter{Level: &l} }

// ByResolved returns a filter matching resolved (true) or active (false) entries.
func ByResolved(resolved bool) Filter { return Filter{Resolved: &resolved} }

// Match reports whether e satisfies every predicate set on f.
func (f Filter) Match(e Entry) bool {
	if f.Level != nil && e.Level != *f.Level {
		return false
	}
	if f.Resolved != nil && e.Resolved != *f.Resolved {
		return false
	}
	return true
}

// Store is an in-memory, insertion-ordered log store. All methods are safe
// for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
	changes chan struct{}
}

// New creates an empty store. Ids start at 1.
func New() *Store {
	return &Store{nextID: 1, changes: make(chan struct{}, 1)}
}

// Append stores a new entry and returns its id. Info entries start resolved;
// errors and warnings start active.
func (s *Store) Append(d Draft) int {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.entries = append(s.entries, Entry{
		ID:        id,
		Timestamp: time.Now(),
		Level:     d.Level,
		Message:   d.Message,
		Component: d.Component,
		Stack:     d.Stack,
		Resolved:  d.Level == LevelInfo,
	})
	s.mu.Unlock()
	s.notify()
	return id
}

// Resolve marks the entry resolved. Unknown or already-resolved ids are ignored.
func (s *Store) Resolve(id int) {
	s.mu.Lock()
	changed := false
	for i := range s.entries {
		if s.entries[i].ID == id {
			if !s.entries[i].Resolved {
				s.entries[i].Resolved = true
				changed = true
			}
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Clear removes every entry and returns how many were removed. Ids keep
// increasing after a clear.
func (s *Store) Clear() int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()
	if n > 0 {
		s.notify()
	}
	return n
}

// Query returns the entries matching f in insertion order. The sequence is
// lazy and can be ranged over any number of times; each pass reads a
// consistent snapshot taken when the pass begins.
func (s *Store) Query(f Filter) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range s.snapshot() {
			if !f.Match(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries matching f.
func (s *Store) Entries(f Filter) []Entry {
	var out []Entry
	for e := range s.Query(f) {
		out = append(out, e)
	}
	return out
}

// Get returns the entry with the given id.
func (s *Store) Get(id int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ActiveErrorCount returns the number of unresolved errors.
func (s *Store) ActiveErrorCount() int {
	return s.activeCount(LevelError)
}

// ActiveWarningCount returns the number of unresolved warnings.
func (s *Store) ActiveWarningCount() int {
	return s.activeCount(LevelWarning)
}

func (s *Store) activeCount(l Level) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.Level == l && !e.Resolved {
			n++
		}
	}
	return n
}

// Changes returns a channel that receives a value after the store changes.
// Signals coalesce: several mutations between reads produce one value.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Package view holds session-wide presentation state: per-window
// navigation records and the last-cursor memory keyed by directory
// address. The store outlives any single event callback and is owned
// by the lifecycle controller.
package view

import (
	"time"

	"vdir/internal/url"
)

// Record is the per-window bookkeeping created the moment a window
// first displays an engine buffer. Buffer ids of 0 mean "none".
type Record struct {
	DidEnter          bool
	OriginalBuffer    int
	OriginalAlternate int
	// Options are per-window option overrides propagated to windows
	// created by splitting.
	Options map[string]string
}

// clone returns a deep copy so split windows do not share maps.
func (r *Record) clone() *Record {
	c := *r
	if r.Options != nil {
		c.Options = make(map[string]string, len(r.Options))
		for k, v := range r.Options {
			c.Options[k] = v
		}
	}
	return &c
}

// Cursor remembers where the user last was in a directory view.
type Cursor struct {
	Name string
	Line int
}

// Store is the process-wide view state table. All access happens on
// the host thread, so no locking is needed.
type Store struct {
	records    map[int]*Record
	cursors    map[string]Cursor
	lastUsed   map[string]time.Time
	maxCursors int
}

// NewStore creates an empty store remembering at most maxCursors
// directory positions.
func NewStore(maxCursors int) *Store {
	if maxCursors <= 0 {
		maxCursors = 100
	}
	return &Store{
		records:    make(map[int]*Record),
		cursors:    make(map[string]Cursor),
		lastUsed:   make(map[string]time.Time),
		maxCursors: maxCursors,
	}
}

// Record returns the view record for a window, if one exists.
func (s *Store) Record(winID int) (*Record, bool) {
	r, ok := s.records[winID]
	return r, ok
}

// EnsureRecord returns the view record for a window, creating it on
// first use.
func (s *Store) EnsureRecord(winID int) *Record {
	if r, ok := s.records[winID]; ok {
		return r
	}
	r := &Record{}
	s.records[winID] = r
	return r
}

// ClearRecord drops the view record for a window.
func (s *Store) ClearRecord(winID int) {
	delete(s.records, winID)
}

// CopyRecord propagates the record of src to dst (window split).
// Returns false when src has no record.
func (s *Store) CopyRecord(src, dst int) bool {
	r, ok := s.records[src]
	if !ok {
		return false
	}
	s.records[dst] = r.clone()
	return true
}

// SetCursor remembers the child name and line the cursor was on when
// the user navigated away from a directory view.
func (s *Store) SetCursor(u url.URL, name string, line int) {
	key := u.String()
	if _, exists := s.cursors[key]; !exists && len(s.cursors) >= s.maxCursors {
		s.evictOldestCursor()
	}
	s.cursors[key] = Cursor{Name: name, Line: line}
	s.lastUsed[key] = time.Now()
}

// Cursor returns the remembered position for a directory address.
func (s *Store) Cursor(u url.URL) (Cursor, bool) {
	c, ok := s.cursors[u.String()]
	if ok {
		s.lastUsed[u.String()] = time.Now()
	}
	return c, ok
}

// evictOldestCursor removes the least recently used entry.
func (s *Store) evictOldestCursor() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, used := range s.lastUsed {
		if first || used.Before(oldestTime) {
			oldestKey = key
			oldestTime = used
			first = false
		}
	}
	if oldestKey != "" {
		delete(s.cursors, oldestKey)
		delete(s.lastUsed, oldestKey)
	}
}

// ExportCursors returns address-to-child-name pairs for persistence.
// Line numbers are session-local and not exported.
func (s *Store) ExportCursors() map[string]string {
	out := make(map[string]string, len(s.cursors))
	for key, c := range s.cursors {
		out[key] = c.Name
	}
	return out
}

// ImportCursors seeds the store from persisted address-to-name pairs.
func (s *Store) ImportCursors(entries map[string]string) {
	for key, name := range entries {
		if len(s.cursors) >= s.maxCursors {
			break
		}
		s.cursors[key] = Cursor{Name: name}
		s.lastUsed[key] = time.Now()
	}
}

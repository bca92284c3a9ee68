package diag

import (
	"context"
	"sync"
)

// MemoryJournal keeps entries in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryJournal returns an empty journal
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append implements Journal.
func (m *MemoryJournal) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (m *MemoryJournal) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Filter returns the entries of one kind.
func (m *MemoryJournal) Filter(kind EntryKind) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of recorded entries.
func (m *MemoryJournal) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops every entry.
func (m *MemoryJournal) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

// Package history keeps a bounded, thread-safe record of recent cursor and
// edit positions for one editing session.
//
// Eviction is strict FIFO on insertion order, not LRU: history is write-once,
// read-many, and "oldest recorded" is the only meaningful notion of stale.
package history

import (
	"sync"

	"github.com/doeshing/suggest-go/internal/domain"
	"github.com/doeshing/suggest-go/internal/ports"
)

// Tracker owns the per-session position history. One instance per session;
// no cross-session sharing.
type Tracker struct {
	mu       sync.Mutex
	entries  []domain.HistoryEntry
	maxDepth int
}

// NewTracker builds a tracker bounded at maxDepth entries.
func NewTracker(maxDepth int) *Tracker {
	if maxDepth <= 0 {
		maxDepth = domain.DefaultHistoryDepth
	}
	return &Tracker{maxDepth: maxDepth}
}

// Record appends entry and drops the oldest entries when the bound is
// exceeded.
func (t *Tracker) Record(entry domain.HistoryEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	t.trimLocked()
}

// Recent returns up to max entries, most recent first. The result is a
// snapshot copy; callers may retain it without holding up writers.
func (t *Tracker) Recent(max int) []domain.HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if max <= 0 || max > len(t.entries) {
		max = len(t.entries)
	}
	out := make([]domain.HistoryEntry, 0, max)
	for i := len(t.entries) - 1; i >= 0 && len(out) < max; i-- {
		out = append(out, t.entries[i])
	}
	return out
}

// ForFile returns up to max entries whose FilePath matches path exactly,
// most recent first.
func (t *Tracker) ForFile(path string, max int) []domain.HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if max <= 0 {
		max = len(t.entries)
	}
	out := make([]domain.HistoryEntry, 0, max)
	for i := len(t.entries) - 1; i >= 0 && len(out) < max; i-- {
		if t.entries[i].FilePath == path {
			out = append(out, t.entries[i])
		}
	}
	return out
}

// SetMaxDepth changes the bound. Shrinking drops the oldest entries
// immediately; growing never recovers entries already dropped.
func (t *Tracker) SetMaxDepth(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxDepth = n
	t.trimLocked()
}

// Clear drops all entries.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Len reports the current entry count.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) trimLocked() {
	if overflow := len(t.entries) - t.maxDepth; overflow > 0 {
		t.entries = append([]domain.HistoryEntry(nil), t.entries[overflow:]...)
	}
}

var _ ports.PositionTracker = (*Tracker)(nil)

// Package debounce implements the keyed coalescing scheduler that gates all
// traffic toward the inference backend.
//
// Each key (typically a file path) has at most one pending or in-flight unit
// of work. Scheduling a new unit for a key cancels and replaces the old one
// atomically, so a burst of requests within the delay window collapses into a
// single execution carrying the last caller's arguments.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/doeshing/suggest-go/internal/ports"
)

// ErrEmptyKey is returned when Schedule is called without a key.
var ErrEmptyKey = errors.New("debounce: key must not be empty")

// ErrNegativeDelay is returned when Schedule is called with a negative delay.
var ErrNegativeDelay = errors.New("debounce: delay must be >= 0")

type entry struct {
	cancel context.CancelFunc
}

// Scheduler coalesces bursts of keyed work. The zero value is not usable;
// construct with NewScheduler.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*entry
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]*entry)}
}

// Schedule waits delay, then runs fn unless the entry was cancelled first.
// Cancellation comes from two composed sources: a newer Schedule call for the
// same key, or the caller-supplied ctx. Either terminates the wait without
// running fn.
//
// Schedule blocks until the unit finishes or is cancelled. Superseded and
// cancelled callers get a nil error and must treat the call as "no result";
// only the winning invocation observes an error from fn. Cancellation inside
// fn itself is likewise swallowed.
func (s *Scheduler) Schedule(ctx context.Context, key string, delay time.Duration, fn func(context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	if delay < 0 {
		return ErrNegativeDelay
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e := &entry{cancel: cancel}

	s.mu.Lock()
	if old, ok := s.pending[key]; ok {
		old.cancel()
	}
	s.pending[key] = e
	s.mu.Unlock()

	defer s.release(key, e)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-runCtx.Done():
		return nil
	}

	err := fn(runCtx)
	if err == nil {
		return nil
	}
	if runCtx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Cancel aborts the pending or in-flight unit for key, if any.
// Idempotent; returns true when an entry was actually cancelled.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[key]; ok {
		e.cancel()
		delete(s.pending, key)
		return true
	}
	return false
}

// CancelAll aborts every live entry. Safe to call during teardown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.pending {
		e.cancel()
		delete(s.pending, key)
	}
}

// PendingCount reports live (non-finished, non-cancelled) entries. Meant for
// backpressure observation, not control flow.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

var _ ports.Scheduler = (*Scheduler)(nil)

// release removes e from the map unless a newer entry already replaced it.
func (s *Scheduler) release(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.pending[key]; ok && current == e {
		delete(s.pending, key)
	}
}

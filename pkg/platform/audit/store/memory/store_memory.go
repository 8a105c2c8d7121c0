package memory

import (
	"context"
	"sync"

	"attestgate/pkg/platform/audit"
)

// Store is an in-memory audit sink for tests and local development.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

// New creates an empty in-memory audit store.
func New() *Store {
	return &Store{}
}

// Append records the event.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Emit satisfies audit.Publisher so tests can use the store directly as a
// synchronous publisher.
func (s *Store) Emit(ctx context.Context, event audit.Event) error {
	return s.Append(ctx, event)
}

// Events returns a copy of everything recorded so far.
func (s *Store) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByAction filters recorded events by action name.
func (s *Store) ByAction(action audit.AuditEvent) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == string(action) {
			out = append(out, e)
		}
	}
	return out
}

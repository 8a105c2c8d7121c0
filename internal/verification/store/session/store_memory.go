package session

import (
	"context"
	"sync"
	"time"

	"attestgate/internal/verification/models"
	"attestgate/pkg/platform/sentinel"
)

type entry struct {
	session   models.Session
	expiresAt time.Time
}

// InMemoryStore mirrors RedisStore semantics, TTL expiry included, for
// tests and Redis-less deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

// NewInMemoryStore creates an empty session store with the given TTL.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *InMemoryStore) Put(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Ref] = entry{session: session, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ref string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[ref]
	if !ok || s.now().After(e.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	session := e.session
	return &session, nil
}

func (s *InMemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[ref]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.sessions, ref)
		return sentinel.ErrNotFound
	}
	delete(s.sessions, ref)
	return nil
}

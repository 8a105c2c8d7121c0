package store

import (
	"context"
	"sync"

	"attestgate/internal/secrets/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// InMemoryStore is the test double for the secret store. Semantics mirror
// the Postgres store exactly, including the conflict-on-duplicate and
// not-found-on-missing behavior the orchestrator depends on.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.SubjectID]models.SecretRecord
}

// NewInMemoryStore creates an empty in-memory secret store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.SubjectID]models.SecretRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record models.SecretRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.SubjectID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.SubjectID] = record
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subjectID domain.SubjectID) (*models.SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *InMemoryStore) Delete(_ context.Context, subjectID domain.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[subjectID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, subjectID)
	return nil
}

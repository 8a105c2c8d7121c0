package store

import (
	"context"
	"sync"

	"attestgate/internal/account/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// InMemoryStore is the test double for the account store.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[domain.SubjectID]models.Account
}

// NewInMemoryStore creates an empty in-memory account store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[domain.SubjectID]models.Account)}
}

func (s *InMemoryStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.SubjectID]; exists {
		return sentinel.ErrConflict
	}
	s.accounts[account.SubjectID] = account
	return nil
}

func (s *InMemoryStore) GetBySubject(_ context.Context, subjectID domain.SubjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (s *InMemoryStore) GetByAuthID(_ context.Context, authID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.AuthID == authID {
			copied := account
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, subjectID domain.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[subjectID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.accounts, subjectID)
	return nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"attestgate/internal/payments/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// InMemoryStore is the test double for the payment ledger.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]models.PaymentEvent
}

// NewInMemoryStore creates an empty in-memory payment ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string]models.PaymentEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, event models.PaymentEvent) (models.PaymentEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = ulid.Make().String()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id string) (*models.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := event
	return &copied, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]models.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.PaymentEvent
	for _, event := range s.events {
		if event.SubjectRef != nil && *event.SubjectRef == subjectID {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })
	return events, nil
}

func (s *InMemoryStore) AnonymizeForSubject(_ context.Context, subjectID domain.SubjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, event := range s.events {
		if event.SubjectRef != nil && *event.SubjectRef == subjectID {
			event.SubjectRef = nil
			s.events[id] = event
			count++
		}
	}
	return count, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"attestgate/internal/ledger/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

// InMemoryStore is the test double for the compliance event ledger. It keeps
// the same anonymization semantics as the Postgres store: only the subject
// foreign key changes, everything else on the row is frozen.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]models.ComplianceEvent
}

// NewInMemoryStore creates an empty in-memory ledger.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string]models.ComplianceEvent)}
}

func (s *InMemoryStore) Append(_ context.Context, event models.ComplianceEvent) (models.ComplianceEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = ulid.Make().String()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id string) (*models.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := event
	return &copied, nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID domain.SubjectID) ([]models.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.ComplianceEvent
	for _, event := range s.events {
		if event.SubjectRef != nil && *event.SubjectRef == subjectID {
			events = append(events, event)
		}
	}
	sortNewestFirst(events)
	return events, nil
}

func (s *InMemoryStore) ListByCounterparty(_ context.Context, counterpartyID domain.CounterpartyID) ([]models.ComplianceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []models.ComplianceEvent
	for _, event := range s.events {
		if event.CounterpartyRef != nil && *event.CounterpartyRef == counterpartyID {
			events = append(events, event)
		}
	}
	sortNewestFirst(events)
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

// sortNewestFirst orders by ID descending; ULIDs sort lexically by time.
func sortNewestFirst(events []models.ComplianceEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].ID > events[j].ID
	})
}

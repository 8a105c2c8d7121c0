package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestgate/internal/ledger/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

func newEvent(subject domain.SubjectID, counterparty domain.CounterpartyID) models.ComplianceEvent {
	return models.ComplianceEvent{
		SubjectRef:                &subject,
		CounterpartyRef:           &counterparty,
		SubjectReferenceCode:      domain.SubjectReferenceCode(subject),
		CounterpartyReferenceCode: domain.CounterpartyReferenceCode(counterparty),
		VerificationPayload: map[string]any{
			"age_commitment":     "aa11",
			"address_commitment": "bb22",
		},
		AgeVerified:     true,
		AddressVerified: true,
	}
}

func TestInMemoryStore_AppendAssignsOrderedIDs(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	subject := domain.NewSubjectID()
	counterparty := domain.NewCounterpartyID()

	first, err := s.Append(ctx, newEvent(subject, counterparty))
	require.NoError(t, err)
	second, err := s.Append(ctx, newEvent(subject, counterparty))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	// Newest first.
	events, err := s.ListBySubject(ctx, subject)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.GreaterOrEqual(t, events[0].ID, events[1].ID)
}

func TestInMemoryStore_ListByCounterparty(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	counterparty := domain.NewCounterpartyID()

	_, err := s.Append(ctx, newEvent(domain.NewSubjectID(), counterparty))
	require.NoError(t, err)
	_, err = s.Append(ctx, newEvent(domain.NewSubjectID(), domain.NewCounterpartyID()))
	require.NoError(t, err)

	events, err := s.ListByCounterparty(ctx, counterparty)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestInMemoryStore_AnonymizePreservesAuditTrail(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	subject := domain.NewSubjectID()
	counterparty := domain.NewCounterpartyID()

	stored, err := s.Append(ctx, newEvent(subject, counterparty))
	require.NoError(t, err)

	count, err := s.AnonymizeForSubject(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The row stays retrievable by ID with everything intact except the
	// subject foreign key.
	got, err := s.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SubjectRef)
	assert.Equal(t, stored.SubjectReferenceCode, got.SubjectReferenceCode)
	assert.Equal(t, stored.VerificationPayload, got.VerificationPayload)
	assert.True(t, got.AgeVerified)
	assert.True(t, got.AddressVerified)
	assert.NotNil(t, got.CounterpartyRef)

	// The subject listing no longer finds it.
	events, err := s.ListBySubject(ctx, subject)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Re-running anonymization touches nothing.
	count, err = s.AnonymizeForSubject(ctx, subject)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.GetByID(context.Background(), "01J00000000000000000000000")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

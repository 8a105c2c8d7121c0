package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestgate/internal/secrets/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

func testRecord(subject domain.SubjectID) models.SecretRecord {
	return models.SecretRecord{
		SubjectID:                   subject,
		EncryptedIdentityAttributes: []byte{0x01, 0x02},
		EncryptedCredentialBundle:   []byte{0x03, 0x04},
		EncryptionKeyID:             "key-1",
		VerificationSessionRef:      "inq_123",
		CreatedAt:                   time.Now().UTC(),
	}
}

func TestInMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	subject := domain.NewSubjectID()

	require.NoError(t, s.Create(ctx, testRecord(subject)))

	got, err := s.Get(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, subject, got.SubjectID)
	assert.Equal(t, "key-1", got.EncryptionKeyID)
}

func TestInMemoryStore_DuplicateCreateConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	subject := domain.NewSubjectID()

	require.NoError(t, s.Create(ctx, testRecord(subject)))
	err := s.Create(ctx, testRecord(subject))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	subject := domain.NewSubjectID()

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, testRecord(subject)))
		require.NoError(t, s.Delete(ctx, subject))

		_, err := s.Get(ctx, subject)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		err := s.Delete(ctx, subject)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(context.Background(), domain.NewSubjectID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

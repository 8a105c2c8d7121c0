package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attestgate/internal/verification/models"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	newSession := func() models.Session {
		return models.Session{
			Ref:            "inq_abc123",
			SubjectID:      domain.NewSubjectID(),
			CounterpartyID: domain.NewCounterpartyID(),
			CreatedAt:      time.Now().UTC(),
		}
	}

	t.Run("put then get round-trips", func(t *testing.T) {
		store := NewInMemoryStore(time.Minute)
		want := newSession()
		require.NoError(t, store.Put(ctx, want))

		got, err := store.Get(ctx, want.Ref)
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	})

	t.Run("unknown ref is not found", func(t *testing.T) {
		store := NewInMemoryStore(time.Minute)
		_, err := store.Get(ctx, "inq_missing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("expired session is not found", func(t *testing.T) {
		store := NewInMemoryStore(time.Minute)
		clock := time.Now()
		store.now = func() time.Time { return clock }

		require.NoError(t, store.Put(ctx, newSession()))

		clock = clock.Add(2 * time.Minute)
		_, err := store.Get(ctx, "inq_abc123")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete removes the session", func(t *testing.T) {
		store := NewInMemoryStore(time.Minute)
		want := newSession()
		require.NoError(t, store.Put(ctx, want))
		require.NoError(t, store.Delete(ctx, want.Ref))

		_, err := store.Get(ctx, want.Ref)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, want.Ref), sentinel.ErrNotFound)
	})
}

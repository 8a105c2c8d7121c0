//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attestgate/internal/verification/models"
	"attestgate/internal/verification/store/session"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/sentinel"
	"attestgate/pkg/testutil/containers"
)

type SessionRedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestSessionRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SessionRedisSuite))
}

func (s *SessionRedisSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedisStore(s.redis.Client, 30*time.Minute)
}

func (s *SessionRedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *SessionRedisSuite) session(ref string) models.Session {
	return models.Session{
		Ref:            ref,
		SubjectID:      domain.NewSubjectID(),
		CounterpartyID: domain.NewCounterpartyID(),
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func (s *SessionRedisSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	sess := s.session("inq-roundtrip")

	s.Require().NoError(s.store.Put(ctx, sess))

	got, err := s.store.Get(ctx, sess.Ref)
	s.Require().NoError(err)
	s.Equal(sess.Ref, got.Ref)
	s.Equal(sess.SubjectID, got.SubjectID)
	s.Equal(sess.CounterpartyID, got.CounterpartyID)
	s.True(sess.CreatedAt.Equal(got.CreatedAt))
}

func (s *SessionRedisSuite) TestPutReplacesExisting() {
	ctx := context.Background()
	first := s.session("inq-replace")
	s.Require().NoError(s.store.Put(ctx, first))

	second := s.session("inq-replace")
	s.Require().NoError(s.store.Put(ctx, second))

	got, err := s.store.Get(ctx, "inq-replace")
	s.Require().NoError(err)
	s.Equal(second.SubjectID, got.SubjectID)
}

func (s *SessionRedisSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "inq-unknown")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionRedisSuite) TestExpiry() {
	ctx := context.Background()
	short := session.NewRedisStore(s.redis.Client, 100*time.Millisecond)
	sess := s.session("inq-expiring")

	s.Require().NoError(short.Put(ctx, sess))
	_, err := short.Get(ctx, sess.Ref)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	_, err = short.Get(ctx, sess.Ref)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *SessionRedisSuite) TestDelete() {
	ctx := context.Background()
	sess := s.session("inq-delete")
	s.Require().NoError(s.store.Put(ctx, sess))

	s.Require().NoError(s.store.Delete(ctx, sess.Ref))

	_, err := s.store.Get(ctx, sess.Ref)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(ctx, sess.Ref), sentinel.ErrNotFound)
}

// Package session stores verification inquiry sessions. Redis is the
// production backend because sessions are short-lived and TTL-expired; the
// in-memory store backs tests and Redis-less deployments.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"attestgate/internal/verification/models"
	"attestgate/pkg/platform/sentinel"
)

const keyPrefix = "verification:session:"

// RedisStore keeps sessions in Redis with a per-record TTL.
type RedisStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a session store over the given Redis client.
func NewRedisStore(client goredis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Put stores the session under its ref, replacing any previous value and
// resetting the TTL.
func (s *RedisStore) Put(ctx context.Context, session models.Session) error {
	if session.Ref == "" {
		return fmt.Errorf("session ref required")
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+session.Ref, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns the session for ref, or sentinel.ErrNotFound when it never
// existed or has expired.
func (s *RedisStore) Get(ctx context.Context, ref string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+ref).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session. Deleting an absent session returns
// sentinel.ErrNotFound.
func (s *RedisStore) Delete(ctx context.Context, ref string) error {
	n, err := s.client.Del(ctx, keyPrefix+ref).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

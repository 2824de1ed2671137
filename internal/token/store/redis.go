// Package store provides the redis-backed refresh token store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentstack/rentstack/internal/token/domain"
)

const keyPrefix = "token:refresh:"

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) domain.Store {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, jti, identity string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+jti, identity, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Consume removes the jti and returns its identity in one GETDEL round trip.
// Of two concurrent refreshes only one sees the value; the other gets
// ErrTokenRevoked.
func (s *redisStore) Consume(ctx context.Context, jti string) (string, error) {
	identity, err := s.client.GetDel(ctx, keyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrTokenRevoked
	}
	if err != nil {
		return "", fmt.Errorf("consume refresh token: %w", err)
	}
	return identity, nil
}

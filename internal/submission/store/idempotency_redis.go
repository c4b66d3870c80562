package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "govnav:submission:idem:"

// RedisIdempotencyStore holds submission reservations in Redis so concurrent
// replicas share one lock space. SET NX carries the TTL atomically.
type RedisIdempotencyStore struct {
	client redis.Cmdable
}

// NewRedisIdempotency wraps an existing Redis client.
func NewRedisIdempotency(client redis.Cmdable) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve submission key: %w", err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release submission key: %w", err)
	}
	return nil
}

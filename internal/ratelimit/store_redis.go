package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares attempt windows across instances. The window starts
// with the first attempt: the key's expiry is set only when INCR creates it.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, time.Duration, error) {
	k := s.prefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, ttl)
	left := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis increment attempts: %w", err)
	}
	return int(incr.Val()), max(left.Val(), 0), nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis clear attempts: %w", err)
	}
	return nil
}

package numbering

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces counter keys.
const DefaultRedisPrefix = "gstbook:invoice-seq:"

// RedisStore keeps counters in redis and increments them with INCR.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Next increments the counter for key.
func (s *RedisStore) Next(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis INCR %s: %w", s.prefix+key, err)
	}
	return n, nil
}

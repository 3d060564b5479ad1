package currency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache shares the rate table between processes through redis.
// Redis failures are logged and bypassed; only upstream errors are returned.
type RedisCache struct {
	rdb  *redis.Client
	key  string
	ttl  time.Duration
	next Provider
	log  zerolog.Logger
}

// NewRedisCache wraps next with a redis-backed cache stored under key.
func NewRedisCache(rdb *redis.Client, key string, ttl time.Duration, next Provider, log zerolog.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, key: key, ttl: ttl, next: next, log: log}
}

// Rates returns the cached table or fetches and stores a fresh one.
func (c *RedisCache) Rates(ctx context.Context) (RateTable, error) {
	val, err := c.rdb.Get(ctx, c.key).Result()
	switch {
	case err == nil:
		var table RateTable
		if jsonErr := json.Unmarshal([]byte(val), &table); jsonErr == nil && len(table) > 0 {
			return table, nil
		}
		c.log.Debug().Str("key", c.key).Msg("discarding unreadable cached rate table")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Debug().Err(err).Msg("rate cache unavailable")
	}

	table, err := c.next.Rates(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(table)
	if err == nil {
		if setErr := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); setErr != nil {
			c.log.Debug().Err(setErr).Msg("storing rate table in cache")
		}
	}
	return table, nil
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish them from a missing record.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStorage persists the session record in Redis. It is the backend for
// hosts that share one dashboard session across processes; records carry no
// TTL because expiry is a server-side decision, not a cache policy.
type RedisStorage struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStorage creates a [RedisStorage] namespaced under prefix.
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "sesskit"
	}
	return &RedisStorage{redis: client, prefix: prefix}
}

func (r *RedisStorage) key(name string) string {
	return r.prefix + ":" + name
}

func (r *RedisStorage) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

func (r *RedisStorage) Save(ctx context.Context, name string, data []byte) error {
	if err := r.redis.Set(ctx, r.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

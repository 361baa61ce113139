package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithExpiry performs increment-and-expire as one atomic server-side
// operation. EXPIRE runs only when the key has no TTL yet, i.e. the
// increment created it, so later increments never extend the window.
var incrWithExpiry = redis.NewScript(`
local total = redis.call('INCRBY', KEYS[1], ARGV[1])
if redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return total
`)

// RedisStore shared counter storage on Redis.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates Redis-backed counter storage.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "quotaflow:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) buildKey(key string) string {
	return s.keyPrefix + key
}

// Get returns the current value, 0 when the key does not exist.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, s.buildKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: redis get: %v", ErrStoreUnavailable, err)
	}
	return val, nil
}

// IncrBy atomically adds amount, setting the TTL only when the increment
// creates the key.
func (s *RedisStore) IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	total, err := incrWithExpiry.Run(ctx, s.client, []string{s.buildKey(key)}, amount, seconds).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: redis incrby: %v", ErrStoreUnavailable, err)
	}
	return total, nil
}

// Del removes counters.
func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = s.buildKey(key)
	}
	if err := s.client.Del(ctx, fullKeys...).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}

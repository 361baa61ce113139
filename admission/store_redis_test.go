package admission

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a miniredis instance for testing
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisStore(client, "quotaflow:")
}

func TestRedisStore_GetAbsent(t *testing.T) {
	_, store := setupMiniRedis(t)

	ctx := context.Background()

	val, err := store.Get(ctx, "nonexistent")
	require.NoError(t, err)
	assert.EqualValues(t, 0, val)
}

func TestRedisStore_IncrByCreatesWithTTL(t *testing.T) {
	mr, store := setupMiniRedis(t)

	ctx := context.Background()

	total, err := store.IncrBy(ctx, "k", 1, 60*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	assert.Equal(t, 60*time.Second, mr.TTL("quotaflow:k"))

	total, err = store.IncrBy(ctx, "k", 4, 60*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 5, val)
}

func TestRedisStore_TTLNotRefreshedByIncrement(t *testing.T) {
	mr, store := setupMiniRedis(t)

	ctx := context.Background()

	_, err := store.IncrBy(ctx, "k", 1, 60*time.Second)
	require.NoError(t, err)

	mr.FastForward(30 * time.Second)

	_, err = store.IncrBy(ctx, "k", 1, 60*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, mr.TTL("quotaflow:k"),
		"second increment must not extend the window")
}

func TestRedisStore_WindowExpiry(t *testing.T) {
	mr, store := setupMiniRedis(t)

	ctx := context.Background()

	_, err := store.IncrBy(ctx, "k", 5, 60*time.Second)
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, val)

	total, err := store.IncrBy(ctx, "k", 1, 60*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "fresh window restarts the counter")
	assert.Equal(t, 60*time.Second, mr.TTL("quotaflow:k"))
}

func TestRedisStore_Del(t *testing.T) {
	_, store := setupMiniRedis(t)

	ctx := context.Background()

	_, err := store.IncrBy(ctx, "k", 1, 60*time.Second)
	require.NoError(t, err)

	require.NoError(t, store.Del(ctx, "k"))

	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, val)
}

func TestRedisStore_UnavailableBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	store := NewRedisStore(client, "quotaflow:")

	mr.Close()

	ctx := context.Background()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = store.IncrBy(ctx, "k", 1, time.Minute)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRedisStore_MinimumTTL(t *testing.T) {
	mr, store := setupMiniRedis(t)

	ctx := context.Background()

	// sub-second TTLs round up to 1s so EXPIRE never receives 0
	_, err := store.IncrBy(ctx, "k", 1, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, time.Second, mr.TTL("quotaflow:k"))
}

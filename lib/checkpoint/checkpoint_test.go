package checkpoint

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/dimload/lib/config"
)

func testStore(t *testing.T, store Store) {
	ctx := t.Context()

	_, ok, err := store.Get(ctx, "load-1", "dim_date")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Set(ctx, "load-1", "dim_date", 2))
	assert.NoError(t, store.Set(ctx, "load-1", "dim_date", 3))
	assert.NoError(t, store.Set(ctx, "load-2", "dim_date", 7))

	nextChunk, ok, err := store.Get(ctx, "load-1", "dim_date")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, nextChunk)

	nextChunk, ok, err = store.Get(ctx, "load-2", "dim_date")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, nextChunk)

	_, ok, err = store.Get(ctx, "load-1", "dim_employee")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Hour)
	defer store.Close()

	testStore(t, store)
	assert.Equal(t, "3", mustGet(t, mr, "dimload:checkpoint:load-1:dim_date"))

	// Checkpoints expire.
	mr.FastForward(2 * time.Hour)
	_, ok, err := store.Get(t.Context(), "load-1", "dim_date")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	value, err := mr.Get(key)
	require.NoError(t, err)
	return value
}

func TestLoad(t *testing.T) {
	{
		// In memory
		store, err := Load(t.Context(), config.Checkpoint{})
		assert.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	}
	{
		// Redis
		mr := miniredis.RunT(t)
		store, err := Load(t.Context(), config.Checkpoint{Redis: &config.Redis{Address: mr.Addr()}, TTLSeconds: 60})
		assert.NoError(t, err)
		assert.IsType(t, &RedisStore{}, store)
		assert.NoError(t, store.Close())
	}
	{
		// Unreachable
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := Load(t.Context(), config.Checkpoint{Redis: &config.Redis{Address: addr}})
		assert.ErrorContains(t, err, "failed to connect to redis")
	}
}

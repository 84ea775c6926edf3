package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps every checkpoint for [ttl] after it was last written.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, loadID, table string) (int, bool, error) {
	nextChunk, err := r.client.Get(ctx, key(loadID, table)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("failed to read checkpoint of %q: %w", table, err)
	}

	return nextChunk, true, nil
}

func (r *RedisStore) Set(ctx context.Context, loadID, table string, nextChunk int) error {
	if err := r.client.Set(ctx, key(loadID, table), nextChunk, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write checkpoint of %q: %w", table, err)
	}

	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

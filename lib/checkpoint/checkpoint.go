package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/artie-labs/dimload/lib/config"
)

// Store remembers, per load and table, the first chunk that has not been committed yet.
type Store interface {
	// Get returns the next chunk to load, false when the table has no checkpoint.
	Get(ctx context.Context, loadID, table string) (int, bool, error)
	Set(ctx context.Context, loadID, table string, nextChunk int) error
	Close() error
}

func key(loadID, table string) string {
	return fmt.Sprintf("dimload:checkpoint:%s:%s", loadID, table)
}

// Load returns a Redis backed store when one is configured, otherwise checkpoints only live as long as the process.
func Load(ctx context.Context, cfg config.Checkpoint) (Store, error) {
	if cfg.Redis == nil {
		return NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %q: %w", cfg.Redis.Address, err)
	}

	return NewRedisStore(client, cfg.TTL()), nil
}

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]int)}
}

func (m *MemoryStore) Get(_ context.Context, loadID, table string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nextChunk, ok := m.data[key(loadID, table)]
	return nextChunk, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, loadID, table string, nextChunk int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key(loadID, table)] = nextChunk
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

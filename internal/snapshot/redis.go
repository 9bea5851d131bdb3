package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/orders"
	"github.com/zaffran-mart/zaffran-mart/internal/store"
)

// RedisStore keeps one JSON value per collection key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs the store. Prefix namespaces the keys, e.g.
// "mart" yields "mart:products".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "mart"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) save(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("snapshot: set %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, name string, target any) error {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot: get %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("snapshot: unmarshal %s: %w", name, err)
	}
	return nil
}

// Load implements Store. Missing keys yield zero values.
func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := s.load(ctx, keyProducts, &snap.Products); err != nil {
		return Snapshot{}, err
	}
	if err := s.load(ctx, keyInventoryLogs, &snap.InventoryLogs); err != nil {
		return Snapshot{}, err
	}
	if err := s.load(ctx, keyOrders, &snap.Orders); err != nil {
		return Snapshot{}, err
	}
	var state storeState
	if err := s.load(ctx, keyStore, &state); err != nil {
		return Snapshot{}, err
	}
	snap.StoreInfo = state.Info
	snap.StoreLogs = state.Logs
	return snap, nil
}

// SaveProducts implements Store.
func (s *RedisStore) SaveProducts(ctx context.Context, products []catalog.Product) error {
	return s.save(ctx, keyProducts, products)
}

// SaveInventoryLogs implements Store.
func (s *RedisStore) SaveInventoryLogs(ctx context.Context, logs []catalog.LogEntry) error {
	return s.save(ctx, keyInventoryLogs, logs)
}

// SaveOrders implements Store.
func (s *RedisStore) SaveOrders(ctx context.Context, list []orders.Order) error {
	return s.save(ctx, keyOrders, list)
}

// SaveStore implements Store.
func (s *RedisStore) SaveStore(ctx context.Context, info store.Info, logs []store.LogEntry) error {
	return s.save(ctx, keyStore, storeState{Info: info, Logs: logs})
}

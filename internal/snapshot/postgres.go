package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/orders"
	"github.com/zaffran-mart/zaffran-mart/internal/store"
)

// PostgresStore keeps one jsonb row per collection key in a single table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store and ensures the snapshots table
// exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: ensure table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) save(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s: %w", name, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		name, data)
	if err != nil {
		if code := pgErrCode(err); code != "" {
			return fmt.Errorf("snapshot: upsert %s: %s: %w", name, code, err)
		}
		return fmt.Errorf("snapshot: upsert %s: %w", name, err)
	}
	return nil
}

// pgErrCode extracts the server error code from a pgx error chain, if any.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (s *PostgresStore) load(ctx context.Context, name string, target any) error {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM snapshots WHERE key = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot: select %s: %w", name, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("snapshot: unmarshal %s: %w", name, err)
	}
	return nil
}

// Load implements Store. Missing rows yield zero values.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
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
func (s *PostgresStore) SaveProducts(ctx context.Context, products []catalog.Product) error {
	return s.save(ctx, keyProducts, products)
}

// SaveInventoryLogs implements Store.
func (s *PostgresStore) SaveInventoryLogs(ctx context.Context, logs []catalog.LogEntry) error {
	return s.save(ctx, keyInventoryLogs, logs)
}

// SaveOrders implements Store.
func (s *PostgresStore) SaveOrders(ctx context.Context, list []orders.Order) error {
	return s.save(ctx, keyOrders, list)
}

// SaveStore implements Store.
func (s *PostgresStore) SaveStore(ctx context.Context, info store.Info, logs []store.LogEntry) error {
	return s.save(ctx, keyStore, storeState{Info: info, Logs: logs})
}

// Package snapshot implements the persistence gateway: whole-collection
// snapshots written after every state-mutating call, one key per
// collection, each write idempotent and overwriting the prior value.
package snapshot

import (
	"context"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/orders"
	"github.com/zaffran-mart/zaffran-mart/internal/store"
)

// Snapshot is everything the engine loads at startup.
type Snapshot struct {
	Products      []catalog.Product  `json:"products"`
	InventoryLogs []catalog.LogEntry `json:"inventory_logs"`
	Orders        []orders.Order     `json:"orders"`
	StoreInfo     store.Info         `json:"store_info"`
	StoreLogs     []store.LogEntry   `json:"store_logs"`
}

// storeState bundles the two store keys into one persisted value.
type storeState struct {
	Info store.Info       `json:"info"`
	Logs []store.LogEntry `json:"logs"`
}

// Store is the save/load contract. Implementations satisfy the per-module
// snapshot ports (catalog.SnapshotPort, orders.SnapshotPort,
// store.SnapshotPort).
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	SaveProducts(ctx context.Context, products []catalog.Product) error
	SaveInventoryLogs(ctx context.Context, logs []catalog.LogEntry) error
	SaveOrders(ctx context.Context, orders []orders.Order) error
	SaveStore(ctx context.Context, info store.Info, logs []store.LogEntry) error
}

const (
	keyProducts      = "products"
	keyInventoryLogs = "inventory_logs"
	keyOrders        = "orders"
	keyStore         = "store"
)

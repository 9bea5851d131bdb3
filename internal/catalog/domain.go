package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StockStatus classifies a product's quantity relative to its threshold.
type StockStatus string

const (
	StockStatusIn  StockStatus = "in_stock"
	StockStatusLow StockStatus = "low_stock"
	StockStatusOut StockStatus = "out_of_stock"
)

// ActionType enumerates the causes of an inventory mutation.
type ActionType string

const (
	ActionOrderPlaced      ActionType = "order_placed"
	ActionOrderCancelled   ActionType = "order_cancelled"
	ActionOrderReturned    ActionType = "order_returned"
	ActionManualAdjustment ActionType = "manual_adjustment"
	ActionAdminOverride    ActionType = "admin_override"
	ActionPaymentFailed    ActionType = "payment_failed"
)

// Product is the ledger's authoritative view of one catalog entry.
// Quantity and ReservedQuantity are non-negative; StockStatus and
// IsAvailable are derived and recomputed after every mutation.
type Product struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Category          string      `json:"category"`
	Price             float64     `json:"price"`
	CostPrice         float64     `json:"cost_price"`
	Unit              string      `json:"unit"`
	Quantity          int         `json:"quantity"`
	ReservedQuantity  int         `json:"reserved_quantity"`
	LowStockThreshold int         `json:"low_stock_threshold"`
	StockStatus       StockStatus `json:"stock_status"`
	IsAvailable       bool        `json:"is_available"`
	ManuallyDisabled  bool        `json:"manually_disabled,omitempty"`
	StatusReason      string      `json:"status_reason,omitempty"`
	LastUpdated       time.Time   `json:"last_updated"`
}

// Available is the quantity not held by reservations.
func (p Product) Available() int {
	return p.Quantity - p.ReservedQuantity
}

// LogEntry records one atomic quantity mutation.
// Invariant: NewQuantity - PreviousQuantity == QuantityChanged.
type LogEntry struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"product_id"`
	ProductName      string     `json:"product_name"`
	OrderID          string     `json:"order_id,omitempty"`
	Action           ActionType `json:"action_type"`
	QuantityChanged  int        `json:"quantity_changed"`
	PreviousQuantity int        `json:"previous_quantity"`
	NewQuantity      int        `json:"new_quantity"`
	Timestamp        time.Time  `json:"timestamp"`
	Reason           string     `json:"reason,omitempty"`
	PerformedBy      string     `json:"performed_by,omitempty"`
}

// Item references a quantity of one product, as carried by orders.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ErrProductNotFound indicates an unknown product id.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrInvalidQuantity indicates a negative quantity input.
var ErrInvalidQuantity = errors.New("catalog: quantity must be >= 0")

// InsufficientStockError collects per-item validation failures.
type InsufficientStockError struct {
	Items []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock: %s", strings.Join(e.Items, "; "))
}

// CalculateStockStatus derives the stock status from quantity and threshold.
func CalculateStockStatus(quantity, lowStockThreshold int) StockStatus {
	switch {
	case quantity == 0:
		return StockStatusOut
	case quantity <= lowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

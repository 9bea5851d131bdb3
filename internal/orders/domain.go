package orders

import (
	"errors"
	"time"
)

// Status enumerates order lifecycle states. The active chain is linear and
// forward-only; Cancelled and Rejected are reachable from any state.
type Status string

const (
	StatusNew       Status = "New"
	StatusAccepted  Status = "Accepted"
	StatusPacked    Status = "Packed"
	StatusPicked    Status = "Picked"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
	StatusRejected  Status = "Rejected"
)

// statusRank orders the active chain for the forward-only check.
var statusRank = map[Status]int{
	StatusNew:       0,
	StatusAccepted:  1,
	StatusPacked:    2,
	StatusPicked:    3,
	StatusDelivered: 4,
}

// IsTerminalCancel reports whether the status is Cancelled or Rejected.
func (s Status) IsTerminalCancel() bool {
	return s == StatusCancelled || s == StatusRejected
}

// Known reports whether the status belongs to the state machine.
func (s Status) Known() bool {
	if s.IsTerminalCancel() {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// PaymentType distinguishes cash-on-delivery from online payment.
type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

// PaymentStatus tracks online payment progress.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// OrderItem is an immutable snapshot of one ordered line. Price is the
// unit price at the time the order was placed.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Order is a permanent record. Items are set once at creation; only
// Status, PaymentStatus and CancellationReason change afterwards.
type Order struct {
	ID                 string        `json:"id"`
	CustomerName       string        `json:"customer_name"`
	CustomerPhone      string        `json:"customer_phone"`
	CustomerAddress    string        `json:"customer_address"`
	Date               time.Time     `json:"date"`
	Total              float64       `json:"total"`
	Status             Status        `json:"status"`
	PaymentType        PaymentType   `json:"payment_type"`
	PaymentStatus      PaymentStatus `json:"payment_status,omitempty"`
	Items              []OrderItem   `json:"items"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	IsUrgent           bool          `json:"is_urgent,omitempty"`
}

var (
	// ErrOrderNotFound indicates an unknown order id.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrInvalidTransition indicates a status change the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
	// ErrNoItems indicates an order without line items.
	ErrNoItems = errors.New("orders: order requires at least one item")
)

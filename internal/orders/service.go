package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/notify"
	"github.com/zaffran-mart/zaffran-mart/internal/observability"
)

// StockPort is the slice of the inventory ledger the lifecycle needs.
// Every call is atomic on the ledger side.
type StockPort interface {
	CommitOrder(ctx context.Context, orderID string, items []catalog.Item) ([]catalog.Product, error)
	ReduceStock(ctx context.Context, orderID string, items []catalog.Item) ([]catalog.Product, error)
	RestoreStock(ctx context.Context, orderID string, items []catalog.Item, action catalog.ActionType, reason string) ([]catalog.Product, error)
	Release(ctx context.Context, items []catalog.Item) error
}

// SnapshotPort persists the order book after mutations, best-effort.
type SnapshotPort interface {
	SaveOrders(ctx context.Context, orders []Order) error
}

// Service owns order status transitions and delegates all quantity math
// to the ledger. The service lock serializes transitions per call, which
// keeps the cancel/reactivate stock side effects idempotent.
type Service struct {
	mu       sync.Mutex
	logger   *slog.Logger
	orders   []*Order
	byID     map[string]*Order
	stock    StockPort
	notifier notify.Notifier
	snap     SnapshotPort
	metrics  *observability.Metrics
	now      func() time.Time
	newID    func() string
}

// NewService builds the lifecycle over previously persisted orders.
func NewService(logger *slog.Logger, seed []Order, stock StockPort, notifier notify.Notifier, snap SnapshotPort, metrics *observability.Metrics) *Service {
	s := &Service{
		logger:   logger,
		byID:     make(map[string]*Order),
		stock:    stock,
		notifier: notifier,
		snap:     snap,
		metrics:  metrics,
		now:      time.Now,
		newID:    newOrderID,
	}
	for i := range seed {
		o := seed[i]
		s.orders = append(s.orders, &o)
		s.byID[o.ID] = &o
	}
	return s
}

func newOrderID() string {
	return fmt.Sprintf("ORD-%04d", rand.Intn(9000)+1000)
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	PaymentType     PaymentType
	IsUrgent        bool
	Items           []OrderItem
}

// Create validates stock and commits the deduction atomically, then
// records the order. On validation failure nothing is mutated.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (Order, error) {
	if len(input.Items) == 0 {
		return Order{}, ErrNoItems
	}
	if input.PaymentType != PaymentCOD && input.PaymentType != PaymentOnline {
		return Order{}, fmt.Errorf("orders: unknown payment type %q", input.PaymentType)
	}

	s.mu.Lock()
	id := s.newID()
	for _, exists := s.byID[id]; exists; _, exists = s.byID[id] {
		id = s.newID()
	}

	items := make([]catalog.Item, 0, len(input.Items))
	var total float64
	for _, line := range input.Items {
		items = append(items, catalog.Item{ProductID: line.ProductID, Quantity: line.Quantity})
		total += float64(line.Quantity) * line.Price
	}

	// The ledger validates and reduces under its own lock; holding the
	// order lock across the call keeps creation all-or-nothing from the
	// caller's point of view.
	if _, err := s.stock.CommitOrder(ctx, id, items); err != nil {
		s.mu.Unlock()
		return Order{}, err
	}

	order := Order{
		ID:              id,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		CustomerAddress: input.CustomerAddress,
		Date:            s.now().UTC(),
		Total:           total,
		Status:          StatusNew,
		PaymentType:     input.PaymentType,
		PaymentStatus:   PaymentSuccess,
		Items:           append([]OrderItem(nil), input.Items...),
		IsUrgent:        input.IsUrgent,
	}
	if input.PaymentType == PaymentOnline {
		order.PaymentStatus = PaymentPending
	}
	stored := order
	s.orders = append([]*Order{&stored}, s.orders...)
	s.byID[stored.ID] = &stored
	snapshot := s.copyOrders()
	s.mu.Unlock()

	s.metrics.OrderCreated()
	if s.notifier != nil {
		s.notifier.Notify(ctx, "New Order Received",
			fmt.Sprintf("Order #%s from %s (%s)", order.ID, order.CustomerName, notify.Rupees(order.Total)),
			notify.CategoryOrder)
	}
	s.persist(ctx, snapshot)
	return order, nil
}

// UpdateStatus applies one status transition, classifying it as a
// cancellation, a reactivation or an ordinary move. The stock side effect
// runs at most once per classification, so repeating a call with the same
// target status never double-applies.
func (s *Service) UpdateStatus(ctx context.Context, id string, newStatus Status, reason string) (Order, error) {
	if !newStatus.Known() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	s.mu.Lock()
	order, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	oldStatus := order.Status

	cancellation := newStatus.IsTerminalCancel() && !oldStatus.IsTerminalCancel()
	reactivation := oldStatus.IsTerminalCancel() && !newStatus.IsTerminalCancel()

	if !cancellation && !reactivation && oldStatus != newStatus {
		// Ordinary moves follow the linear chain forward only.
		if statusRank[newStatus] < statusRank[oldStatus] {
			s.mu.Unlock()
			return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, newStatus)
		}
	}

	items := orderItems(order)
	switch {
	case cancellation:
		if _, err := s.stock.RestoreStock(ctx, order.ID, items, catalog.ActionOrderCancelled, reason); err != nil {
			s.mu.Unlock()
			return Order{}, err
		}
		if reason != "" {
			order.CancellationReason = reason
		}
	case reactivation:
		if _, err := s.stock.ReduceStock(ctx, order.ID, items); err != nil {
			s.mu.Unlock()
			return Order{}, err
		}
		order.CancellationReason = ""
	}
	order.Status = newStatus
	updated := *order
	snapshot := s.copyOrders()
	s.mu.Unlock()

	switch {
	case cancellation:
		s.metrics.OrderCancelled()
		if s.notifier != nil {
			desc := fmt.Sprintf("Order #%s was %s", updated.ID, cancelVerb(newStatus))
			if reason != "" {
				desc += ": " + reason
			}
			s.notifier.Notify(ctx, "Order Cancelled", desc, notify.CategoryAlert)
		}
	case oldStatus != newStatus:
		if s.notifier != nil {
			s.notifier.Notify(ctx, "Order Updated",
				fmt.Sprintf("Order #%s is now %s", updated.ID, newStatus), notify.CategoryInfo)
		}
	}
	s.persist(ctx, snapshot)
	return updated, nil
}

// HandlePaymentFailure restores stock, releases any reservation and
// cancels the order. A second call on an already cancelled order is a
// no-op on stock.
func (s *Service) HandlePaymentFailure(ctx context.Context, id string) (Order, error) {
	s.mu.Lock()
	order, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	if order.Status.IsTerminalCancel() {
		current := *order
		s.mu.Unlock()
		return current, nil
	}

	items := orderItems(order)
	if _, err := s.stock.RestoreStock(ctx, order.ID, items, catalog.ActionPaymentFailed, "Payment failed"); err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	if err := s.stock.Release(ctx, items); err != nil {
		s.logger.Warn("release reservation", slog.String("order_id", order.ID), slog.Any("error", err))
	}
	order.PaymentStatus = PaymentFailed
	order.Status = StatusCancelled
	order.CancellationReason = "Payment failed"
	updated := *order
	snapshot := s.copyOrders()
	s.mu.Unlock()

	s.metrics.OrderCancelled()
	if s.notifier != nil {
		s.notifier.Notify(ctx, "Payment Failed",
			fmt.Sprintf("Order #%s was cancelled because payment failed", updated.ID), notify.CategoryAlert)
	}
	s.persist(ctx, snapshot)
	return updated, nil
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return *o, nil
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyOrders()
}

func (s *Service) copyOrders() []Order {
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out
}

func (s *Service) persist(ctx context.Context, snapshot []Order) {
	if s.snap == nil {
		return
	}
	if err := s.snap.SaveOrders(ctx, snapshot); err != nil {
		s.metrics.SnapshotFailure()
		s.logger.Error("persist orders", slog.Any("error", err))
	}
}

func orderItems(o *Order) []catalog.Item {
	items := make([]catalog.Item, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, catalog.Item{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return items
}

func cancelVerb(s Status) string {
	if s == StatusRejected {
		return "rejected"
	}
	return "cancelled"
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
	"github.com/zaffran-mart/zaffran-mart/internal/observability"
)

// SnapshotPort persists ledger state after mutations. Writes are
// best-effort: a failure is reported but never rolls back memory state.
type SnapshotPort interface {
	SaveProducts(ctx context.Context, products []Product) error
	SaveInventoryLogs(ctx context.Context, logs []LogEntry) error
}

// Service is the single source of truth for product quantities and their
// derived status. All mutations take the service lock, so validate+apply
// sequences are atomic with respect to every other caller.
type Service struct {
	mu       sync.Mutex
	logger   *slog.Logger
	products []*Product
	byID     map[string]*Product
	audit    *AuditTrail
	notifier notify.Notifier
	snap     SnapshotPort
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService builds the ledger over previously persisted state. The seed
// slices may be nil for a fresh store.
func NewService(logger *slog.Logger, seed []Product, logs []LogEntry, notifier notify.Notifier, snap SnapshotPort, metrics *observability.Metrics) *Service {
	s := &Service{
		logger:   logger,
		byID:     make(map[string]*Product),
		audit:    NewAuditTrail(logs),
		notifier: notifier,
		snap:     snap,
		metrics:  metrics,
		now:      time.Now,
	}
	for i := range seed {
		p := seed[i]
		s.recompute(&p)
		s.products = append(s.products, &p)
		s.byID[p.ID] = &p
	}
	return s
}

// recompute refreshes the derived fields after a quantity change.
func (s *Service) recompute(p *Product) {
	p.StockStatus = CalculateStockStatus(p.Quantity, p.LowStockThreshold)
	p.IsAvailable = p.StockStatus != StockStatusOut && !p.ManuallyDisabled
	p.LastUpdated = s.now().UTC()
}

type pendingNote struct {
	title    string
	desc     string
	category notify.Category
}

// stockNote reports a threshold crossing worth notifying, if any.
func stockNote(prev StockStatus, p *Product) *pendingNote {
	if p.StockStatus == prev {
		return nil
	}
	switch p.StockStatus {
	case StockStatusOut:
		return &pendingNote{
			title:    "Out of Stock",
			desc:     fmt.Sprintf("%s is now OUT OF STOCK", p.Name),
			category: notify.CategoryAlert,
		}
	case StockStatusLow:
		if prev == StockStatusIn {
			return &pendingNote{
				title:    "Low Stock Alert",
				desc:     fmt.Sprintf("%s is running LOW (%d units remaining)", p.Name, p.Quantity),
				category: notify.CategoryAlert,
			}
		}
	}
	return nil
}

// finish runs the post-mutation side effects outside the critical section.
func (s *Service) finish(ctx context.Context, products []Product, logs []LogEntry, notes []pendingNote) {
	for _, n := range notes {
		if s.notifier != nil {
			s.notifier.Notify(ctx, n.title, n.desc, n.category)
		}
	}
	if s.snap == nil {
		return
	}
	if products != nil {
		if err := s.snap.SaveProducts(ctx, products); err != nil {
			s.metrics.SnapshotFailure()
			s.logger.Error("persist products", slog.Any("error", err))
		}
	}
	if logs != nil {
		if err := s.snap.SaveInventoryLogs(ctx, logs); err != nil {
			s.metrics.SnapshotFailure()
			s.logger.Error("persist inventory logs", slog.Any("error", err))
		}
	}
}

// copyProducts snapshots the catalog for persistence. Caller holds the lock.
func (s *Service) copyProducts() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out
}

// AddProduct registers a new product. A missing id gets generated.
func (s *Service) AddProduct(ctx context.Context, p Product) (Product, error) {
	if p.Quantity < 0 || p.ReservedQuantity < 0 || p.LowStockThreshold < 0 {
		return Product{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, exists := s.byID[p.ID]; exists {
		s.mu.Unlock()
		return Product{}, fmt.Errorf("catalog: product %s already exists", p.ID)
	}
	s.recompute(&p)
	stored := p
	s.products = append(s.products, &stored)
	s.byID[stored.ID] = &stored
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return p, nil
}

// UpdateProduct edits descriptive fields (name, category, prices, unit,
// threshold). Quantity changes must go through AdjustQuantity so every
// mutation is audited.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if p.LowStockThreshold < 0 {
		return Product{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	cur, ok := s.byID[p.ID]
	if !ok {
		s.mu.Unlock()
		return Product{}, ErrProductNotFound
	}
	cur.Name = p.Name
	cur.Category = p.Category
	cur.Price = p.Price
	cur.CostPrice = p.CostPrice
	cur.Unit = p.Unit
	cur.LowStockThreshold = p.LowStockThreshold
	s.recompute(cur)
	updated := *cur
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return updated, nil
}

// DeleteProduct removes a product from the catalog. Its audit entries are
// retained.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return ErrProductNotFound
	}
	delete(s.byID, id)
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return *p, nil
}

// List returns all products in insertion order.
func (s *Service) List(ctx context.Context) []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyProducts()
}

// AdjustQuantity sets the quantity directly, for manual stock edits. When
// actor is given the entry is recorded as an admin override.
func (s *Service) AdjustQuantity(ctx context.Context, id string, newQuantity int, reason, actor string) (Product, error) {
	if newQuantity < 0 {
		return Product{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	p, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Product{}, ErrProductNotFound
	}
	prevQty := p.Quantity
	prevStatus := p.StockStatus
	p.Quantity = newQuantity
	s.recompute(p)

	action := ActionManualAdjustment
	if actor != "" {
		action = ActionAdminOverride
	}
	s.audit.append(LogEntry{
		ProductID:        p.ID,
		ProductName:      p.Name,
		Action:           action,
		QuantityChanged:  newQuantity - prevQty,
		PreviousQuantity: prevQty,
		NewQuantity:      newQuantity,
		Reason:           reason,
		PerformedBy:      actor,
	})
	s.metrics.StockMutation(string(action))

	var notes []pendingNote
	if n := stockNote(prevStatus, p); n != nil {
		notes = append(notes, *n)
	}
	updated := *p
	snapshot := s.copyProducts()
	logs := s.audit.List(0)
	s.mu.Unlock()

	s.finish(ctx, snapshot, logs, notes)
	return updated, nil
}

// ValidateStock checks that every item can be fulfilled from unreserved
// stock. It accumulates one message per failing item and never mutates.
func (s *Service) ValidateStock(ctx context.Context, items []Item) (bool, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked(items)
}

func (s *Service) validateLocked(items []Item) (bool, []string) {
	var errs []string
	for _, item := range items {
		p, ok := s.byID[item.ProductID]
		if !ok {
			errs = append(errs, fmt.Sprintf("Product not found: %s", item.ProductID))
			continue
		}
		if available := p.Available(); available < item.Quantity {
			errs = append(errs, fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d", p.Name, available, item.Quantity))
		}
		if p.StockStatus == StockStatusOut {
			errs = append(errs, fmt.Sprintf("%s is currently out of stock", p.Name))
		}
	}
	return len(errs) == 0, errs
}

// CommitOrder validates then reduces stock for the items as one atomic
// step, so no concurrent order can observe a stale quantity in between.
func (s *Service) CommitOrder(ctx context.Context, orderID string, items []Item) ([]Product, error) {
	s.mu.Lock()
	if ok, errs := s.validateLocked(items); !ok {
		s.mu.Unlock()
		return nil, &InsufficientStockError{Items: errs}
	}
	updated, notes := s.applyDeltaLocked(orderID, items, -1, ActionOrderPlaced, "")
	snapshot := s.copyProducts()
	logs := s.audit.List(0)
	s.mu.Unlock()

	s.finish(ctx, snapshot, logs, notes)
	return updated, nil
}

// ReduceStock decreases quantities for confirmed order items, clamping at
// zero. The audit entry records the actually applied delta.
func (s *Service) ReduceStock(ctx context.Context, orderID string, items []Item) ([]Product, error) {
	s.mu.Lock()
	updated, notes := s.applyDeltaLocked(orderID, items, -1, ActionOrderPlaced, "")
	snapshot := s.copyProducts()
	logs := s.audit.List(0)
	s.mu.Unlock()

	s.finish(ctx, snapshot, logs, notes)
	return updated, nil
}

// RestoreStock increases quantities on cancellation, return or payment
// failure. The action type carries the cause into the audit trail.
func (s *Service) RestoreStock(ctx context.Context, orderID string, items []Item, action ActionType, reason string) ([]Product, error) {
	switch action {
	case ActionOrderCancelled, ActionOrderReturned, ActionPaymentFailed:
	default:
		return nil, fmt.Errorf("catalog: %s is not a restore action", action)
	}
	s.mu.Lock()
	updated, notes := s.applyDeltaLocked(orderID, items, +1, action, reason)
	snapshot := s.copyProducts()
	logs := s.audit.List(0)
	s.mu.Unlock()

	s.finish(ctx, snapshot, logs, notes)
	return updated, nil
}

// applyDeltaLocked applies sign*item.Quantity to each referenced product,
// appending exactly one audit entry per mutated product. Unknown product
// ids are skipped: restores may reference products deleted since the
// order was placed. Caller holds the lock.
func (s *Service) applyDeltaLocked(orderID string, items []Item, sign int, action ActionType, reason string) ([]Product, []pendingNote) {
	var updated []Product
	var notes []pendingNote
	for _, item := range items {
		p, ok := s.byID[item.ProductID]
		if !ok {
			continue
		}
		prevQty := p.Quantity
		prevStatus := p.StockStatus
		newQty := prevQty + sign*item.Quantity
		if newQty < 0 {
			newQty = 0
		}
		if newQty == prevQty {
			continue
		}
		p.Quantity = newQty
		s.recompute(p)
		s.audit.append(LogEntry{
			ProductID:        p.ID,
			ProductName:      p.Name,
			OrderID:          orderID,
			Action:           action,
			QuantityChanged:  newQty - prevQty,
			PreviousQuantity: prevQty,
			NewQuantity:      newQty,
			Reason:           reason,
		})
		s.metrics.StockMutation(string(action))
		if n := stockNote(prevStatus, p); n != nil {
			notes = append(notes, *n)
		}
		updated = append(updated, *p)
	}
	return updated, notes
}

// Reserve places a hold on stock without reducing quantity. An unknown
// product id fails the whole call before any hold is taken.
func (s *Service) Reserve(ctx context.Context, items []Item) error {
	s.mu.Lock()
	for _, item := range items {
		if _, ok := s.byID[item.ProductID]; !ok {
			s.mu.Unlock()
			return ErrProductNotFound
		}
	}
	for _, item := range items {
		p := s.byID[item.ProductID]
		p.ReservedQuantity += item.Quantity
		p.LastUpdated = s.now().UTC()
	}
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return nil
}

// Release removes a hold, flooring the reservation at zero.
func (s *Service) Release(ctx context.Context, items []Item) error {
	s.mu.Lock()
	for _, item := range items {
		p, ok := s.byID[item.ProductID]
		if !ok {
			continue
		}
		p.ReservedQuantity -= item.Quantity
		if p.ReservedQuantity < 0 {
			p.ReservedQuantity = 0
		}
		p.LastUpdated = s.now().UTC()
	}
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return nil
}

// ToggleAvailability flips the manual availability override independent of
// quantity. Turning unavailable stores the reason; turning available
// clears it.
func (s *Service) ToggleAvailability(ctx context.Context, id, reason string) (Product, error) {
	s.mu.Lock()
	p, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Product{}, ErrProductNotFound
	}
	p.ManuallyDisabled = !p.ManuallyDisabled
	if p.ManuallyDisabled {
		p.StatusReason = reason
	} else {
		p.StatusReason = ""
	}
	s.recompute(p)
	updated := *p
	snapshot := s.copyProducts()
	s.mu.Unlock()

	s.finish(ctx, snapshot, nil, nil)
	return updated, nil
}

// ListLogs returns audit entries, newest first.
func (s *Service) ListLogs(ctx context.Context, limit int) []LogEntry {
	return s.audit.List(limit)
}

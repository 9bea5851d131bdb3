package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/notify"
)

// fakeStock counts ledger calls so tests can assert the cancel and
// reactivate side effects fire exactly once.
type fakeStock struct {
	commits  []string
	reduces  []string
	restores []catalog.ActionType
	releases int
	failWith error
}

func (f *fakeStock) CommitOrder(ctx context.Context, orderID string, items []catalog.Item) ([]catalog.Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.commits = append(f.commits, orderID)
	return nil, nil
}

func (f *fakeStock) ReduceStock(ctx context.Context, orderID string, items []catalog.Item) ([]catalog.Product, error) {
	f.reduces = append(f.reduces, orderID)
	return nil, nil
}

func (f *fakeStock) RestoreStock(ctx context.Context, orderID string, items []catalog.Item, action catalog.ActionType, reason string) ([]catalog.Product, error) {
	f.restores = append(f.restores, action)
	return nil, nil
}

func (f *fakeStock) Release(ctx context.Context, items []catalog.Item) error {
	f.releases++
	return nil
}

type fakeOrderSnapshot struct {
	orders []Order
	saves  int
}

func (f *fakeOrderSnapshot) SaveOrders(ctx context.Context, orders []Order) error {
	f.orders = orders
	f.saves++
	return nil
}

type noteRecorder struct {
	titles []string
}

func (n *noteRecorder) Notify(ctx context.Context, title, desc string, category notify.Category) {
	n.titles = append(n.titles, title)
}

func newTestService(t *testing.T) (*Service, *fakeStock, *noteRecorder, *fakeOrderSnapshot) {
	t.Helper()
	stock := &fakeStock{}
	notes := &noteRecorder{}
	snap := &fakeOrderSnapshot{}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, stock, notes, snap, nil)
	return svc, stock, notes, snap
}

func testInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName: "Asha",
		PaymentType:  PaymentCOD,
		Items: []OrderItem{
			{ProductID: "p1", ProductName: "Basmati Rice 5kg", Quantity: 2, Price: 450},
			{ProductID: "p2", ProductName: "Toor Dal 1kg", Quantity: 1, Price: 160},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	svc, stock, notes, snap := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, testInput())
	require.NoError(t, err)
	require.Regexp(t, `^ORD-\d{4}$`, order.ID)
	require.Equal(t, StatusNew, order.Status)
	require.Equal(t, PaymentSuccess, order.PaymentStatus)
	require.InDelta(t, 1060.0, order.Total, 0.001)
	require.Equal(t, []string{order.ID}, stock.commits)
	require.Equal(t, []string{"New Order Received"}, notes.titles)
	require.Equal(t, 1, snap.saves)

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	require.Equal(t, order.ID, listed[0].ID)
}

func TestCreateOnlineOrderStartsPending(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	input := testInput()
	input.PaymentType = PaymentOnline

	order, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, PaymentPending, order.PaymentStatus)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, stock, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateOrderInput{CustomerName: "Asha", PaymentType: PaymentCOD})
	require.ErrorIs(t, err, ErrNoItems)

	input := testInput()
	input.PaymentType = "UPI"
	_, err = svc.Create(ctx, input)
	require.Error(t, err)

	stock.failWith = &catalog.InsufficientStockError{Items: []string{"Basmati Rice 5kg is currently out of stock"}}
	_, err = svc.Create(ctx, testInput())
	var insufficient *catalog.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Empty(t, svc.List(ctx))
}

func TestStatusMovesForwardOnly(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, testInput())
	require.NoError(t, err)

	for _, next := range []Status{StatusAccepted, StatusPacked, StatusPicked, StatusDelivered} {
		order, err = svc.UpdateStatus(ctx, order.ID, next, "")
		require.NoError(t, err)
		require.Equal(t, next, order.Status)
	}

	_, err = svc.UpdateStatus(ctx, order.ID, StatusPacked, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, order.ID, "Shipped", "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, "ORD-0000", StatusAccepted, "")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSameStatusIsNoOp(t *testing.T) {
	svc, stock, notes, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, testInput())
	require.NoError(t, err)
	before := len(notes.titles)

	updated, err := svc.UpdateStatus(ctx, order.ID, StatusNew, "")
	require.NoError(t, err)
	require.Equal(t, StatusNew, updated.Status)
	require.Empty(t, stock.restores)
	require.Len(t, notes.titles, before)
}

func TestCancellationRestoresStockOnce(t *testing.T) {
	svc, stock, notes, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, testInput())
	require.NoError(t, err)

	cancelled, err := svc.UpdateStatus(ctx, order.ID, StatusCancelled, "customer changed mind")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, "customer changed mind", cancelled.CancellationReason)
	require.Equal(t, []catalog.ActionType{catalog.ActionOrderCancelled}, stock.restores)
	require.Contains(t, notes.titles, "Order Cancelled")

	// Cancelled -> Rejected stays terminal, no second restore.
	_, err = svc.UpdateStatus(ctx, order.ID, StatusRejected, "")
	require.NoError(t, err)
	require.Len(t, stock.restores, 1)
}

func TestReactivationReducesStock(t *testing.T) {
	svc, stock, _, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, testInput())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusCancelled, "oos")
	require.NoError(t, err)

	reactivated, err := svc.UpdateStatus(ctx, order.ID, StatusAccepted, "")
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, reactivated.Status)
	require.Empty(t, reactivated.CancellationReason)
	require.Equal(t, []string{order.ID}, stock.reduces)
}

func TestHandlePaymentFailure(t *testing.T) {
	svc, stock, notes, _ := newTestService(t)
	ctx := context.Background()

	input := testInput()
	input.PaymentType = PaymentOnline
	order, err := svc.Create(ctx, input)
	require.NoError(t, err)

	failed, err := svc.HandlePaymentFailure(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, failed.Status)
	require.Equal(t, PaymentFailed, failed.PaymentStatus)
	require.Equal(t, "Payment failed", failed.CancellationReason)
	require.Equal(t, []catalog.ActionType{catalog.ActionPaymentFailed}, stock.restores)
	require.Equal(t, 1, stock.releases)
	require.Contains(t, notes.titles, "Payment Failed")

	// Second failure report on a cancelled order touches nothing.
	again, err := svc.HandlePaymentFailure(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, failed.Status, again.Status)
	require.Len(t, stock.restores, 1)
	require.Equal(t, 1, stock.releases)

	_, err = svc.HandlePaymentFailure(ctx, "ORD-0000")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrdersListedNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, testInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, testInput())
	require.NoError(t, err)

	listed := svc.List(ctx)
	require.Len(t, listed, 2)
	require.Equal(t, second.ID, listed[0].ID)
	require.Equal(t, first.ID, listed[1].ID)
}

func TestOrderIDCollisionRetries(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ids := []string{"ORD-1111", "ORD-1111", "ORD-2222"}
	svc.newID = func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}

	first, err := svc.Create(ctx, testInput())
	require.NoError(t, err)
	require.Equal(t, "ORD-1111", first.ID)

	second, err := svc.Create(ctx, testInput())
	require.NoError(t, err)
	require.Equal(t, "ORD-2222", second.ID)
}

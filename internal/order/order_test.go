package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/catalog"
	"github.com/m3rciful/orderbot/internal/ledger"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

type fakePanel struct {
	placed    int
	orderID   int64
	placeErr  error
	refillErr error
	refills   []int64
}

func (f *fakePanel) PlaceOrder(ctx context.Context, serviceID int64, target string, quantity int) (*provider.OrderResult, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed++
	return &provider.OrderResult{ID: f.orderID}, nil
}

func (f *fakePanel) Refill(ctx context.Context, orderID int64) (*provider.RefillResult, error) {
	if f.refillErr != nil {
		return nil, f.refillErr
	}
	f.refills = append(f.refills, orderID)
	return &provider.RefillResult{RefillID: 777}, nil
}

func newTestWorkflow(t *testing.T, balance int64) (*Workflow, *store.Store, *fakePanel) {
	t.Helper()
	st, err := store.Open(store.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, st.Write(&store.State{Users: []*store.User{
		{ID: 10, Name: "Tester", Balance: balance},
	}}))
	panel := &fakePanel{orderID: 90001}
	return NewWorkflow(st, panel), st, panel
}

var likesItem = catalog.Item{
	ID:        101,
	Name:      "Likes",
	Category:  "Instagram",
	PricePerK: 1200,
	Min:       100,
	Max:       10000,
}

func runDraftToConfirmation(t *testing.T, w *Workflow) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SetService(ctx, 10, likesItem))
	require.NoError(t, w.SetQuantity(ctx, 10, 500))
	draft, err := w.SetTarget(ctx, 10, "https://example.com/p/1")
	require.NoError(t, err)
	require.Equal(t, int64(600), Total(draft))
}

func TestDraftStepsAdvanceState(t *testing.T) {
	w, st, _ := newTestWorkflow(t, 1000)
	ctx := context.Background()

	require.NoError(t, w.SetService(ctx, 10, likesItem))
	u := st.Read().FindUser(10)
	require.Equal(t, store.StateAwaitingQuantity, u.State)
	require.Equal(t, int64(101), u.OrderDraft.ServiceID)

	require.NoError(t, w.SetQuantity(ctx, 10, 500))
	u = st.Read().FindUser(10)
	require.Equal(t, store.StateAwaitingTarget, u.State)
	require.Equal(t, 500, u.OrderDraft.Quantity)

	_, err := w.SetTarget(ctx, 10, "https://example.com/p/1")
	require.NoError(t, err)
	u = st.Read().FindUser(10)
	require.Equal(t, store.StateAwaitingConfirmation, u.State)
	require.Equal(t, "https://example.com/p/1", u.OrderDraft.Target)
}

func TestSetQuantityEnforcesLimits(t *testing.T) {
	w, _, _ := newTestWorkflow(t, 1000)
	ctx := context.Background()
	require.NoError(t, w.SetService(ctx, 10, likesItem))

	var rangeErr *QuantityRangeError
	err := w.SetQuantity(ctx, 10, 50)
	require.ErrorAs(t, err, &rangeErr)
	require.Equal(t, 100, rangeErr.Min)

	err = w.SetQuantity(ctx, 10, 20000)
	require.ErrorAs(t, err, &rangeErr)
}

func TestStepsWithoutDraftFail(t *testing.T) {
	w, _, _ := newTestWorkflow(t, 1000)
	ctx := context.Background()

	require.ErrorIs(t, w.SetQuantity(ctx, 10, 500), ErrSessionExpired)
	_, err := w.SetTarget(ctx, 10, "x")
	require.ErrorIs(t, err, ErrSessionExpired)
	_, err = w.Confirm(ctx, 10)
	require.ErrorIs(t, err, ErrSessionExpired)

	require.ErrorIs(t, w.SetService(ctx, 99, likesItem), ErrUserNotFound)
}

func TestConfirmSettlesWalletAndHistoryAtomically(t *testing.T) {
	w, st, panel := newTestWorkflow(t, 1000)
	runDraftToConfirmation(t, w)

	receipt, err := w.Confirm(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(90001), receipt.OrderID)
	require.Equal(t, int64(600), receipt.Total)
	require.Equal(t, int64(400), receipt.Balance)
	require.Equal(t, 1, panel.placed)

	u := st.Read().FindUser(10)
	require.Equal(t, int64(400), u.Balance)
	require.Equal(t, store.StateIdle, u.State)
	require.Nil(t, u.OrderDraft)
	require.Len(t, u.Orders, 1)
	require.Equal(t, int64(90001), u.Orders[0].ID)
	require.Equal(t, int64(600), u.Orders[0].Price)
	require.Len(t, u.Transactions, 1)
	require.Equal(t, int64(-600), u.Transactions[0].Amount)
}

func TestConfirmRejectsInsufficientBalanceBeforePanelCall(t *testing.T) {
	w, st, panel := newTestWorkflow(t, 100)
	runDraftToConfirmation(t, w)

	_, err := w.Confirm(context.Background(), 10)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	require.Zero(t, panel.placed)

	// Draft stays so the user can top up and confirm again.
	u := st.Read().FindUser(10)
	require.Equal(t, int64(100), u.Balance)
	require.NotNil(t, u.OrderDraft)
	require.Equal(t, store.StateAwaitingConfirmation, u.State)
}

func TestConfirmPanelRejectionChargesNothing(t *testing.T) {
	w, st, panel := newTestWorkflow(t, 1000)
	runDraftToConfirmation(t, w)
	panel.placeErr = &provider.Error{Op: "order", Message: "service disabled"}

	_, err := w.Confirm(context.Background(), 10)
	var perr *provider.Error
	require.ErrorAs(t, err, &perr)

	u := st.Read().FindUser(10)
	require.Equal(t, int64(1000), u.Balance)
	require.Empty(t, u.Orders)
	require.Empty(t, u.Transactions)
	// The rejected draft is discarded; the user starts over.
	require.Nil(t, u.OrderDraft)
	require.Equal(t, store.StateIdle, u.State)
}

func TestConfirmExactScenario(t *testing.T) {
	st, err := store.Open(store.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, st.Write(&store.State{Users: []*store.User{
		{ID: 10, Balance: 100000},
	}}))
	panel := &fakePanel{orderID: 424242}
	w := NewWorkflow(st, panel)
	ctx := context.Background()

	item := catalog.Item{ID: 7, Name: "Followers", PricePerK: 1100, Min: 50, Max: 5000}
	require.NoError(t, w.SetService(ctx, 10, item))
	require.NoError(t, w.SetQuantity(ctx, 10, 100))
	_, err = w.SetTarget(ctx, 10, "@someone")
	require.NoError(t, err)

	receipt, err := w.Confirm(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(110), receipt.Total)

	u := st.Read().FindUser(10)
	require.Equal(t, int64(99890), u.Balance)
	require.Len(t, u.Transactions, 1)
	require.Equal(t, int64(-110), u.Transactions[0].Amount)
	require.Len(t, u.Orders, 1)
	require.Equal(t, int64(424242), u.Orders[0].ID)
}

func TestCancelClearsAnyStep(t *testing.T) {
	w, st, _ := newTestWorkflow(t, 1000)
	ctx := context.Background()
	require.NoError(t, w.SetService(ctx, 10, likesItem))
	require.NoError(t, w.Cancel(ctx, 10))

	u := st.Read().FindUser(10)
	require.Equal(t, store.StateIdle, u.State)
	require.Nil(t, u.OrderDraft)
}

func TestRefillRequiresOwnedOrder(t *testing.T) {
	w, _, panel := newTestWorkflow(t, 1000)
	runDraftToConfirmation(t, w)
	_, err := w.Confirm(context.Background(), 10)
	require.NoError(t, err)

	res, err := w.Refill(context.Background(), 10, 90001)
	require.NoError(t, err)
	require.Equal(t, int64(777), res.RefillID)
	require.Equal(t, []int64{90001}, panel.refills)

	_, err = w.Refill(context.Background(), 10, 12345)
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = w.Refill(context.Background(), 99, 90001)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestOrdersPageNewestFirstAndClamps(t *testing.T) {
	u := &store.User{ID: 10}
	for i := 1; i <= 25; i++ {
		u.Orders = append(u.Orders, store.Order{ID: int64(i), ServiceName: fmt.Sprintf("svc %d", i)})
	}

	orders, current, total := OrdersPage(u, 0)
	require.Equal(t, 3, total)
	require.Equal(t, 0, current)
	require.Len(t, orders, OrdersPageSize)
	require.Equal(t, int64(25), orders[0].ID)
	require.Equal(t, int64(16), orders[9].ID)

	orders, current, _ = OrdersPage(u, 2)
	require.Equal(t, 2, current)
	require.Len(t, orders, 5)
	require.Equal(t, int64(5), orders[0].ID)
	require.Equal(t, int64(1), orders[4].ID)

	// Out-of-range indexes clamp to the nearest valid page.
	_, current, _ = OrdersPage(u, 3)
	require.Equal(t, 2, current)
	_, current, _ = OrdersPage(u, -1)
	require.Equal(t, 0, current)
}

func TestOrdersPageEmptyHistory(t *testing.T) {
	orders, current, total := OrdersPage(&store.User{ID: 10}, 0)
	require.Nil(t, orders)
	require.Zero(t, current)
	require.Zero(t, total)
}

func TestConfirmUnknownUser(t *testing.T) {
	w, _, _ := newTestWorkflow(t, 0)
	_, err := w.Confirm(context.Background(), 404)
	require.True(t, errors.Is(err, ErrUserNotFound))
}

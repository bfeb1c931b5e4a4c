// Package order drives the multi-step order conversation: pick a service,
// choose a quantity, give a target, confirm. Each step persists the draft on
// the user record so the flow survives a restart, and confirmation only
// charges the wallet after the panel accepted the order.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/catalog"
	"github.com/m3rciful/orderbot/internal/ledger"
	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

// OrdersPageSize is the number of history rows per page.
const OrdersPageSize = 10

var (
	// ErrUserNotFound means the sender has no account record yet.
	ErrUserNotFound = errors.New("order: user not registered")
	// ErrSessionExpired means a step arrived without an order flow in
	// progress, e.g. after a restart cleared the draft or a stale button
	// was pressed.
	ErrSessionExpired = errors.New("order: session expired")
	// ErrOrderNotFound means the referenced order id is not in the user's
	// history.
	ErrOrderNotFound = errors.New("order: order not found")
)

// QuantityRangeError reports a quantity outside the service limits.
type QuantityRangeError struct {
	Min, Max int
}

func (e *QuantityRangeError) Error() string {
	return fmt.Sprintf("order: quantity must be between %d and %d", e.Min, e.Max)
}

// PanelClient is the slice of the provider API the workflow needs.
type PanelClient interface {
	PlaceOrder(ctx context.Context, serviceID int64, target string, quantity int) (*provider.OrderResult, error)
	Refill(ctx context.Context, orderID int64) (*provider.RefillResult, error)
}

// Workflow owns order state transitions. All persistence goes through the
// store so a draft update and its state change land in one write.
type Workflow struct {
	store *store.Store
	panel PanelClient
}

// NewWorkflow builds a Workflow.
func NewWorkflow(st *store.Store, panel PanelClient) *Workflow {
	return &Workflow{store: st, panel: panel}
}

// Receipt summarizes a confirmed order.
type Receipt struct {
	OrderID int64
	Total   int64
	Balance int64
	Draft   store.OrderDraft
}

// SetService starts a draft for the chosen catalog item and advances the
// user to the quantity step. Any previous draft is discarded.
func (w *Workflow) SetService(ctx context.Context, userID int64, item catalog.Item) error {
	return w.withUser(userID, func(u *store.User) error {
		u.OrderDraft = &store.OrderDraft{
			ServiceID:   item.ID,
			ServiceName: item.Name,
			PricePerK:   item.PricePerK,
			Min:         item.Min,
			Max:         item.Max,
		}
		u.State = store.StateAwaitingQuantity
		return nil
	})
}

// SetQuantity validates the quantity against the service limits and advances
// to the target step.
func (w *Workflow) SetQuantity(ctx context.Context, userID int64, quantity int) error {
	return w.withDraft(userID, func(u *store.User, d *store.OrderDraft) error {
		if quantity < d.Min || quantity > d.Max {
			return &QuantityRangeError{Min: d.Min, Max: d.Max}
		}
		d.Quantity = quantity
		u.State = store.StateAwaitingTarget
		return nil
	})
}

// SetTarget records the order target and advances to confirmation. The
// returned draft carries everything the confirmation prompt needs.
func (w *Workflow) SetTarget(ctx context.Context, userID int64, target string) (*store.OrderDraft, error) {
	var out store.OrderDraft
	err := w.withDraft(userID, func(u *store.User, d *store.OrderDraft) error {
		d.Target = target
		u.State = store.StateAwaitingConfirmation
		out = *d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Total computes the charge for the current draft.
func Total(d *store.OrderDraft) int64 {
	return catalog.Total(d.PricePerK, d.Quantity)
}

// Confirm places the order with the panel and settles the wallet. The
// balance is pre-checked before the remote call so an obviously broke user
// never reaches the panel; the debit, transaction record, order history row,
// and flow reset are then committed in a single write. If the panel rejects
// the order nothing is charged.
func (w *Workflow) Confirm(ctx context.Context, userID int64) (*Receipt, error) {
	st := w.store.Read()
	u := st.FindUser(userID)
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.OrderDraft == nil {
		return nil, ErrSessionExpired
	}
	draft := *u.OrderDraft
	total := Total(&draft)
	if u.Balance < total {
		return nil, fmt.Errorf("%w: balance %d, need %d", ledger.ErrInsufficientBalance, u.Balance, total)
	}

	res, err := w.panel.PlaceOrder(ctx, draft.ServiceID, draft.Target, draft.Quantity)
	if err != nil {
		// Nothing was charged, but the draft is finished either way: the
		// user starts over instead of re-confirming a rejected order.
		if cerr := w.Cancel(ctx, userID); cerr != nil {
			logger.Warn(ctx, "service.orders", "draft_clear_failed",
				slog.Int64("user_id", userID),
				slog.String("error", cerr.Error()),
			)
		}
		return nil, err
	}

	receipt := &Receipt{OrderID: res.ID, Total: total, Draft: draft}
	err = w.withUser(userID, func(u *store.User) error {
		desc := fmt.Sprintf("Order #%d: %s x%d", res.ID, draft.ServiceName, draft.Quantity)
		if err := ledger.Debit(u, store.TxOrder, total, desc); err != nil {
			return err
		}
		u.Orders = append(u.Orders, store.Order{
			ID:          res.ID,
			ServiceID:   draft.ServiceID,
			ServiceName: draft.ServiceName,
			Target:      draft.Target,
			Quantity:    draft.Quantity,
			Price:       total,
			Date:        time.Now().UTC(),
		})
		u.ClearFlow()
		receipt.Balance = u.Balance
		return nil
	})
	if err != nil {
		// The panel already accepted the order; the wallet settle failing
		// here needs operator attention.
		logger.Error(ctx, "service.orders", "settle_failed",
			slog.Int64("user_id", userID),
			slog.Int64("order_id", res.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger.Info(ctx, "service.orders", "placed",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", receipt.OrderID),
		slog.Int64("service_id", draft.ServiceID),
		slog.Int("quantity", draft.Quantity),
		slog.Int64("total", total),
	)
	return receipt, nil
}

// Cancel abandons the current flow, whatever step it is on.
func (w *Workflow) Cancel(ctx context.Context, userID int64) error {
	return w.withUser(userID, func(u *store.User) error {
		u.ClearFlow()
		return nil
	})
}

// Refill asks the panel to refill one of the user's own past orders.
func (w *Workflow) Refill(ctx context.Context, userID, orderID int64) (*provider.RefillResult, error) {
	st := w.store.Read()
	u := st.FindUser(userID)
	if u == nil {
		return nil, ErrUserNotFound
	}
	owned := false
	for _, o := range u.Orders {
		if o.ID == orderID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, fmt.Errorf("%w: #%d", ErrOrderNotFound, orderID)
	}

	res, err := w.panel.Refill(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "service.orders", "refill_requested",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", orderID),
	)
	return res, nil
}

// OrdersPage returns one page of the user's order history, newest first.
// An out-of-range page index is clamped into range.
func OrdersPage(u *store.User, page int) (orders []store.Order, current, total int) {
	n := len(u.Orders)
	total = (n + OrdersPageSize - 1) / OrdersPageSize
	if total == 0 {
		return nil, 0, 0
	}
	current = page
	if current < 0 {
		current = 0
	}
	if current >= total {
		current = total - 1
	}

	// Newest first: walk the history backwards.
	start := n - 1 - current*OrdersPageSize
	for i := start; i >= 0 && len(orders) < OrdersPageSize; i-- {
		orders = append(orders, u.Orders[i])
	}
	return orders, current, total
}

func (w *Workflow) withUser(userID int64, fn func(*store.User) error) error {
	return w.store.Update(func(st *store.State) error {
		u := st.FindUser(userID)
		if u == nil {
			return ErrUserNotFound
		}
		return fn(u)
	})
}

func (w *Workflow) withDraft(userID int64, fn func(*store.User, *store.OrderDraft) error) error {
	return w.withUser(userID, func(u *store.User) error {
		if u.OrderDraft == nil {
			return ErrSessionExpired
		}
		return fn(u, u.OrderDraft)
	})
}

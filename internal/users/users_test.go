package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, st.EnsureInitialized())
	return NewService(st), st
}

func TestRegisterCreatesOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, 10, "Alice", "alice")
	require.NoError(t, err)
	require.True(t, created)

	u := svc.Get(10)
	require.NotNil(t, u)
	require.Equal(t, "Alice", u.Name)
	require.False(t, u.RegisteredAt.IsZero())
	require.Zero(t, u.Balance)

	// Second contact refreshes the profile without creating a duplicate.
	created, err = svc.Register(ctx, 10, "Alice B", "aliceb")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 1, svc.Count())
	require.Equal(t, "Alice B", svc.Get(10).Name)
}

func TestSetStateIdleClearsDraft(t *testing.T) {
	svc, st := newTestService(t)
	_, err := svc.Register(context.Background(), 10, "Alice", "alice")
	require.NoError(t, err)

	require.NoError(t, st.Update(func(s *store.State) error {
		u := s.FindUser(10)
		u.State = store.StateAwaitingTarget
		u.OrderDraft = &store.OrderDraft{ServiceID: 1}
		return nil
	}))

	require.NoError(t, svc.SetState(10, store.StateIdle))
	u := svc.Get(10)
	require.Equal(t, store.StateIdle, u.State)
	require.Nil(t, u.OrderDraft)

	require.NoError(t, svc.SetState(10, store.StateAwaitingBanID))
	require.Equal(t, store.StateAwaitingBanID, svc.Get(10).State)

	require.Error(t, svc.SetState(404, store.StateIdle))
}

func TestAddBalanceCreditsAndRecords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, 10, "Alice", "alice")
	require.NoError(t, err)

	balance, err := svc.AddBalance(ctx, 10, 5000, "manual top-up")
	require.NoError(t, err)
	require.Equal(t, int64(5000), balance)

	u := svc.Get(10)
	require.Len(t, u.Transactions, 1)
	require.Equal(t, store.TxDeposit, u.Transactions[0].Type)

	_, err = svc.AddBalance(ctx, 404, 100, "x")
	require.ErrorIs(t, err, ErrUnknownUser)
	_, err = svc.AddBalance(ctx, 10, -100, "x")
	require.Error(t, err)
}

func TestActivityAggregates(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		_, err := svc.Register(ctx, id, "U", "u")
		require.NoError(t, err)
	}

	now := time.Now().UTC()
	require.NoError(t, st.Update(func(s *store.State) error {
		u := s.FindUser(1)
		u.Orders = append(u.Orders,
			store.Order{ID: 1, Price: 600, Date: now},
			store.Order{ID: 2, Price: 400, Date: now.AddDate(0, -2, 0)},
		)
		s.FindUser(3).RegisteredAt = now.AddDate(0, 0, -30)
		return nil
	}))

	stats := svc.Activity()
	require.Equal(t, 3, stats.Users)
	require.Equal(t, 2, stats.Orders)
	require.Equal(t, 1, stats.OrdersToday)
	require.Equal(t, 1, stats.OrdersMonth)
	require.Equal(t, int64(1000), stats.Revenue)
	require.Equal(t, 1, stats.ActiveBuyers)
	require.Equal(t, 2, stats.NewThisWeek)

	require.Equal(t, []int64{1, 2, 3}, svc.IDs())
}

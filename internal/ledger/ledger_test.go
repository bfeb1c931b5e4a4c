package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/store"
)

func TestUpdateBalanceClampsAtZero(t *testing.T) {
	u := &store.User{ID: 1, Balance: 300}

	applied := UpdateBalance(u, -500)
	require.Equal(t, int64(-300), applied)
	require.Equal(t, int64(0), u.Balance)

	applied = UpdateBalance(u, 250)
	require.Equal(t, int64(250), applied)
	require.Equal(t, int64(250), u.Balance)
}

func TestCreditRecordsTransaction(t *testing.T) {
	u := &store.User{ID: 1}
	require.NoError(t, Credit(u, store.TxDeposit, 1000, "deposit"))

	require.Equal(t, int64(1000), u.Balance)
	require.Len(t, u.Transactions, 1)
	tx := u.Transactions[0]
	require.Equal(t, store.TxDeposit, tx.Type)
	require.Equal(t, int64(1000), tx.Amount)
	require.False(t, tx.Date.IsZero())
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	u := &store.User{ID: 1}
	require.Error(t, Credit(u, store.TxDeposit, 0, "zero"))
	require.Error(t, Credit(u, store.TxDeposit, -5, "negative"))
	require.Empty(t, u.Transactions)
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	u := &store.User{ID: 1, Balance: 100}

	err := Debit(u, store.TxOrder, 150, "order")
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing applied: no partial debit, no transaction.
	require.Equal(t, int64(100), u.Balance)
	require.Empty(t, u.Transactions)
}

func TestDebitRecordsNegativeAmount(t *testing.T) {
	u := &store.User{ID: 1, Balance: 100}
	require.NoError(t, Debit(u, store.TxOrder, 60, "order #9"))

	require.Equal(t, int64(40), u.Balance)
	require.Len(t, u.Transactions, 1)
	require.Equal(t, int64(-60), u.Transactions[0].Amount)
	require.Equal(t, store.TxOrder, u.Transactions[0].Type)
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	u := &store.User{ID: 1, Balance: 1000}
	require.NoError(t, Debit(u, store.TxOrder, 10, "first"))
	require.NoError(t, Debit(u, store.TxOrder, 20, "second"))
	require.NoError(t, Debit(u, store.TxOrder, 30, "third"))

	all := History(u, 0)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].Description)
	require.Equal(t, "first", all[2].Description)

	capped := History(u, 2)
	require.Len(t, capped, 2)
	require.Equal(t, "third", capped[0].Description)
	require.Equal(t, "second", capped[1].Description)
}

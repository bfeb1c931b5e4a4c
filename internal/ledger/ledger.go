// Package ledger implements wallet arithmetic over user aggregates. It only
// mutates in-memory state; callers persist through store.Update so a balance
// change and its transaction record land in the same write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/store"
)

// ErrInsufficientBalance is returned by Debit when the wallet cannot cover
// the full amount. Partial debits are never applied.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// AddTransaction appends a ledger entry stamped with the current time.
func AddTransaction(u *store.User, txType store.TransactionType, amount int64, description string) {
	u.Transactions = append(u.Transactions, store.Transaction{
		Type:        txType,
		Amount:      amount,
		Description: description,
		Date:        time.Now().UTC(),
	})
}

// UpdateBalance applies a signed delta, clamping the result at zero, and
// returns the delta actually applied. A debit larger than the balance drains
// the wallet instead of going negative.
func UpdateBalance(u *store.User, delta int64) int64 {
	next := u.Balance + delta
	if next < 0 {
		next = 0
	}
	applied := next - u.Balance
	u.Balance = next

	logger.Debug(context.Background(), "ledger", "balance_updated",
		slog.Int64("user_id", u.ID),
		slog.Int64("amount", applied),
		slog.Int64("balance", u.Balance),
	)
	return applied
}

// Credit adds funds and records the matching transaction.
func Credit(u *store.User, txType store.TransactionType, amount int64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: credit amount must be positive, got %d", amount)
	}
	UpdateBalance(u, amount)
	AddTransaction(u, txType, amount, description)
	return nil
}

// Debit removes funds, rejecting the whole operation when the balance is
// short. On success the matching transaction is recorded with a negative
// amount.
func Debit(u *store.User, txType store.TransactionType, amount int64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("ledger: debit amount must be positive, got %d", amount)
	}
	if u.Balance < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientBalance, u.Balance, amount)
	}
	UpdateBalance(u, -amount)
	AddTransaction(u, txType, -amount, description)
	return nil
}

// History returns the most recent transactions, newest first, capped at
// limit. limit <= 0 returns everything.
func History(u *store.User, limit int) []store.Transaction {
	n := len(u.Transactions)
	out := make([]store.Transaction, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, u.Transactions[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

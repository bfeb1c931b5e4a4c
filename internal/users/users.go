// Package users covers account lifecycle: registration on first contact,
// profile refresh, admin top-ups, and the aggregate stats the admin commands
// report.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/ledger"
	"github.com/m3rciful/orderbot/internal/store"
)

// ErrUnknownUser reports an id with no account record.
var ErrUnknownUser = errors.New("users: unknown user")

// Service reads and mutates user records through the store.
type Service struct {
	store *store.Store
}

// NewService builds a users Service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Register creates the user on first contact and refreshes name and username
// on subsequent ones. Reports whether a new record was created.
func (s *Service) Register(ctx context.Context, id int64, name, username string) (created bool, err error) {
	err = s.store.Update(func(st *store.State) error {
		if u := st.FindUser(id); u != nil {
			u.Name = name
			u.Username = username
			return nil
		}
		st.Users = append(st.Users, &store.User{
			ID:           id,
			Name:         name,
			Username:     username,
			RegisteredAt: time.Now().UTC(),
			Orders:       []store.Order{},
		})
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Info(ctx, "service.users", "registered",
			slog.Int64("user_id", id),
		)
	}
	return created, nil
}

// Get returns a copy-safe pointer into a fresh state snapshot, or nil if the
// user is unknown.
func (s *Service) Get(id int64) *store.User {
	return s.store.Read().FindUser(id)
}

// SetState moves the user to the given conversation state. Entering the idle
// state also drops any order draft.
func (s *Service) SetState(userID int64, state store.UserState) error {
	return s.store.Update(func(st *store.State) error {
		u := st.FindUser(userID)
		if u == nil {
			return fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
		}
		if state == store.StateIdle {
			u.ClearFlow()
			return nil
		}
		u.State = state
		return nil
	})
}

// AddBalance credits a user's wallet on behalf of an admin, recording a
// deposit transaction.
func (s *Service) AddBalance(ctx context.Context, userID, amount int64, description string) (balance int64, err error) {
	err = s.store.Update(func(st *store.State) error {
		u := st.FindUser(userID)
		if u == nil {
			return fmt.Errorf("%w: id %d", ErrUnknownUser, userID)
		}
		if err := ledger.Credit(u, store.TxDeposit, amount, description); err != nil {
			return err
		}
		balance = u.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "service.users", "balance_added",
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance),
	)
	return balance, nil
}

// IDs returns every registered user id, in registration order.
func (s *Service) IDs() []int64 {
	st := s.store.Read()
	ids := make([]int64, 0, len(st.Users))
	for _, u := range st.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

// Count returns the number of registered users.
func (s *Service) Count() int {
	return len(s.store.Read().Users)
}

// Stats is the aggregate picture shown by the activity report.
type Stats struct {
	Users        int
	Orders       int
	OrdersToday  int
	OrdersMonth  int
	Revenue      int64
	NewThisWeek  int
	ActiveBuyers int
}

// Activity computes usage stats over the whole user base. Revenue is the sum
// of charged order totals; ActiveBuyers counts users with at least one
// order. Today and month windows follow the UTC calendar.
func (s *Service) Activity() Stats {
	st := s.store.Read()
	now := time.Now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := Stats{Users: len(st.Users)}
	for _, u := range st.Users {
		stats.Orders += len(u.Orders)
		if len(u.Orders) > 0 {
			stats.ActiveBuyers++
		}
		for _, o := range u.Orders {
			stats.Revenue += o.Price
			if !o.Date.Before(dayStart) {
				stats.OrdersToday++
			}
			if !o.Date.Before(monthStart) {
				stats.OrdersMonth++
			}
		}
		if u.RegisteredAt.After(weekAgo) {
			stats.NewThisWeek++
		}
	}
	return stats
}

package store

import "time"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxDeposit TransactionType = "deposit"
	TxOrder   TransactionType = "order"
	TxRefund  TransactionType = "refund"
	TxOther   TransactionType = "other"
)

// Transaction is an immutable ledger entry. Amount is signed: credits are
// positive, debits negative.
type Transaction struct {
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

// Order records a successfully placed remote order. ID is assigned by the
// provider; Price is the margin-adjusted total charged to the user.
type Order struct {
	ID          int64     `json:"id"`
	ServiceID   int64     `json:"serviceId"`
	ServiceName string    `json:"serviceName"`
	Target      string    `json:"target"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	Date        time.Time `json:"date"`
}

// OrderDraft is the scratch buffer accumulated by the order conversation.
// PricePerK is the margin-adjusted price per 1000 units.
type OrderDraft struct {
	ServiceID   int64   `json:"serviceId"`
	ServiceName string  `json:"serviceName"`
	PricePerK   float64 `json:"pricePerK"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Quantity    int     `json:"quantity,omitempty"`
	Target      string  `json:"target,omitempty"`
}

// UserState identifies the single pending conversation flow of a user.
// The zero value means no flow is active.
type UserState string

const (
	StateIdle                 UserState = ""
	StateAwaitingServiceID    UserState = "AWAITING_SERVICE_ID"
	StateAwaitingQuantity     UserState = "AWAITING_QUANTITY"
	StateAwaitingTarget       UserState = "AWAITING_TARGET"
	StateAwaitingConfirmation UserState = "AWAITING_CONFIRMATION"
	StateAwaitingRefillID     UserState = "AWAITING_REFILL_ID"
	StateAwaitingBroadcast    UserState = "AWAITING_BROADCAST"
	StateAwaitingBanID        UserState = "AWAITING_BAN_ID"
	StateAwaitingUnbanID      UserState = "AWAITING_UNBAN_ID"
)

// AllStates lists every non-idle conversation state.
var AllStates = []UserState{
	StateAwaitingServiceID,
	StateAwaitingQuantity,
	StateAwaitingTarget,
	StateAwaitingConfirmation,
	StateAwaitingRefillID,
	StateAwaitingBroadcast,
	StateAwaitingBanID,
	StateAwaitingUnbanID,
}

// Valid reports whether s belongs to the closed state set. A persisted value
// outside this set is treated as a fault and reset by the dispatcher.
func (s UserState) Valid() bool {
	if s == StateIdle {
		return true
	}
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether a conversation flow is in progress.
func (s UserState) Active() bool {
	return s != StateIdle
}

// User is the per-user aggregate: identity, wallet, conversation state, and
// append-only order/transaction history.
type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Username     string        `json:"username"`
	Balance      int64         `json:"balance"`
	RegisteredAt time.Time     `json:"registeredAt"`
	State        UserState     `json:"state,omitempty"`
	OrderDraft   *OrderDraft   `json:"orderData,omitempty"`
	Orders       []Order       `json:"orders"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// ClearFlow resets the conversation state and drops any order draft.
// State and draft are always cleared together.
func (u *User) ClearFlow() {
	u.State = StateIdle
	u.OrderDraft = nil
}

// BanAction distinguishes audit log entries.
type BanAction string

const (
	BanActionBan   BanAction = "ban"
	BanActionUnban BanAction = "unban"
)

// BanLogEntry is an append-only audit record of a moderation action.
type BanLogEntry struct {
	UserID    int64     `json:"userId"`
	Action    BanAction `json:"action"`
	AdminID   int64     `json:"adminId"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the root aggregate persisted as a single JSON document.
type State struct {
	Users      []*User       `json:"users"`
	BannedLog  []BanLogEntry `json:"bannedLog,omitempty"`
	LastBackup time.Time     `json:"lastBackup"`
}

// FindUser returns the user with the given id, or nil.
func (s *State) FindUser(id int64) *User {
	for _, u := range s.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceKind string

const (
	BalanceKindFree      BalanceKind = "free"
	BalanceKindPermanent BalanceKind = "permanent"
	BalanceKindMixed     BalanceKind = "mixed"
)

// IsCreditable reports whether the kind may be targeted by add/set operations.
// Mixed is only ever produced by a subtract that spills from free into permanent.
func (k BalanceKind) IsCreditable() bool {
	return k == BalanceKindFree || k == BalanceKindPermanent
}

const (
	PurchaseStatusNew        = "NEW"
	PurchaseStatusProcessing = "PROCESSING"
	PurchaseStatusConfirmed  = "CONFIRMED"
	PurchaseStatusRejected   = "REJECTED"
)

type User struct {
	ID           int       `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Transaction is one immutable row of the points ledger. FreeAfter and
// PermanentAfter are the balance snapshots taken right after this entry was
// applied; the row with the largest ID per user carries that user's current
// balances.
type Transaction struct {
	ID             int64           `db:"id"`
	UserID         int             `db:"user_id"`
	Amount         decimal.Decimal `db:"amount"`
	FreeAfter      decimal.Decimal `db:"free_balance_after"`
	PermanentAfter decimal.Decimal `db:"permanent_balance_after"`
	Kind           BalanceKind     `db:"balance_kind"`
	Description    string          `db:"description"`
	Category       string          `db:"category"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Balance is the denormalized per-user cache of the latest snapshots.
type Balance struct {
	UserID    int             `db:"user_id"`
	Free      decimal.Decimal `db:"free_balance"`
	Permanent decimal.Decimal `db:"permanent_balance"`
}

func (b *Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Permanent)
}

type Purchase struct {
	ID          int             `db:"id"`
	UserID      int             `db:"user_id"`
	OrderNumber string          `db:"order_number"`
	Points      decimal.Decimal `db:"points"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}

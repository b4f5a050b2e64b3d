package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountBalance is the mutable cached balance of a single wallet account.
// It is created lazily on first reference, mutated only by the ledger
// service, and never deleted. Amounts are int64 minor currency units.
type AccountBalance struct {
	AccountID      uuid.UUID  `json:"account_id"`
	Balance        int64      `json:"balance"`
	TotalEarned    int64      `json:"total_earned"`
	TotalSpent     int64      `json:"total_spent"`
	LastRechargeAt *time.Time `json:"last_recharge_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewAccountBalance returns a zero-balance account created now.
func NewAccountBalance(accountID uuid.UUID) *AccountBalance {
	now := time.Now().UTC()
	return &AccountBalance{
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Consistent reports whether the core ledger invariant holds:
// balance == totalEarned - totalSpent.
func (a *AccountBalance) Consistent() bool {
	return a.Balance == a.TotalEarned-a.TotalSpent
}

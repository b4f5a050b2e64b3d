package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryDirection is the sign of a ledger entry.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "CREDIT"
	DirectionDebit  EntryDirection = "DEBIT"
)

// EntryReason tags why the money moved.
type EntryReason string

const (
	ReasonRecharge       EntryReason = "RECHARGE"
	ReasonShipmentCharge EntryReason = "SHIPMENT_CHARGE"
	ReasonRefund         EntryReason = "REFUND"
	ReasonAdjustment     EntryReason = "ADJUSTMENT"
)

// EntryStatus is the lifecycle state of an entry. Entries are written only
// at commit time, so every persisted entry is COMPLETED.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "COMPLETED"
)

// LedgerEntry is one immutable signed movement in an account's transaction
// log. BalanceAfter snapshots the account balance at commit time; entries
// are totally ordered per account by (CreatedAt, ID).
type LedgerEntry struct {
	ID                uuid.UUID      `json:"id"`
	AccountID         uuid.UUID      `json:"account_id"`
	Direction         EntryDirection `json:"direction"`
	Amount            int64          `json:"amount"` // minor units, always > 0
	Reason            EntryReason    `json:"reason"`
	Description       string         `json:"description"`
	BalanceAfter      int64          `json:"balance_after"`
	Status            EntryStatus    `json:"status"`
	ActorID           *string        `json:"actor_id,omitempty"`
	ExternalReference *string        `json:"external_reference,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Signed returns the entry amount with its direction applied:
// positive for credits, negative for debits.
func (e *LedgerEntry) Signed() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}

// IsRefund reports whether this credit compensates a prior debit.
func (e *LedgerEntry) IsRefund() bool {
	return e.Direction == DirectionCredit && e.Reason == ReasonRefund
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscrepancyCode classifies a reconciliation mismatch.
type DiscrepancyCode string

const (
	// Stored balance differs from the fold of all entries.
	DiscrepancyStoredBalance DiscrepancyCode = "STORED_BALANCE_MISMATCH"
	// An entry's balance_after snapshot differs from the running fold.
	DiscrepancySnapshot DiscrepancyCode = "SNAPSHOT_MISMATCH"
	// The latest entry's balance_after differs from the stored balance.
	DiscrepancyLastEntry DiscrepancyCode = "LAST_ENTRY_MISMATCH"
	// total_earned differs from the sum of non-refund credits.
	DiscrepancyEarned DiscrepancyCode = "EARNED_MISMATCH"
	// total_spent differs from debits minus refunded credits.
	DiscrepancySpent DiscrepancyCode = "SPENT_MISMATCH"
	// Entries exist but the account row is missing.
	DiscrepancyMissingAccount DiscrepancyCode = "ACCOUNT_ROW_MISSING"
)

// Discrepancy describes one mismatch found during reconciliation.
type Discrepancy struct {
	Code     DiscrepancyCode `json:"code"`
	EntryID  *uuid.UUID      `json:"entry_id,omitempty"`
	Expected int64           `json:"expected"`
	Actual   int64           `json:"actual"`
	Detail   string          `json:"detail"`
}

// ReconciliationReport is the computed audit result for one account.
// It is never persisted.
type ReconciliationReport struct {
	AccountID       uuid.UUID     `json:"account_id"`
	StoredBalance   int64         `json:"stored_balance"`
	ComputedBalance int64         `json:"computed_balance"`
	EntryCount      int           `json:"entry_count"`
	Discrepancies   []Discrepancy `json:"discrepancies"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// Healthy reports whether reconciliation found no drift.
func (r *ReconciliationReport) Healthy() bool {
	return len(r.Discrepancies) == 0
}

package ports

import (
	"context"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// AccountRepository defines persistence operations for account balances.
// Methods accepting pgx.Tx are used inside transaction blocks for
// pessimistic locking; every balance write happens under such a lock.
type AccountRepository interface {
	Create(ctx context.Context, tx pgx.Tx, account *domain.AccountBalance) error
	Get(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.AccountBalance, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, account *domain.AccountBalance) error
}

// EntryRepository defines persistence operations for the append-only
// transaction log. Entries are immutable: there is no update or delete.
type EntryRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	// List returns a page of entries, newest first, plus the total count.
	List(ctx context.Context, params EntryListParams) ([]domain.LedgerEntry, int64, error)
	// ListAllAscending returns the full per-account log in commit order,
	// for reconciliation folds.
	ListAllAscending(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error)
	Latest(ctx context.Context, accountID uuid.UUID) (*domain.LedgerEntry, error)
	Summary(ctx context.Context, accountID uuid.UUID) (*LedgerSummary, error)
}

// EntryListParams holds filter + pagination for listing ledger entries.
type EntryListParams struct {
	AccountID uuid.UUID
	Direction *domain.EntryDirection
	Reason    *domain.EntryReason
	From      *int64 // Unix timestamp
	To        *int64 // Unix timestamp
	Page      int
	PageSize  int
}

// LedgerSummary holds aggregate figures over one account's log. It is a
// display projection; the AccountBalance row stays authoritative for
// "current balance now".
type LedgerSummary struct {
	TotalCredits int64      `json:"total_credits"`
	TotalDebits  int64      `json:"total_debits"`
	EntryCount   int64      `json:"entry_count"`
	LastEntryAt  *time.Time `json:"last_entry_at,omitempty"`
}

// IdempotencyRepository defines durable storage for the dedup guard.
type IdempotencyRepository interface {
	Create(ctx context.Context, record *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

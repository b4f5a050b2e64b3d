package ports

import (
	"context"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// CreditRequest credits an account unconditionally.
type CreditRequest struct {
	AccountID         uuid.UUID
	Amount            int64 // minor units, > 0
	Description       string
	Reason            domain.EntryReason // RECHARGE sets last_recharge_at
	ExternalReference *string
	ActorID           *string
}

// DebitRequest debits an account, gated by the sufficiency check.
type DebitRequest struct {
	AccountID         uuid.UUID
	Amount            int64
	Description       string
	ExternalReference *string
	ActorID           *string
}

// RefundRequest reverses the spend-side effect of a prior debit. The ledger
// does not verify the prior debit exists; dedup is the caller's job.
type RefundRequest struct {
	AccountID         uuid.UUID
	Amount            int64
	Description       string
	ExternalReference *string
	ActorID           *string
}

// AdjustRequest is an administrative correction attributed to an actor.
type AdjustRequest struct {
	AccountID   uuid.UUID
	Amount      int64
	Direction   domain.EntryDirection
	Description string
	ActorID     string
}

// SufficiencyResult is the outcome of a pure balance inquiry.
type SufficiencyResult struct {
	Sufficient     bool  `json:"sufficient"`
	CurrentBalance int64 `json:"current_balance"`
	Shortfall      int64 `json:"shortfall,omitempty"`
	AccountExists  bool  `json:"account_exists"`
}

// LedgerService is the in-process operation contract of the ledger engine.
// Every mutating call is one atomic storage transaction spanning the balance
// read, balance write, and entry append.
type LedgerService interface {
	GetOrCreate(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error)
	// GetBalance is a pure read; returns AccountNotFound if absent.
	GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error)
	// CheckSufficient is a pure read; it never creates an account.
	CheckSufficient(ctx context.Context, accountID uuid.UUID, amount int64) (*SufficiencyResult, error)
	Credit(ctx context.Context, req CreditRequest) (*domain.LedgerEntry, error)
	Debit(ctx context.Context, req DebitRequest) (*domain.LedgerEntry, error)
	Refund(ctx context.Context, req RefundRequest) (*domain.LedgerEntry, error)
	Adjust(ctx context.Context, req AdjustRequest) (*domain.LedgerEntry, error)
	// ResetBalance drives the balance to zero through a compensating
	// adjustment entry. Returns nil when the balance is already zero.
	ResetBalance(ctx context.Context, accountID uuid.UUID, actorID string) (*domain.LedgerEntry, error)
}

// ReconciliationService recomputes balances from the entry log. Read-only.
type ReconciliationService interface {
	Reconcile(ctx context.Context, accountID uuid.UUID) (*domain.ReconciliationReport, error)
}

// HistoryService provides read-only projections over the entry log.
type HistoryService interface {
	List(ctx context.Context, params EntryListParams) ([]domain.LedgerEntry, int64, error)
	Summary(ctx context.Context, accountID uuid.UUID) (*LedgerSummary, error)
}

// PayerResolver maps a cost event to the account whose ledger must be
// invoked. Resolve is a stateless pure mapping; Apply executes it.
type PayerResolver interface {
	Resolve(event domain.CostEvent) (*domain.PayerAction, error)
	// Apply resolves and, when the event charges an account, debits it with
	// the shipment id as external reference. Returns nil entry for no-ops.
	Apply(ctx context.Context, event domain.CostEvent) (*domain.LedgerEntry, error)
}

// EventPublisher emits committed ledger entries to the platform event bus.
// Publishing is best-effort and never blocks a committed mutation.
type EventPublisher interface {
	PublishEntry(ctx context.Context, entry *domain.LedgerEntry) error
	Close()
}

// IdempotencyCache is the fast dedup layer in front of IdempotencyRepository.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TokenClaims carries the verified identity of a platform caller.
type TokenClaims struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the token grants the given scope.
func (c *TokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenService issues and validates platform service tokens.
type TokenService interface {
	Generate(subject string, scopes []string) (string, time.Time, error)
	Validate(token string) (*TokenClaims, error)
}

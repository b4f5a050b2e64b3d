package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService with pessimistic locking.
// Every mutation is one database transaction: lock the account row, apply
// the counter math, append the entry, commit. The entry log is the source
// of truth; the account row is the cache the reconciliation engine audits.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	entryRepo   ports.EntryRepository
	transactor  ports.DBTransactor
	publisher   ports.EventPublisher
	isConflict  func(error) bool
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. isConflict classifies
// storage errors as transient commit contention (serialization failures,
// deadlocks); pass postgres.IsSerializationError in production wiring.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	entryRepo ports.EntryRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	isConflict func(error) bool,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if isConflict == nil {
		isConflict = func(error) bool { return false }
	}
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		transactor:  transactor,
		publisher:   publisher,
		isConflict:  isConflict,
		log:         log,
	}
}

// mutation is the normalized form every ledger write reduces to.
type mutation struct {
	accountID         uuid.UUID
	direction         domain.EntryDirection
	amount            int64
	reason            domain.EntryReason
	description       string
	externalReference *string
	actorID           *string
}

// GetOrCreate returns the account balance, creating a zero-balance row if
// the account has never been referenced.
func (s *LedgerServiceImpl) GetOrCreate(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account != nil {
		return account, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err = s.lockOrCreate(ctx, dbTx, accountID)
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.storageError("commit tx", err)
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Msg("account created")
	return account, nil
}

// GetBalance is a pure read. It never creates an account.
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}

// CheckSufficient reports whether accountID can cover amount. Pure read; a
// missing account is reported as insufficient with the full amount short.
func (s *LedgerServiceImpl) CheckSufficient(ctx context.Context, accountID uuid.UUID, amount int64) (*ports.SufficiencyResult, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return &ports.SufficiencyResult{
			Sufficient:     false,
			CurrentBalance: 0,
			Shortfall:      amount,
			AccountExists:  false,
		}, nil
	}

	result := &ports.SufficiencyResult{
		Sufficient:     account.Balance >= amount,
		CurrentBalance: account.Balance,
		AccountExists:  true,
	}
	if !result.Sufficient {
		result.Shortfall = amount - account.Balance
	}
	return result, nil
}

// Credit adds funds unconditionally. Reason RECHARGE also stamps
// last_recharge_at.
func (s *LedgerServiceImpl) Credit(ctx context.Context, req ports.CreditRequest) (*domain.LedgerEntry, error) {
	reason := req.Reason
	if reason == "" {
		reason = domain.ReasonRecharge
	}
	return s.apply(ctx, mutation{
		accountID:         req.AccountID,
		direction:         domain.DirectionCredit,
		amount:            req.Amount,
		reason:            reason,
		description:       req.Description,
		externalReference: req.ExternalReference,
		actorID:           req.ActorID,
	})
}

// Debit removes funds, gated by the sufficiency check inside the locked
// transaction. A shortfall mutates nothing.
func (s *LedgerServiceImpl) Debit(ctx context.Context, req ports.DebitRequest) (*domain.LedgerEntry, error) {
	return s.apply(ctx, mutation{
		accountID:         req.AccountID,
		direction:         domain.DirectionDebit,
		amount:            req.Amount,
		reason:            domain.ReasonShipmentCharge,
		description:       req.Description,
		externalReference: req.ExternalReference,
		actorID:           req.ActorID,
	})
}

// Refund compensates a prior debit: balance goes up and total_spent goes
// down. No matching-debit check happens here; calling it twice refunds
// twice. Callers needing dedup use the idempotency guard.
func (s *LedgerServiceImpl) Refund(ctx context.Context, req ports.RefundRequest) (*domain.LedgerEntry, error) {
	return s.apply(ctx, mutation{
		accountID:         req.AccountID,
		direction:         domain.DirectionCredit,
		amount:            req.Amount,
		reason:            domain.ReasonRefund,
		description:       req.Description,
		externalReference: req.ExternalReference,
		actorID:           req.ActorID,
	})
}

// Adjust applies an administrative correction attributed to an actor. A
// debit adjustment still honors the sufficiency check.
func (s *LedgerServiceImpl) Adjust(ctx context.Context, req ports.AdjustRequest) (*domain.LedgerEntry, error) {
	if req.Direction != domain.DirectionCredit && req.Direction != domain.DirectionDebit {
		return nil, apperror.Validation("direction must be CREDIT or DEBIT")
	}
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, apperror.Validation("actor_id is required for adjustments")
	}

	actorID := req.ActorID
	return s.apply(ctx, mutation{
		accountID:   req.AccountID,
		direction:   req.Direction,
		amount:      req.Amount,
		reason:      domain.ReasonAdjustment,
		description: fmt.Sprintf("[admin:%s] %s", req.ActorID, req.Description),
		actorID:     &actorID,
	})
}

// ResetBalance drives the balance to zero through a single compensating
// adjustment entry. Returns nil without writing when already zero.
func (s *LedgerServiceImpl) ResetBalance(ctx context.Context, accountID uuid.UUID, actorID string) (*domain.LedgerEntry, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, apperror.Validation("actor_id is required for adjustments")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, s.storageError("lock account", err)
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if account.Balance == 0 {
		return nil, nil
	}

	direction := domain.DirectionDebit
	amount := account.Balance
	if account.Balance < 0 {
		direction = domain.DirectionCredit
		amount = -account.Balance
	}

	entry, err := s.mutateLocked(ctx, dbTx, account, mutation{
		accountID:   accountID,
		direction:   direction,
		amount:      amount,
		reason:      domain.ReasonAdjustment,
		description: fmt.Sprintf("[admin:%s] balance reset to zero", actorID),
		actorID:     &actorID,
	})
	if err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.storageError("commit tx", err)
	}

	s.publish(ctx, entry)
	s.log.Info().
		Str("account_id", accountID.String()).
		Str("actor_id", actorID).
		Int64("amount", entry.Signed()).
		Msg("balance reset")
	return entry, nil
}

// apply runs one locked mutation transaction end to end.
func (s *LedgerServiceImpl) apply(ctx context.Context, m mutation) (*domain.LedgerEntry, error) {
	if m.amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if strings.TrimSpace(m.description) == "" {
		return nil, apperror.Validation("description is required")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.lockOrCreate(ctx, dbTx, m.accountID)
	if err != nil {
		return nil, err
	}

	entry, err := s.mutateLocked(ctx, dbTx, account, m)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, s.storageError("commit tx", err)
	}

	s.publish(ctx, entry)
	s.log.Info().
		Str("entry_id", entry.ID.String()).
		Str("account_id", m.accountID.String()).
		Str("direction", string(m.direction)).
		Str("reason", string(m.reason)).
		Int64("amount", m.amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg("ledger entry committed")

	return entry, nil
}

// mutateLocked applies the counter math and appends the entry. The caller
// holds the row lock and owns the transaction lifecycle.
func (s *LedgerServiceImpl) mutateLocked(ctx context.Context, dbTx pgx.Tx, account *domain.AccountBalance, m mutation) (*domain.LedgerEntry, error) {
	now := time.Now().UTC()

	switch m.direction {
	case domain.DirectionCredit:
		account.Balance += m.amount
		if m.reason == domain.ReasonRefund {
			// Refunds undo spend rather than count as new earnings.
			account.TotalSpent -= m.amount
		} else {
			account.TotalEarned += m.amount
			if m.reason == domain.ReasonRecharge {
				account.LastRechargeAt = &now
			}
		}
	case domain.DirectionDebit:
		if account.Balance < m.amount {
			return nil, apperror.ErrInsufficientFunds(account.Balance, m.amount-account.Balance)
		}
		account.Balance -= m.amount
		account.TotalSpent += m.amount
	default:
		return nil, apperror.Validation("direction must be CREDIT or DEBIT")
	}
	account.UpdatedAt = now

	if err := s.accountRepo.UpdateBalances(ctx, dbTx, account); err != nil {
		return nil, s.storageError("update balances", err)
	}

	// UUIDv7 keeps entry ids themselves creation-ordered, so the
	// (created_at, id) tie-break follows commit order too.
	entryID, err := uuid.NewV7()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("new entry id: %w", err))
	}
	entry := &domain.LedgerEntry{
		ID:                entryID,
		AccountID:         account.AccountID,
		Direction:         m.direction,
		Amount:            m.amount,
		Reason:            m.reason,
		Description:       m.description,
		BalanceAfter:      account.Balance,
		Status:            domain.EntryStatusCompleted,
		ActorID:           m.actorID,
		ExternalReference: m.externalReference,
		CreatedAt:         now,
	}
	if err := s.entryRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, s.storageError("create entry", err)
	}

	return entry, nil
}

// lockOrCreate returns the locked account row, inserting a zero-balance row
// first when absent. The insert is ON CONFLICT DO NOTHING, so losing a
// creation race still converges on the winner's row.
func (s *LedgerServiceImpl) lockOrCreate(ctx context.Context, dbTx pgx.Tx, accountID uuid.UUID) (*domain.AccountBalance, error) {
	account, err := s.accountRepo.GetForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, s.storageError("lock account", err)
	}
	if account != nil {
		return account, nil
	}

	fresh := domain.NewAccountBalance(accountID)
	if err := s.accountRepo.Create(ctx, dbTx, fresh); err != nil {
		return nil, s.storageError("create account", err)
	}
	account, err = s.accountRepo.GetForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, s.storageError("relock account", err)
	}
	if account == nil {
		return nil, apperror.InternalError(fmt.Errorf("account %s vanished after create", accountID))
	}
	return account, nil
}

// storageError classifies a storage failure anywhere in the transaction:
// serialization failures and deadlocks become the retryable StorageConflict,
// everything else stays internal.
func (s *LedgerServiceImpl) storageError(op string, err error) *apperror.AppError {
	if s.isConflict(err) {
		return apperror.ErrStorageConflict(err)
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// publish emits the committed entry, best-effort.
func (s *LedgerServiceImpl) publish(ctx context.Context, entry *domain.LedgerEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntry(ctx, entry); err != nil {
		s.log.Warn().
			Err(err).
			Str("entry_id", entry.ID.String()).
			Msg("failed to publish entry event")
	}
}

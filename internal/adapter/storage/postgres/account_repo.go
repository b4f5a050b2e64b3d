package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a zero-balance account row inside a transaction. A
// concurrent creator winning the race is not an error: the caller re-reads
// the row with GetForUpdate afterwards.
func (r *AccountRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.AccountBalance) error {
	query := `INSERT INTO account_balances (account_id, balance, total_earned, total_spent, last_recharge_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id) DO NOTHING`

	_, err := tx.Exec(ctx, query,
		a.AccountID, a.Balance, a.TotalEarned, a.TotalSpent,
		a.LastRechargeAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account balance: %w", err)
	}
	return nil
}

// Get fetches an account balance without locking. Returns nil if absent.
func (r *AccountRepo) Get(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	query := `SELECT account_id, balance, total_earned, total_spent, last_recharge_at, created_at, updated_at
		FROM account_balances WHERE account_id = $1`

	a := &domain.AccountBalance{}
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID, &a.Balance, &a.TotalEarned, &a.TotalSpent,
		&a.LastRechargeAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account balance: %w", err)
	}
	return a, nil
}

// GetForUpdate fetches an account balance with pessimistic locking.
// This MUST be called within a transaction.
func (r *AccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.AccountBalance, error) {
	query := `SELECT account_id, balance, total_earned, total_spent, last_recharge_at, created_at, updated_at
		FROM account_balances WHERE account_id = $1 FOR UPDATE`

	a := &domain.AccountBalance{}
	err := tx.QueryRow(ctx, query, accountID).Scan(
		&a.AccountID, &a.Balance, &a.TotalEarned, &a.TotalSpent,
		&a.LastRechargeAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account balance for update: %w", err)
	}
	return a, nil
}

// UpdateBalances writes the balance and lifetime counters within a
// transaction. The row must have been locked with GetForUpdate first.
func (r *AccountRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, a *domain.AccountBalance) error {
	query := `UPDATE account_balances
		SET balance = $1, total_earned = $2, total_spent = $3, last_recharge_at = $4, updated_at = $5
		WHERE account_id = $6`

	tag, err := tx.Exec(ctx, query,
		a.Balance, a.TotalEarned, a.TotalSpent, a.LastRechargeAt, a.UpdatedAt, a.AccountID,
	)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", a.AccountID)
	}
	return nil
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount() *domain.AccountBalance {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.AccountBalance{
		AccountID:   uuid.New(),
		Balance:     30000,
		TotalEarned: 50000,
		TotalSpent:  20000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func accountColumns() []string {
	return []string{"account_id", "balance", "total_earned", "total_spent", "last_recharge_at", "created_at", "updated_at"}
}

func accountRow(a *domain.AccountBalance) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns()).AddRow(
		a.AccountID, a.Balance, a.TotalEarned, a.TotalSpent,
		a.LastRechargeAt, a.CreatedAt, a.UpdatedAt,
	)
}

func TestAccountRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO account_balances").
		WithArgs(a.AccountID, a.Balance, a.TotalEarned, a.TotalSpent,
			a.LastRechargeAt, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM account_balances WHERE account_id").
		WithArgs(a.AccountID).
		WillReturnRows(accountRow(a))

	result, err := repo.Get(context.Background(), a.AccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.AccountID, result.AccountID)
	assert.Equal(t, a.Balance, result.Balance)
	assert.True(t, result.Consistent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM account_balances WHERE account_id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(accountColumns()))

	result, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM account_balances WHERE account_id .+ FOR UPDATE").
		WithArgs(a.AccountID).
		WillReturnRows(accountRow(a))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetForUpdate(context.Background(), tx, a.AccountID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.Balance, result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdateBalances(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE account_balances").
		WithArgs(a.Balance, a.TotalEarned, a.TotalSpent, a.LastRechargeAt, a.UpdatedAt, a.AccountID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalances(context.Background(), tx, a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdateBalances_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE account_balances").
		WithArgs(a.Balance, a.TotalEarned, a.TotalSpent, a.LastRechargeAt, a.UpdatedAt, a.AccountID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateBalances(context.Background(), tx, a)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

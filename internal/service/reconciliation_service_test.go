package service

import (
	"context"
	"testing"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports/mocks"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconTestDeps struct {
	svc         *ReconciliationServiceImpl
	accountRepo *mocks.MockAccountRepository
	entryRepo   *mocks.MockEntryRepository
	ctrl        *gomock.Controller
}

func setupReconciliationService(t *testing.T) *reconTestDeps {
	ctrl := gomock.NewController(t)
	d := &reconTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		entryRepo:   mocks.NewMockEntryRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewReconciliationService(d.accountRepo, d.entryRepo, zerolog.Nop())
	return d
}

func entryAt(accountID uuid.UUID, dir domain.EntryDirection, reason domain.EntryReason, amount, after int64, at time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		Direction:    dir,
		Amount:       amount,
		Reason:       reason,
		Description:  "test entry",
		BalanceAfter: after,
		Status:       domain.EntryStatusCompleted,
		CreatedAt:    at,
	}
}

func TestReconciliationService_Healthy(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	// credit 500.00, debit 200.00, refund 200.00 => balance 500.00
	entries := []domain.LedgerEntry{
		entryAt(accountID, domain.DirectionCredit, domain.ReasonRecharge, 50000, 50000, now.Add(-3*time.Hour)),
		entryAt(accountID, domain.DirectionDebit, domain.ReasonShipmentCharge, 20000, 30000, now.Add(-2*time.Hour)),
		entryAt(accountID, domain.DirectionCredit, domain.ReasonRefund, 20000, 50000, now.Add(-time.Hour)),
	}
	account := fundedAccount(accountID, 50000, 50000, 0)

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(account, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(entries, nil)

	report, err := d.svc.Reconcile(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, report.Healthy())
	assert.Equal(t, int64(50000), report.ComputedBalance)
	assert.Equal(t, int64(50000), report.StoredBalance)
	assert.Equal(t, 3, report.EntryCount)
}

func TestReconciliationService_StoredBalanceDrift(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	entries := []domain.LedgerEntry{
		entryAt(accountID, domain.DirectionCredit, domain.ReasonRecharge, 50000, 50000, now),
	}
	// Corrupted cache row: balance and counters disagree with the log.
	account := fundedAccount(accountID, 49000, 49000, 0)

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(account, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(entries, nil)

	report, err := d.svc.Reconcile(ctx, accountID)
	require.NoError(t, err)
	assert.False(t, report.Healthy())

	codes := make(map[domain.DiscrepancyCode]bool)
	for _, disc := range report.Discrepancies {
		codes[disc.Code] = true
	}
	assert.True(t, codes[domain.DiscrepancyStoredBalance])
	assert.True(t, codes[domain.DiscrepancyLastEntry])
	assert.True(t, codes[domain.DiscrepancyEarned])
}

func TestReconciliationService_ReportsFirstSnapshotBreakOnly(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	now := time.Now().UTC()

	// Snapshot drifts at the second entry and stays wrong afterwards.
	broken := entryAt(accountID, domain.DirectionDebit, domain.ReasonShipmentCharge, 10000, 45000, now.Add(-2*time.Hour))
	entries := []domain.LedgerEntry{
		entryAt(accountID, domain.DirectionCredit, domain.ReasonRecharge, 50000, 50000, now.Add(-3*time.Hour)),
		broken,
		entryAt(accountID, domain.DirectionDebit, domain.ReasonShipmentCharge, 10000, 35000, now.Add(-time.Hour)),
	}
	account := fundedAccount(accountID, 30000, 50000, 20000)

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(account, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(entries, nil)

	report, err := d.svc.Reconcile(ctx, accountID)
	require.NoError(t, err)

	var snapshots []domain.Discrepancy
	for _, disc := range report.Discrepancies {
		if disc.Code == domain.DiscrepancySnapshot {
			snapshots = append(snapshots, disc)
		}
	}
	require.Len(t, snapshots, 1)
	require.NotNil(t, snapshots[0].EntryID)
	assert.Equal(t, broken.ID, *snapshots[0].EntryID)
	assert.Equal(t, int64(40000), snapshots[0].Expected)
	assert.Equal(t, int64(45000), snapshots[0].Actual)
}

func TestReconciliationService_MissingAccountRow(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	entries := []domain.LedgerEntry{
		entryAt(accountID, domain.DirectionCredit, domain.ReasonRecharge, 1000, 1000, time.Now().UTC()),
	}

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(nil, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(entries, nil)

	report, err := d.svc.Reconcile(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, domain.DiscrepancyMissingAccount, report.Discrepancies[0].Code)
	assert.Equal(t, int64(1000), report.ComputedBalance)
}

func TestReconciliationService_UnknownAccount(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(nil, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(nil, nil)

	_, err := d.svc.Reconcile(ctx, accountID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_002", appErr.Code)
}

func TestReconciliationService_EmptyLogNonZeroBalance(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	account := fundedAccount(accountID, 777, 777, 0)

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(account, nil)
	d.entryRepo.EXPECT().ListAllAscending(ctx, accountID).Return(nil, nil)

	report, err := d.svc.Reconcile(ctx, accountID)
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Equal(t, int64(0), report.ComputedBalance)
	assert.Equal(t, int64(777), report.StoredBalance)
}

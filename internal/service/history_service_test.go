package service

import (
	"context"
	"testing"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/internal/core/ports/mocks"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type historyTestDeps struct {
	svc         *HistoryServiceImpl
	accountRepo *mocks.MockAccountRepository
	entryRepo   *mocks.MockEntryRepository
	ctrl        *gomock.Controller
}

func setupHistoryService(t *testing.T) *historyTestDeps {
	ctrl := gomock.NewController(t)
	d := &historyTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		entryRepo:   mocks.NewMockEntryRepository(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewHistoryService(d.accountRepo, d.entryRepo, zerolog.Nop())
	return d
}

func TestHistoryService_List_ClampsPagination(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.entryRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, maxPageSize, params.PageSize)
			return []domain.LedgerEntry{}, 0, nil
		})

	_, _, err := d.svc.List(ctx, ports.EntryListParams{
		AccountID: accountID,
		Page:      -3,
		PageSize:  5000,
	})
	require.NoError(t, err)
}

func TestHistoryService_List_DefaultPageSize(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.entryRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
			assert.Equal(t, defaultPageSize, params.PageSize)
			return []domain.LedgerEntry{}, 0, nil
		})

	_, _, err := d.svc.List(ctx, ports.EntryListParams{AccountID: uuid.New()})
	require.NoError(t, err)
}

func TestHistoryService_List_InvalidWindow(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	from := int64(2000)
	to := int64(1000)
	_, _, err := d.svc.List(context.Background(), ports.EntryListParams{
		AccountID: uuid.New(),
		From:      &from,
		To:        &to,
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_003", appErr.Code)
}

func TestHistoryService_Summary(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()
	lastAt := time.Now().UTC()
	account := fundedAccount(accountID, 30000, 50000, 20000)

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(account, nil)
	d.entryRepo.EXPECT().Summary(ctx, accountID).Return(&ports.LedgerSummary{
		TotalCredits: 50000,
		TotalDebits:  20000,
		EntryCount:   2,
		LastEntryAt:  &lastAt,
	}, nil)

	summary, err := d.svc.Summary(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), summary.TotalCredits)
	assert.Equal(t, int64(20000), summary.TotalDebits)
	assert.Equal(t, int64(2), summary.EntryCount)
}

func TestHistoryService_Summary_AccountNotFound(t *testing.T) {
	d := setupHistoryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	d.accountRepo.EXPECT().Get(ctx, accountID).Return(nil, nil)

	_, err := d.svc.Summary(ctx, accountID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LED_002", appErr.Code)
}

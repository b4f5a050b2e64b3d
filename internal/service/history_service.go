package service

import (
	"context"
	"fmt"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HistoryServiceImpl implements ports.HistoryService: read-only projections
// over the entry log for UIs and billing exports.
type HistoryServiceImpl struct {
	accountRepo ports.AccountRepository
	entryRepo   ports.EntryRepository
	log         zerolog.Logger
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(
	accountRepo ports.AccountRepository,
	entryRepo ports.EntryRepository,
	log zerolog.Logger,
) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		log:         log,
	}
}

// List returns a page of entries, newest first, with the total count.
// Page and PageSize are clamped rather than rejected.
func (s *HistoryServiceImpl) List(ctx context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	if params.From != nil && params.To != nil && *params.From > *params.To {
		return nil, 0, apperror.Validation("from must not be after to")
	}

	entries, total, err := s.entryRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}
	return entries, total, nil
}

// Summary aggregates one account's log. The account must exist; a summary
// of a never-referenced account is AccountNotFound rather than all zeroes.
func (s *HistoryServiceImpl) Summary(ctx context.Context, accountID uuid.UUID) (*ports.LedgerSummary, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	summary, err := s.entryRepo.Summary(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("summarize entries: %w", err))
	}
	return summary, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconciliationServiceImpl implements ports.ReconciliationService. It
// recomputes an account's balance from the entry log and reports every
// way the cached row drifted from it. Strictly read-only: correcting
// drift is an explicit admin adjustment, never an automatic repair.
type ReconciliationServiceImpl struct {
	accountRepo ports.AccountRepository
	entryRepo   ports.EntryRepository
	log         zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	accountRepo ports.AccountRepository,
	entryRepo ports.EntryRepository,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		log:         log,
	}
}

// Reconcile folds the account's full entry log in commit order and checks
// the stored balance, every balance_after snapshot, and the lifetime
// earned/spent counters against it. Amounts are integer minor units, so
// every comparison is exact.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, accountID uuid.UUID) (*domain.ReconciliationReport, error) {
	account, err := s.accountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}

	entries, err := s.entryRepo.ListAllAscending(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list entries: %w", err))
	}

	if account == nil && len(entries) == 0 {
		return nil, apperror.ErrAccountNotFound()
	}

	report := &domain.ReconciliationReport{
		AccountID:     accountID,
		EntryCount:    len(entries),
		Discrepancies: []domain.Discrepancy{},
		CheckedAt:     time.Now().UTC(),
	}

	var running, earned, spent int64
	snapshotReported := false
	for i := range entries {
		e := &entries[i]
		running += e.Signed()

		// Report only the first snapshot break: everything after the
		// point of drift mismatches trivially.
		if !snapshotReported && e.BalanceAfter != running {
			entryID := e.ID
			report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
				Code:     domain.DiscrepancySnapshot,
				EntryID:  &entryID,
				Expected: running,
				Actual:   e.BalanceAfter,
				Detail:   fmt.Sprintf("entry %s snapshot %d diverges from running balance %d", e.ID, e.BalanceAfter, running),
			})
			snapshotReported = true
		}

		switch {
		case e.IsRefund():
			spent -= e.Amount
		case e.Direction == domain.DirectionCredit:
			earned += e.Amount
		default:
			spent += e.Amount
		}
	}
	report.ComputedBalance = running

	if account == nil {
		report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
			Code:     domain.DiscrepancyMissingAccount,
			Expected: running,
			Actual:   0,
			Detail:   fmt.Sprintf("%d entries exist but the account row is missing", len(entries)),
		})
		s.logOutcome(accountID, report)
		return report, nil
	}

	report.StoredBalance = account.Balance

	if account.Balance != running {
		report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
			Code:     domain.DiscrepancyStoredBalance,
			Expected: running,
			Actual:   account.Balance,
			Detail:   fmt.Sprintf("stored balance %d differs from recomputed balance %d", account.Balance, running),
		})
	}

	if last := lastEntry(entries); last != nil && last.BalanceAfter != account.Balance {
		entryID := last.ID
		report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
			Code:     domain.DiscrepancyLastEntry,
			EntryID:  &entryID,
			Expected: last.BalanceAfter,
			Actual:   account.Balance,
			Detail:   fmt.Sprintf("latest entry snapshot %d differs from stored balance %d", last.BalanceAfter, account.Balance),
		})
	}

	if account.TotalEarned != earned {
		report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
			Code:     domain.DiscrepancyEarned,
			Expected: earned,
			Actual:   account.TotalEarned,
			Detail:   fmt.Sprintf("total_earned %d differs from non-refund credits %d", account.TotalEarned, earned),
		})
	}
	if account.TotalSpent != spent {
		report.Discrepancies = append(report.Discrepancies, domain.Discrepancy{
			Code:     domain.DiscrepancySpent,
			Expected: spent,
			Actual:   account.TotalSpent,
			Detail:   fmt.Sprintf("total_spent %d differs from debits minus refunds %d", account.TotalSpent, spent),
		})
	}

	s.logOutcome(accountID, report)
	return report, nil
}

func (s *ReconciliationServiceImpl) logOutcome(accountID uuid.UUID, report *domain.ReconciliationReport) {
	if report.Healthy() {
		s.log.Info().
			Str("account_id", accountID.String()).
			Int("entry_count", report.EntryCount).
			Msg("reconciliation clean")
		return
	}
	s.log.Warn().
		Str("account_id", accountID.String()).
		Int("entry_count", report.EntryCount).
		Int("discrepancies", len(report.Discrepancies)).
		Msg("reconciliation found drift")
}

func lastEntry(entries []domain.LedgerEntry) *domain.LedgerEntry {
	if len(entries) == 0 {
		return nil
	}
	return &entries[len(entries)-1]
}

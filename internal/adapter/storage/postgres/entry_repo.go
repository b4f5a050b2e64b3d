package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, account_id, direction, amount, reason, description,
		balance_after, status, actor_id, external_reference, created_at`

// EntryRepo implements ports.EntryRepository. The ledger_entries table is
// append-only; nothing here updates or deletes a row.
type EntryRepo struct {
	pool Pool
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(pool Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *EntryRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, account_id, direction, amount, reason, description,
		balance_after, status, actor_id, external_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.AccountID, e.Direction, e.Amount, e.Reason, e.Description,
		e.BalanceAfter, e.Status, e.ActorID, e.ExternalReference, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetByID fetches an entry by UUID.
func (r *EntryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`
	return r.scanEntry(r.pool.QueryRow(ctx, query, id))
}

// Latest fetches the most recent entry for an account, or nil if the log is
// empty.
func (r *EntryRepo) Latest(ctx context.Context, accountID uuid.UUID) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return r.scanEntry(r.pool.QueryRow(ctx, query, accountID))
}

// List fetches entries newest-first with filtering and pagination.
func (r *EntryRepo) List(ctx context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("account_id = $%d", argIdx))
	args = append(args, params.AccountID)
	argIdx++

	if params.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argIdx))
		args = append(args, *params.Direction)
		argIdx++
	}
	if params.Reason != nil {
		conditions = append(conditions, fmt.Sprintf("reason = $%d", argIdx))
		args = append(args, *params.Reason)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	listQuery := fmt.Sprintf(`SELECT `+entryColumns+` FROM ledger_entries WHERE %s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAllAscending returns the complete per-account log in commit order.
// Reconciliation folds over this; it is unbounded by design.
func (r *EntryRepo) ListAllAscending(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries ascending: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Summary returns aggregate figures over an account's log.
func (r *EntryRepo) Summary(ctx context.Context, accountID uuid.UUID) (*ports.LedgerSummary, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0),
		COUNT(*),
		MAX(created_at)
		FROM ledger_entries WHERE account_id = $1`

	s := &ports.LedgerSummary{}
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&s.TotalCredits, &s.TotalDebits, &s.EntryCount, &s.LastEntryAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger summary: %w", err)
	}
	return s, nil
}

func (r *EntryRepo) scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	e := &domain.LedgerEntry{}
	err := row.Scan(
		&e.ID, &e.AccountID, &e.Direction, &e.Amount, &e.Reason, &e.Description,
		&e.BalanceAfter, &e.Status, &e.ActorID, &e.ExternalReference, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	return e, nil
}

func scanEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.AccountID, &e.Direction, &e.Amount, &e.Reason, &e.Description,
			&e.BalanceAfter, &e.Status, &e.ActorID, &e.ExternalReference, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

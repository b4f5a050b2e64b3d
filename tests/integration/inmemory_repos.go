package integration

import (
	"context"
	"sync"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.AccountBalance
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.AccountBalance)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, tx pgx.Tx, account *domain.AccountBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.AccountID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) Get(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*domain.AccountBalance, error) {
	return r.Get(ctx, accountID)
}

func (r *inMemoryAccountRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, account *domain.AccountBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	cp.UpdatedAt = time.Now().UTC()
	r.accounts[account.AccountID] = &cp
	return nil
}

// corrupt mutates the stored row directly, bypassing the ledger service.
// Used to simulate balance drift for reconciliation tests.
func (r *inMemoryAccountRepo) corrupt(accountID uuid.UUID, fn func(*domain.AccountBalance)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		fn(a)
	}
}

// --- In-Memory Entry Repo ---

type inMemoryEntryRepo struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func newInMemoryEntryRepo() *inMemoryEntryRepo {
	return &inMemoryEntryRepo{}
}

func (r *inMemoryEntryRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryEntryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			cp := r.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryEntryRepo) List(ctx context.Context, params ports.EntryListParams) ([]domain.LedgerEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.LedgerEntry
	// Newest first: entries are appended in commit order, so walk backwards.
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.AccountID != params.AccountID {
			continue
		}
		if params.Direction != nil && e.Direction != *params.Direction {
			continue
		}
		if params.Reason != nil && e.Reason != *params.Reason {
			continue
		}
		if params.From != nil && e.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && e.CreatedAt.Unix() > *params.To {
			continue
		}
		matched = append(matched, e)
	}
	total := int64(len(matched))

	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.LedgerEntry{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryEntryRepo) ListAllAscending(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.LedgerEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *inMemoryEntryRepo) Latest(ctx context.Context, accountID uuid.UUID) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].AccountID == accountID {
			cp := r.entries[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryEntryRepo) Summary(ctx context.Context, accountID uuid.UUID) (*ports.LedgerSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &ports.LedgerSummary{}
	for _, e := range r.entries {
		if e.AccountID != accountID {
			continue
		}
		s.EntryCount++
		switch e.Direction {
		case domain.DirectionCredit:
			s.TotalCredits += e.Amount
		case domain.DirectionDebit:
			s.TotalDebits += e.Amount
		}
		if s.LastEntryAt == nil || e.CreatedAt.After(*s.LastEntryAt) {
			at := e.CreatedAt
			s.LastEntryAt = &at
		}
	}
	return s, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.Key]; exists {
		return nil
	}
	r.records[record.Key] = record
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactions with a global mutex so that
// concurrent mutations observe the same all-or-nothing behavior the real
// row lock provides. Begin acquires the lock, Commit or Rollback releases it.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &lockTx{release: t.mu.Unlock}, nil
}

// lockTx is a pgx.Tx whose Commit/Rollback release the transactor's lock.
// The deferred Rollback after a successful Commit must be a no-op, hence
// the done flag.
type lockTx struct {
	release func()
	done    bool
}

func (t *lockTx) finish() {
	if !t.done {
		t.done = true
		t.release()
	}
}

func (t *lockTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *lockTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *lockTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *lockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *lockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *lockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *lockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *lockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *lockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *lockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *lockTx) Conn() *pgx.Conn { return nil }

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shipost/wallet-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository. It is the durable
// second layer behind the Redis cache, so replay survives a cache flush.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create persists an idempotency record. A duplicate key is not an error;
// the first write wins and the caller replays from Get.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (key, entry_id, response_json, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, rec.Key, rec.EntryID, rec.ResponseJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Get fetches a record by key, or nil if the key has not been seen.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, entry_id, response_json, created_at
		FROM idempotency_records WHERE key = $1`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key).Scan(&rec.Key, &rec.EntryID, &rec.ResponseJSON, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}

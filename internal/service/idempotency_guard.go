package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyGuard deduplicates mutating calls at the API boundary. The
// core ledger stays deliberately replayable; exactly-once is opt-in per
// request via this guard. Two layers: Redis for speed, Postgres for
// durability across cache flushes.
type IdempotencyGuard struct {
	cache ports.IdempotencyCache
	repo  ports.IdempotencyRepository
	log   zerolog.Logger
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(
	cache ports.IdempotencyCache,
	repo ports.IdempotencyRepository,
	log zerolog.Logger,
) *IdempotencyGuard {
	return &IdempotencyGuard{cache: cache, repo: repo, log: log}
}

// Execute runs fn at most once per key. A repeated key replays the first
// call's serialized entry without touching the ledger. The returned bool
// reports whether the response was replayed.
func (g *IdempotencyGuard) Execute(ctx context.Context, key string, fn func(context.Context) (*domain.LedgerEntry, error)) (*domain.LedgerEntry, bool, error) {
	// Layer 1: Redis
	cached, err := g.cache.Get(ctx, key)
	if err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		entry, err := unmarshalEntry(cached)
		return entry, true, err
	}

	// Layer 2: Postgres
	record, err := g.repo.Get(ctx, key)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if record != nil {
		entry, err := unmarshalEntry(record.ResponseJSON)
		return entry, true, err
	}

	entry, err := fn(ctx)
	if err != nil {
		return nil, false, err
	}

	respJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	// The entry is already committed; failing to record the key only
	// weakens dedup for this request, so both writes are best-effort.
	if err := g.repo.Create(ctx, &domain.IdempotencyRecord{
		Key:          key,
		EntryID:      entry.ID,
		ResponseJSON: respJSON,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("failed to persist idempotency record")
	}
	if err := g.cache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency record")
	}

	return entry, false, nil
}

func unmarshalEntry(data []byte) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached entry: %w", err))
	}
	return entry, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type guardTestDeps struct {
	guard *IdempotencyGuard
	cache *mocks.MockIdempotencyCache
	repo  *mocks.MockIdempotencyRepository
	ctrl  *gomock.Controller
}

func setupGuard(t *testing.T) *guardTestDeps {
	ctrl := gomock.NewController(t)
	d := &guardTestDeps{
		cache: mocks.NewMockIdempotencyCache(ctrl),
		repo:  mocks.NewMockIdempotencyRepository(ctrl),
		ctrl:  ctrl,
	}
	d.guard = NewIdempotencyGuard(d.cache, d.repo, zerolog.Nop())
	return d
}

func TestIdempotencyGuard_FirstCallExecutes(t *testing.T) {
	d := setupGuard(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := domain.BuildIdempotencyKey("credit", uuid.New(), "req-1")
	want := &domain.LedgerEntry{ID: uuid.New(), Amount: 1000, Direction: domain.DirectionCredit}

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.repo.EXPECT().Get(ctx, key).Return(nil, nil)
	d.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), idempotencyTTL).Return(nil)

	called := 0
	entry, replayed, err := d.guard.Execute(ctx, key, func(context.Context) (*domain.LedgerEntry, error) {
		called++
		return want, nil
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, 1, called)
	assert.Equal(t, want.ID, entry.ID)
}

func TestIdempotencyGuard_CacheHitReplays(t *testing.T) {
	d := setupGuard(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := domain.BuildIdempotencyKey("refund", uuid.New(), "req-2")
	cached := &domain.LedgerEntry{ID: uuid.New(), Amount: 500, Direction: domain.DirectionCredit, Reason: domain.ReasonRefund}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	d.cache.EXPECT().Get(ctx, key).Return(data, nil)

	entry, replayed, err := d.guard.Execute(ctx, key, func(context.Context) (*domain.LedgerEntry, error) {
		t.Fatal("fn must not run on a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, cached.ID, entry.ID)
}

func TestIdempotencyGuard_DBHitReplaysAfterCacheFlush(t *testing.T) {
	d := setupGuard(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := domain.BuildIdempotencyKey("debit", uuid.New(), "req-3")
	stored := &domain.LedgerEntry{ID: uuid.New(), Amount: 2000, Direction: domain.DirectionDebit}
	data, err := json.Marshal(stored)
	require.NoError(t, err)

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.repo.EXPECT().Get(ctx, key).Return(&domain.IdempotencyRecord{
		Key:          key,
		EntryID:      stored.ID,
		ResponseJSON: data,
	}, nil)

	entry, replayed, err := d.guard.Execute(ctx, key, func(context.Context) (*domain.LedgerEntry, error) {
		t.Fatal("fn must not run on a db hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, stored.ID, entry.ID)
}

func TestIdempotencyGuard_RedisFailureFallsThrough(t *testing.T) {
	d := setupGuard(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := domain.BuildIdempotencyKey("credit", uuid.New(), "req-4")
	want := &domain.LedgerEntry{ID: uuid.New(), Amount: 1000, Direction: domain.DirectionCredit}

	d.cache.EXPECT().Get(ctx, key).Return(nil, errors.New("redis down"))
	d.repo.EXPECT().Get(ctx, key).Return(nil, nil)
	d.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), idempotencyTTL).Return(errors.New("redis down"))

	entry, replayed, err := d.guard.Execute(ctx, key, func(context.Context) (*domain.LedgerEntry, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, want.ID, entry.ID)
}

func TestIdempotencyGuard_FnErrorNotRecorded(t *testing.T) {
	d := setupGuard(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	key := domain.BuildIdempotencyKey("debit", uuid.New(), "req-5")

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.repo.EXPECT().Get(ctx, key).Return(nil, nil)
	// No Create/Set: a failed operation must stay retryable.

	_, _, err := d.guard.Execute(ctx, key, func(context.Context) (*domain.LedgerEntry, error) {
		return nil, errors.New("insufficient funds")
	})
	assert.Error(t, err)
}

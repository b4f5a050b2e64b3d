package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS account_balances (
		account_id       UUID PRIMARY KEY,
		balance          BIGINT NOT NULL DEFAULT 0,
		total_earned     BIGINT NOT NULL DEFAULT 0,
		total_spent      BIGINT NOT NULL DEFAULT 0,
		last_recharge_at TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id                 UUID PRIMARY KEY,
		account_id         UUID NOT NULL,
		direction          TEXT NOT NULL,
		amount             BIGINT NOT NULL CHECK (amount > 0),
		reason             TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		balance_after      BIGINT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'COMPLETED',
		actor_id           TEXT,
		external_reference TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_created
		ON ledger_entries (account_id, created_at DESC, id DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_external_ref
		ON ledger_entries (external_reference) WHERE external_reference IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS idempotency_records (
		key           TEXT PRIMARY KEY,
		entry_id      UUID NOT NULL,
		response_json JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the ledger tables if they do not exist. Statements are
// idempotent, so running at every startup is safe.
func Migrate(ctx context.Context, pool Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

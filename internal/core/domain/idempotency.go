package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is the durable record of a deduplicated mutating call,
// holding the serialized first response for replay. Dedup lives at the call
// boundary: the core ledger itself is deliberately not idempotent.
type IdempotencyRecord struct {
	Key          string    `json:"key"`
	EntryID      uuid.UUID `json:"entry_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a caller-supplied key by operation and account
// so the same key cannot replay across different operations.
func BuildIdempotencyKey(operation string, accountID uuid.UUID, key string) string {
	return fmt.Sprintf("%s:%s:%s", operation, accountID, key)
}

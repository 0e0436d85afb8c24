package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so relayed events are handled at most once
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked, false if already processed
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Unmark forgets an event so that a failed handler can be retried
	Unmark(ctx context.Context, eventID string) error
	Close() error
}

// DefaultIdempotencyTTL is how long a processed event ID is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

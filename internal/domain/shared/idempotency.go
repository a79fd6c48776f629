package shared

import (
	"context"
	"time"
)

// IdempotencyStore records request keys that have already been claimed so a
// retried write is not applied twice
type IdempotencyStore interface {
	// Claim marks a key as in use with a TTL.
	// Returns true if the key was newly claimed, false if it was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsClaimed checks if a key has already been claimed
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Release frees a key so the request can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

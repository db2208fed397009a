// Package cache provides the response cache used by the tool layer,
// with in-memory and Redis backends behind one interface. Expired
// entries are reported as absent.
package cache

import (
	"context"
	"time"
)

// DefaultTTL applies when a Set passes a non-positive TTL.
const DefaultTTL = 300 * time.Second

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

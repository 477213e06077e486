// Package cache defines the port interface for the scoring report cache.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. VeriGate keys scoring
// reports by document fingerprint so identical re-uploads skip a scoring
// round-trip; a cache miss is never an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

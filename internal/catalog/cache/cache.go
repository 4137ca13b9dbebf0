// Package cache provides a caching layer for TMDB API responses.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a catalog response is trusted.
const DefaultTTL = 5 * time.Minute

// Cache defines the interface for caching TMDB responses.
type Cache interface {
	// Get retrieves data from the cache by key.
	// Returns the data and true if found and not expired, otherwise nil and false.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores data in the cache with the given key and TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// Close closes the cache and releases resources.
	Close() error
}

// Clock returns the current time. Backends take one so tests can move time.
type Clock func() time.Time

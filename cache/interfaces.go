package cache

import (
	"context"
	"time"
)

// Cache provides byte-oriented storage with per-entry expiry.
// Implementations must be thread-safe and must treat backend read failures
// as misses. Only single-key atomicity is guaranteed.
type Cache interface {
	// Get retrieves the value stored under key.
	// The boolean reports whether the key was present; backend read errors
	// surface as a miss with a nil error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given time-to-live.
	// A non-positive ttl stores the entry without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// MGet retrieves multiple keys in one round trip. The returned slice is
	// positional: result[i] corresponds to keys[i] and is nil on a miss.
	MGet(ctx context.Context, keys []string) ([][]byte, error)

	// Close releases backend resources.
	Close() error
}

package port

import (
	"context"
	"time"
)

// Cache is the key-value contract the conversation layer depends on for
// read-through state. Values are plain strings; callers own serialization so
// the port stays decoupled from any one payload shape. Implementations must
// be safe for concurrent use and honor context cancellation on every call.
//
// The conversation caches are invalidation-driven: nothing in the
// application ever updates a cached value in place, keys are deleted when
// their source rows change and refilled on the next read.
type Cache interface {
	// Get fetches the value for key. A missing key yields ("", ErrMiss);
	// a non-nil error otherwise means transport or server trouble.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way, so callers can tell misses
// from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }

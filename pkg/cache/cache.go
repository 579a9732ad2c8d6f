// Package cache stores serialized simulation results.
//
// The CLI keeps settled frames in a [FileCache] under the user cache
// directory; shared deployments point several processes at one
// [RedisCache] or [MongoCache]. [NullCache] disables caching. Keys come
// from a [Keyer] so that every entry point derives the same key for the
// same input.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values by entry type.
const (
	// TTLFrame is how long a settled frame stays valid. Frames depend only
	// on the source text, the seed, the tick count and the parameters, so
	// they never go stale; the TTL bounds disk use.
	TTLFrame = 7 * 24 * time.Hour

	// TTLRender applies to rendered projections (DOT, SVG, PNG).
	TTLRender = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss with hit=false and a nil error. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

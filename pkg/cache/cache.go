// Package cache stores generated models, solved layouts and rendered
// artifacts between runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [NullCache]: never stores anything (--no-cache, tests)
//   - [RedisCache]: a Redis server via go-redis, for the HTTP API
//   - [MongoCache]: a MongoDB collection with a TTL index
//
// [Open] picks a backend from a URL-like string, which is what configuration
// files and the serve command pass around.
//
// # Keys
//
// A [Keyer] derives deterministic keys from the options that influence each
// pipeline stage, so a stage is only recomputed when one of its inputs
// changes. [ScopedKeyer] prefixes every key to isolate tenants or
// environments sharing a backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
//
// Get reports a miss with (nil, false, nil); errors are reserved for backend
// failures. A zero ttl in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default expirations per entry kind.
const (
	// TTLModel keeps generated models. Generation is cheap but seeded, so
	// entries stay valid forever; the TTL only bounds storage.
	TTLModel = 7 * 24 * time.Hour

	// TTLLayout keeps solved layouts, the expensive stage.
	TTLLayout = 30 * 24 * time.Hour

	// TTLArtifact keeps rendered SVG, PDF and PNG outputs.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLResult keeps results served by the HTTP API under their run id.
	TTLResult = 24 * time.Hour
)

// NullCache misses on every Get and drops every Set. The pipeline uses it for
// --no-cache runs, where every stage is recomputed.
type NullCache struct{}

var _ Cache = NullCache{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

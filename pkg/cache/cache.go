// Package cache stores rendered diagram output keyed by snapshot content.
//
// Rendering a diagram through Graphviz is the slowest step the CLI and the
// HTTP server perform, and the output depends only on the snapshot and the
// render configuration. The cache maps a key derived from both (see [Keyer])
// to the rendered bytes.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
//
// Wrap any backend with [Instrument] to report hits, misses and writes to
// the observability cache hooks.
//
// # Retries
//
// Network backends wrap transient failures with [Retryable];
// [Backoff.Do] retries only those.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-blob store with optional per-entry expiry.
//
// Get reports a miss with ok=false and a nil error. A ttl of zero on Set
// means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

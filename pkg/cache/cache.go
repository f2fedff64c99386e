// Package cache stores rendered diagrams keyed by a hash of their inputs.
//
// Rendering a graph through Graphviz is the slowest step of the client, and
// the same graph with the same pins renders to the same bytes. The renderer
// therefore keys its output by [Key] and consults a [Cache] first.
//
// Three backends are provided:
//   - [FileCache]: one JSON file per entry under ~/.cache/kgviz/
//   - [RedisCache]: shared cache for several viewer servers
//   - [NullCache]: disables caching
//
// Entries are only ever derived data. The graph itself is never cached; the
// backend stays authoritative.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

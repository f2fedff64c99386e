package cache

import (
	"context"
	"time"
)

// NullCache stands in for the render cache when caching is off. Every Get
// misses, so each render goes through Graphviz.
type NullCache struct {
	// Reason records why caching is off, e.g. "no-cache flag" or the error
	// that kept the configured backend from opening.
	Reason string
}

// NewNullCache returns a cache that never stores entries.
func NewNullCache() Cache {
	return &NullCache{Reason: "disabled"}
}

// Disabled returns a NullCache carrying the reason caching was turned off.
func Disabled(reason string) *NullCache {
	return &NullCache{Reason: reason}
}

func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data; the next render of the same key draws again.
func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (c *NullCache) Delete(context.Context, string) error { return nil }

func (c *NullCache) Close() error { return nil }

func (c *NullCache) String() string { return "none (" + c.Reason + ")" }

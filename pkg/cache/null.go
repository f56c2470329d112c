package cache

import (
	"context"
	"time"
)

// NullCache misses on every lookup. [Open] returns it for the "none" backend
// and callers fall back to it when a configured backend cannot be reached.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}

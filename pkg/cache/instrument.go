package cache

import (
	"context"
	"time"

	"github.com/matzehuels/nodel/pkg/observability"
)

type instrumented struct {
	Cache
	keyType string
}

// Instrument wraps c so every lookup and write is reported to the registered
// observability cache hooks under keyType.
func Instrument(c Cache, keyType string) Cache {
	return &instrumented{Cache: c, keyType: keyType}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	switch {
	case err != nil:
	case ok:
		observability.Cache().OnCacheHit(ctx, c.keyType)
	default:
		observability.Cache().OnCacheMiss(ctx, c.keyType)
	}
	return data, ok, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}

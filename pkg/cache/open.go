package cache

import (
	"context"
	"fmt"

	"github.com/matzehuels/nodel/pkg/config"
)

// RedisPrefix namespaces render cache entries in a shared Redis.
const RedisPrefix = "nodel:cache:"

// Open creates the cache selected by cfg.Backend, instrumented under the
// "render" key type.
func Open(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case config.CacheNone, "":
		c = NewNullCache()
	case config.CacheFile:
		c, err = NewFileCache(config.ExpandHome(cfg.Dir))
	case config.CacheRedis:
		c, err = NewRedisCache(ctx, cfg.RedisURL, RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return Instrument(c, "render"), nil
}

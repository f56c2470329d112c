package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries as plain Redis strings under a key prefix and
// relies on Redis key expiry for TTLs.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	backoff Backoff
}

// NewRedisCache connects to the server at url (redis://[:password@]host:port/db)
// and pings it before returning.
func NewRedisCache(ctx context.Context, url, prefix string) (Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrNetwork, opts.Addr, err)
	}
	return NewRedisCacheFromClient(client, prefix), nil
}

// NewRedisCacheFromClient wraps an existing client. Closing the cache closes
// the client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, backoff: DefaultBackoff}
}

// Get retrieves a value, retrying transient network failures.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		hit  bool
	)
	err := c.backoff.Do(ctx, func() error {
		b, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return transient(err)
		}
		data, hit = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, hit, nil
}

// Set stores a value. A zero ttl stores it without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.backoff.Do(ctx, func() error {
		return transient(c.client.Set(ctx, c.prefix+key, data, ttl).Err())
	})
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return transient(c.client.Del(ctx, c.prefix+key).Err())
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// transient marks every error except context cancellation as retryable.
func transient(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)

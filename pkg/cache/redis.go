package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in redis under a namespace prefix. Transient
// connection failures are retried with the configured [Backoff].
type RedisCache struct {
	client    *redis.Client
	namespace string
	backoff   Backoff
}

var redisBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// Addr is host:port of the redis server.
	Addr string
	// Namespace is prepended to every key as "<namespace>:".
	Namespace string
	// DialTimeout bounds connection setup. Zero means the client default.
	DialTimeout time.Duration
	// Backoff overrides the retry policy (3 attempts from 100ms).
	Backoff Backoff
}

// NewRedisCache connects to redis. The connection is checked with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		DialTimeout: opts.DialTimeout,
	})
	c := &RedisCache{client: client, namespace: opts.Namespace, backoff: opts.Backoff}
	if c.backoff.Attempts == 0 {
		c.backoff = redisBackoff
	}
	if err := c.do(ctx, func() error { return client.Ping(ctx).Err() }); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return c, nil
}

// Get retrieves a value. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, c.key(key)).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A zero ttl keeps the entry until it is deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func() error {
		return c.client.Set(ctx, c.key(key), data, ttl).Err()
	})
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
}

// Clear deletes every key in the namespace.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return nil
}

// Close closes the client connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}

// do runs fn, retrying failures that are neither misses nor cancellation.
func (c *RedisCache) do(ctx context.Context, fn func() error) error {
	return c.backoff.Retry(ctx, func() error {
		err := fn()
		switch {
		case err == nil, errors.Is(err, redis.Nil):
			return err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			return Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
	})
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)

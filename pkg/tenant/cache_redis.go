package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache is a Redis-backed cache for multi-instance deployments where an
// invalidation on one instance must be visible to all.
type redisCache struct {
	client *redis.Client
	window time.Duration
}

// redisEntry is the stored form. The absolute deadline travels with the
// snapshot because sliding extension must never push past it.
type redisEntry struct {
	Tenant           *Tenant   `json:"tenant"`
	AbsoluteDeadline time.Time `json:"absolute_deadline"`
}

// NewRedisCache creates a Redis-backed cache with the default sliding window.
func NewRedisCache(client *redis.Client) Cache {
	return NewRedisCacheWithWindow(client, DefaultSlidingWindow)
}

// NewRedisCacheWithWindow creates a Redis-backed cache with a custom sliding
// window.
func NewRedisCacheWithWindow(client *redis.Client, window time.Duration) Cache {
	if window <= 0 {
		window = DefaultSlidingWindow
	}
	return &redisCache{client: client, window: window}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Tenant == nil {
		// Corrupt payload, drop it rather than serve garbage.
		_ = c.Invalidate(ctx, key)
		return nil, false
	}

	now := time.Now()
	if now.After(entry.AbsoluteDeadline) {
		_ = c.Invalidate(ctx, key)
		return nil, false
	}

	// Hit: slide both keys forward, capped at the absolute deadline.
	deadline := now.Add(c.window)
	if deadline.After(entry.AbsoluteDeadline) {
		deadline = entry.AbsoluteDeadline
	}
	pipe := c.client.Pipeline()
	pipe.PExpireAt(ctx, IdentifierKey(entry.Tenant.Identifier), deadline)
	pipe.PExpireAt(ctx, IDKey(entry.Tenant.ID), deadline)
	_, _ = pipe.Exec(ctx)

	return entry.Tenant, true
}

func (c *redisCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) error {
	if t == nil {
		return ErrTenantNotFound
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	now := time.Now()
	entry := redisEntry{Tenant: t, AbsoluteDeadline: now.Add(ttl)}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal tenant cache entry: %w", err)
	}

	window := c.window
	if window > ttl {
		window = ttl
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, IdentifierKey(t.Identifier), raw, window)
	pipe.Set(ctx, IDKey(t.ID), raw, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store tenant cache entry: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, key string) error {
	keys := []string{key}

	// The stored snapshot knows its twin key; remove both so the identifier
	// and id aliases never diverge.
	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var entry redisEntry
		if err := json.Unmarshal(raw, &entry); err == nil && entry.Tenant != nil {
			keys = append(keys,
				IdentifierKey(entry.Tenant.Identifier),
				IDKey(entry.Tenant.ID))
		}
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate tenant cache entry: %w", err)
	}
	return nil
}

func (c *redisCache) Close() error {
	// The client is shared infrastructure owned by the caller.
	return nil
}

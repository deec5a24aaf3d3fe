package tenant

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL is the absolute lifetime of a cache entry.
	DefaultCacheTTL = 30 * time.Minute

	// DefaultSlidingWindow is how long an entry survives without a hit. Each
	// hit extends the window, but never past the absolute deadline.
	DefaultSlidingWindow = 10 * time.Minute
)

// IdentifierKey builds the cache key for identifier-based lookups.
func IdentifierKey(identifier string) string {
	return "tenant:ident:" + NormalizeIdentifier(identifier)
}

// IDKey builds the cache key for id-based lookups.
func IDKey(id int64) string {
	return "tenant:id:" + strconv.FormatInt(id, 10)
}

// Cache caches tenant snapshots in front of the directory. A snapshot is
// reachable under both its identifier key and its id key; the two alias the
// same record, so invalidating either must remove both. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get retrieves a cached snapshot by key (identifier or id form).
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a snapshot under both of its keys with the given absolute TTL.
	Set(ctx context.Context, t *Tenant, ttl time.Duration) error

	// Invalidate removes the snapshot reachable under key, together with its
	// twin key.
	Invalidate(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// memoryCache is the default in-process cache implementation.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	window  time.Duration
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

type cacheEntry struct {
	tenant           *Tenant
	insertedAt       time.Time
	absoluteDeadline time.Time
	slidingDeadline  time.Time
	keys             [2]string
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.absoluteDeadline) || now.After(e.slidingDeadline)
}

// NewMemoryCache creates an in-memory cache with the default sliding window
// and a background sweep for expired entries.
func NewMemoryCache() Cache {
	return NewMemoryCacheWithWindow(DefaultSlidingWindow)
}

// NewMemoryCacheWithWindow creates an in-memory cache with a custom sliding
// window.
func NewMemoryCacheWithWindow(window time.Duration) Cache {
	if window <= 0 {
		window = DefaultSlidingWindow
	}

	c := &memoryCache{
		entries: make(map[string]*cacheEntry),
		window:  window,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go c.sweep()

	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	now := time.Now()
	if entry.expired(now) {
		c.removeEntry(entry)
		return nil, false
	}

	// Hit: extend the sliding window, capped at the absolute deadline.
	sliding := now.Add(c.window)
	if sliding.After(entry.absoluteDeadline) {
		sliding = entry.absoluteDeadline
	}
	entry.slidingDeadline = sliding

	return entry.tenant, true
}

func (c *memoryCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) error {
	if t == nil {
		return ErrTenantNotFound
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	now := time.Now()
	sliding := now.Add(c.window)
	absolute := now.Add(ttl)
	if sliding.After(absolute) {
		sliding = absolute
	}

	entry := &cacheEntry{
		tenant:           t,
		insertedAt:       now,
		absoluteDeadline: absolute,
		slidingDeadline:  sliding,
		keys:             [2]string{IdentifierKey(t.Identifier), IDKey(t.ID)},
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Displace any previous entry reachable under either key so stale aliases
	// cannot linger.
	for _, key := range entry.keys {
		if old, ok := c.entries[key]; ok {
			c.removeEntry(old)
		}
	}
	for _, key := range entry.keys {
		c.entries[key] = entry
	}
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.removeEntry(entry)
	}
	return nil
}

// removeEntry deletes an entry under all of its keys. Caller holds c.mu.
func (c *memoryCache) removeEntry(entry *cacheEntry) {
	for _, key := range entry.keys {
		if current, ok := c.entries[key]; ok && current == entry {
			delete(c.entries, key)
		}
	}
}

// sweep periodically evicts expired entries so idle tenants do not pin memory
// until their next lookup.
func (c *memoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for _, entry := range c.entries {
		if entry.expired(now) {
			c.removeEntry(entry)
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// NoOpCache disables caching; every lookup goes to the directory. Useful in
// tests and for deployments where staleness is unacceptable.
type NoOpCache struct{}

func (NoOpCache) Get(ctx context.Context, key string) (*Tenant, bool) { return nil, false }

func (NoOpCache) Set(ctx context.Context, t *Tenant, ttl time.Duration) error { return nil }

func (NoOpCache) Invalidate(ctx context.Context, key string) error { return nil }

func (NoOpCache) Close() error { return nil }

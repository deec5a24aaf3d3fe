package tenant

import (
	"context"
	"log/slog"
	"time"
)

// Service fronts a Directory with a cache. Reads are cache-aside: a miss
// loads from the directory and populates the cache; a directory failure
// propagates as an error, never as a miss, so callers can tell "store is
// down" from "tenant does not exist". Writes invalidate both cache keys for
// the affected tenant before they are considered complete.
//
// Service itself satisfies Directory, so callers that only need lookups can
// stay oblivious to the cache.
type Service struct {
	dir   Directory
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache sets the cache implementation. Defaults to an in-memory cache.
func WithCache(cache Cache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithCacheTTL sets the absolute TTL for cached snapshots.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a cached directory service.
func NewService(dir Directory, opts ...ServiceOption) *Service {
	s := &Service{
		dir: dir,
		ttl: DefaultCacheTTL,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewMemoryCache()
	}
	return s
}

// GetByIdentifier resolves a tenant by identifier, serving from cache when
// possible. Only active tenants are ever cached, so a cache hit needs no
// activity re-check.
func (s *Service) GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error) {
	key := IdentifierKey(identifier)
	if t, ok := s.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := s.dir.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	s.store(ctx, t)
	return t, nil
}

// GetByID resolves a tenant by numeric id. Administrative path: inactive
// tenants are returned, but never cached, so the resolution path cannot pick
// them up through the shared identifier key.
func (s *Service) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	key := IDKey(id)
	if t, ok := s.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := s.dir.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, t)
	return t, nil
}

// ListActive is a pass-through; the listing is used by schedulers that want
// fresh membership on every firing.
func (s *Service) ListActive(ctx context.Context) ([]*Tenant, error) {
	return s.dir.ListActive(ctx)
}

// SetModuleEnabled flips a module flag and invalidates the tenant's cache
// entries. The write is complete only after the invalidation, so no reader
// started afterwards can observe the stale flag.
func (s *Service) SetModuleEnabled(ctx context.Context, tenantID int64, module string, enabled bool) error {
	if err := s.dir.SetModuleEnabled(ctx, tenantID, module, enabled); err != nil {
		return err
	}
	return s.invalidate(ctx, tenantID)
}

// SetSetting upserts a setting and invalidates the tenant's cache entries.
func (s *Service) SetSetting(ctx context.Context, tenantID int64, key string, value SettingValue) error {
	if err := s.dir.SetSetting(ctx, tenantID, key, value); err != nil {
		return err
	}
	return s.invalidate(ctx, tenantID)
}

// Invalidate drops the cache entries for a tenant. Exposed for admin flows
// that mutate tenants outside SetModuleEnabled/SetSetting.
func (s *Service) Invalidate(ctx context.Context, tenantID int64) error {
	return s.invalidate(ctx, tenantID)
}

// Close releases the cache.
func (s *Service) Close() error {
	return s.cache.Close()
}

func (s *Service) store(ctx context.Context, t *Tenant) {
	if !t.Active {
		return
	}
	if err := s.cache.Set(ctx, t, s.ttl); err != nil {
		// A failed cache write only costs the next read a directory trip.
		s.log.WarnContext(ctx, "failed to cache tenant snapshot",
			slog.Int64("tenant_id", t.ID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) invalidate(ctx context.Context, tenantID int64) error {
	if err := s.cache.Invalidate(ctx, IDKey(tenantID)); err != nil {
		s.log.ErrorContext(ctx, "failed to invalidate tenant cache",
			slog.Int64("tenant_id", tenantID),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

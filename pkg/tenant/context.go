package tenant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// scopeKey prevents collisions with other packages using context values.
type scopeKey struct{}

// Scope binds one tenant snapshot to one unit of work (a request or one
// scheduled-job iteration). The tenant reference is read-only; the property
// bag is mutable only through the scope and is discarded with it.
//
// Scopes travel inside context.Context, so isolation between concurrent units
// of work and restoration of the previous scope on every exit path come from
// context semantics: installing a scope derives a new context, the caller's
// context is never mutated.
type Scope struct {
	tenant *Tenant

	mu     sync.RWMutex
	values map[string]any
}

// Tenant returns the snapshot this scope was created with.
func (s *Scope) Tenant() *Tenant {
	if s == nil {
		return nil
	}
	return s.tenant
}

// SetValue stores a request-scoped value (diagnostic tag or setting
// override). Values stored as SettingValue shadow the tenant's settings for
// the lifetime of the scope.
func (s *Scope) SetValue(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Value retrieves a request-scoped value set via SetValue.
func (s *Scope) Value(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// setting resolves a setting with scope overrides shadowing tenant settings.
func (s *Scope) setting(key string) (SettingValue, bool) {
	if s == nil {
		return SettingValue{}, false
	}
	s.mu.RLock()
	override, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		if sv, isSetting := override.(SettingValue); isSetting {
			return sv, true
		}
	}
	return s.tenant.Setting(key)
}

// WithScope installs a fresh scope for the given tenant. Callers that need
// the inactive-tenant check and error plumbing should use RunWithTenant; this
// low-level form exists for middleware that has already validated the tenant.
func WithScope(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, scopeKey{}, &Scope{tenant: t})
}

// ScopeFromContext returns the current scope, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}

// FromContext returns the current tenant snapshot, if any.
func FromContext(ctx context.Context) (*Tenant, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok || s.tenant == nil {
		return nil, false
	}
	return s.tenant, true
}

// IDFromContext provides fast access to the tenant id without exposing the
// full snapshot.
func IDFromContext(ctx context.Context) (int64, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return 0, false
	}
	return t.ID, true
}

// ConnectionString returns the current tenant's storage location. Downstream
// repositories use this to select the tenant's database.
func ConnectionString(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.ConnectionString, true
}

// MustFromContext panics if no tenant scope is installed. Use only in code
// paths that cannot run outside a tenant scope.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// RunWithTenant executes fn inside a fresh scope for t. The scope is visible
// only through the context passed to fn; whatever scope was ambient before
// the call stays ambient after it on every exit path (return, error, panic,
// cancellation). Nested calls strictly nest: the inner scope shadows the
// outer one for the duration of the inner call only.
//
// An inactive tenant is never installed; the call fails with ErrTenantInactive
// before fn runs.
func RunWithTenant(ctx context.Context, t *Tenant, fn func(ctx context.Context) error) error {
	if t == nil {
		return ErrTenantNotFound
	}
	if !t.Active {
		return ErrTenantInactive
	}
	return fn(WithScope(ctx, t))
}

// ModuleEnabled reports whether the named module is enabled for the current
// tenant. Returns false when no scope is installed (logged at Warn: querying
// outside a scope is a caller bug answered with a safe default).
func ModuleEnabled(ctx context.Context, module string) bool {
	t, ok := FromContext(ctx)
	if !ok {
		warnNoScope(ctx, "ModuleEnabled", module)
		return false
	}
	return t.ModuleEnabled(module)
}

// SettingString resolves a string setting, falling back to def when the key
// is absent, carries a different kind, or no scope is installed.
func SettingString(ctx context.Context, key, def string) string {
	v, ok := settingFromContext(ctx, key)
	if !ok {
		return def
	}
	return v.String(def)
}

// SettingInt resolves an integer setting with the same fallback rules.
func SettingInt(ctx context.Context, key string, def int64) int64 {
	v, ok := settingFromContext(ctx, key)
	if !ok {
		return def
	}
	return v.Int(def)
}

// SettingBool resolves a boolean setting with the same fallback rules.
func SettingBool(ctx context.Context, key string, def bool) bool {
	v, ok := settingFromContext(ctx, key)
	if !ok {
		return def
	}
	return v.Bool(def)
}

// SettingDecimal resolves a decimal setting with the same fallback rules.
func SettingDecimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	v, ok := settingFromContext(ctx, key)
	if !ok {
		return def
	}
	return v.Decimal(def)
}

// SettingTime resolves a timestamp setting with the same fallback rules.
func SettingTime(ctx context.Context, key string, def time.Time) time.Time {
	v, ok := settingFromContext(ctx, key)
	if !ok {
		return def
	}
	return v.Time(def)
}

func settingFromContext(ctx context.Context, key string) (SettingValue, bool) {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		warnNoScope(ctx, "Setting", key)
		return SettingValue{}, false
	}
	return s.setting(key)
}

func warnNoScope(ctx context.Context, op, arg string) {
	slog.Default().WarnContext(ctx, "tenant context query outside tenant scope",
		slog.String("op", op),
		slog.String("arg", arg))
}

// LogAttr is a logger context extractor that stamps tenant_id on every record
// produced inside a tenant scope.
func LogAttr() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.Int64("tenant_id", id), true
		}
		return slog.Attr{}, false
	}
}

package tenant

import (
	"context"
	"strings"
	"time"
)

// Tenant is an immutable snapshot of a tenant record. Once loaded into a
// request scope it must not be mutated; per-request overrides go into the
// scope's property bag instead.
type Tenant struct {
	ID               int64                   `json:"id"`
	Identifier       string                  `json:"identifier"`
	ConnectionString string                  `json:"connection_string"`
	Active           bool                    `json:"active"`
	Plan             string                  `json:"plan,omitempty"`
	PlanExpiresAt    *time.Time              `json:"plan_expires_at,omitempty"`
	EnabledModules   map[string]bool         `json:"enabled_modules,omitempty"`
	Settings         map[string]SettingValue `json:"settings,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ModuleEnabled reports whether the named module is switched on for this
// tenant. Absent modules are off.
func (t *Tenant) ModuleEnabled(module string) bool {
	if t == nil {
		return false
	}
	return t.EnabledModules[module]
}

// Setting returns the raw setting value for key.
func (t *Tenant) Setting(key string) (SettingValue, bool) {
	if t == nil {
		return SettingValue{}, false
	}
	v, ok := t.Settings[key]
	return v, ok
}

// NormalizeIdentifier canonicalizes a tenant identifier for lookups.
// Identifiers are unique case-insensitively, so every storage and cache key
// goes through this.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Directory is the authoritative tenant store. It is the only component that
// talks to durable storage; everything else goes through a Service that adds
// caching in front of it.
type Directory interface {
	// GetByIdentifier retrieves a tenant by its unique identifier
	// (case-insensitive). Returns ErrTenantNotFound if no record matches and
	// ErrTenantInactive if the record exists but is deactivated, since this
	// is the resolution path and inactive tenants must never be installed.
	GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error)

	// GetByID retrieves a tenant by numeric id for administrative use.
	// Inactive tenants are returned as-is.
	GetByID(ctx context.Context, id int64) (*Tenant, error)

	// ListActive returns all active tenants.
	ListActive(ctx context.Context) ([]*Tenant, error)

	// SetModuleEnabled flips a single module flag. Last writer wins.
	SetModuleEnabled(ctx context.Context, tenantID int64, module string, enabled bool) error

	// SetSetting upserts a single setting value. Last writer wins.
	SetSetting(ctx context.Context, tenantID int64, key string, value SettingValue) error
}

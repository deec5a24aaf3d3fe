package tenant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryDirectory is an in-memory Directory for tests and single-node
// development setups. Snapshots returned from reads are copies, so callers
// can never mutate the stored record through a scope.
type MemoryDirectory struct {
	mu      sync.RWMutex
	byID    map[int64]*Tenant
	byIdent map[string]int64
}

// NewMemoryDirectory creates a directory seeded with the given tenants.
func NewMemoryDirectory(seed ...*Tenant) *MemoryDirectory {
	d := &MemoryDirectory{
		byID:    make(map[int64]*Tenant),
		byIdent: make(map[string]int64),
	}
	for _, t := range seed {
		d.Upsert(t)
	}
	return d
}

// Upsert stores or replaces a tenant record.
func (d *MemoryDirectory) Upsert(t *Tenant) {
	if t == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	stored := copyTenant(t)
	stored.Identifier = NormalizeIdentifier(stored.Identifier)
	d.byID[stored.ID] = stored
	d.byIdent[stored.Identifier] = stored.ID
}

func (d *MemoryDirectory) GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byIdent[NormalizeIdentifier(identifier)]
	if !ok {
		return nil, ErrTenantNotFound
	}
	t := d.byID[id]
	if t == nil {
		return nil, ErrTenantNotFound
	}
	if !t.Active {
		return nil, ErrTenantInactive
	}
	return copyTenant(t), nil
}

func (d *MemoryDirectory) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.byID[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return copyTenant(t), nil
}

func (d *MemoryDirectory) ListActive(ctx context.Context) ([]*Tenant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tenants := make([]*Tenant, 0, len(d.byID))
	for _, t := range d.byID {
		if t.Active {
			tenants = append(tenants, copyTenant(t))
		}
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}

func (d *MemoryDirectory) SetModuleEnabled(ctx context.Context, tenantID int64, module string, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}
	if t.EnabledModules == nil {
		t.EnabledModules = make(map[string]bool)
	}
	t.EnabledModules[module] = enabled
	t.UpdatedAt = time.Now()
	return nil
}

func (d *MemoryDirectory) SetSetting(ctx context.Context, tenantID int64, key string, value SettingValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}
	if t.Settings == nil {
		t.Settings = make(map[string]SettingValue)
	}
	t.Settings[key] = value
	t.UpdatedAt = time.Now()
	return nil
}

func copyTenant(t *Tenant) *Tenant {
	c := *t
	if t.EnabledModules != nil {
		c.EnabledModules = make(map[string]bool, len(t.EnabledModules))
		for k, v := range t.EnabledModules {
			c.EnabledModules[k] = v
		}
	}
	if t.Settings != nil {
		c.Settings = make(map[string]SettingValue, len(t.Settings))
		for k, v := range t.Settings {
			c.Settings[k] = v
		}
	}
	if t.PlanExpiresAt != nil {
		exp := *t.PlanExpiresAt
		c.PlanExpiresAt = &exp
	}
	return &c
}

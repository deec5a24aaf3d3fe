package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory is the Postgres-backed Directory. It expects the schema
// created by the migrations shipped with this module: one row per tenant,
// module flags and settings as jsonb documents upsertable independently.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a directory on top of an existing pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

const tenantColumns = `id, identifier, connection_string, active, plan, plan_expires_at,
	enabled_modules, settings, created_at, updated_at`

func (d *PostgresDirectory) GetByIdentifier(ctx context.Context, identifier string) (*Tenant, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE identifier = $1`,
		NormalizeIdentifier(identifier))

	t, err := scanTenant(row)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTenantInactive
	}
	return t, nil
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (d *PostgresDirectory) ListActive(ctx context.Context) ([]*Tenant, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (d *PostgresDirectory) SetModuleEnabled(ctx context.Context, tenantID int64, module string, enabled bool) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE tenants
		 SET enabled_modules = jsonb_set(COALESCE(enabled_modules, '{}'::jsonb), ARRAY[$2], to_jsonb($3::boolean), true),
		     updated_at = now()
		 WHERE id = $1`,
		tenantID, module, enabled)
	if err != nil {
		return fmt.Errorf("set module flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (d *PostgresDirectory) SetSetting(ctx context.Context, tenantID int64, key string, value SettingValue) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting value: %w", err)
	}

	tag, err := d.pool.Exec(ctx,
		`UPDATE tenants
		 SET settings = jsonb_set(COALESCE(settings, '{}'::jsonb), ARRAY[$2], $3::jsonb, true),
		     updated_at = now()
		 WHERE id = $1`,
		tenantID, key, doc)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var (
		t           Tenant
		modulesDoc  []byte
		settingsDoc []byte
	)
	err := row.Scan(&t.ID, &t.Identifier, &t.ConnectionString, &t.Active, &t.Plan,
		&t.PlanExpiresAt, &modulesDoc, &settingsDoc, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("query tenant: %w", err)
	}

	if len(modulesDoc) > 0 {
		if err := json.Unmarshal(modulesDoc, &t.EnabledModules); err != nil {
			return nil, fmt.Errorf("decode module flags: %w", err)
		}
	}
	if len(settingsDoc) > 0 {
		if err := json.Unmarshal(settingsDoc, &t.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return &t, nil
}

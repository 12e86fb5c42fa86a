package database

import (
	"context"

	"github.com/google/uuid"
)

const tenantColumns = `id, name, slug, currency_code, is_active, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CurrencyCode, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

type CreateTenantParams struct {
	Name         string
	Slug         string
	CurrencyCode string
}

func (q *Queries) CreateTenant(ctx context.Context, arg CreateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tenants (name, slug, currency_code)
		VALUES ($1, $2, $3)
		RETURNING `+tenantColumns,
		arg.Name, arg.Slug, arg.CurrencyCode)
	return scanTenant(row)
}

func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE is_active
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (q *Queries) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1 AND is_active`, id)
	return scanTenant(row)
}

type UpdateTenantParams struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	CurrencyCode string
}

func (q *Queries) UpdateTenant(ctx context.Context, arg UpdateTenantParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tenants
		SET name = $2, slug = $3, currency_code = $4, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING `+tenantColumns,
		arg.ID, arg.Name, arg.Slug, arg.CurrencyCode)
	return scanTenant(row)
}

func (q *Queries) SoftDeleteTenant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tenants
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING id`, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

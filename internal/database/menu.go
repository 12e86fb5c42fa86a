package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, tenant_id, name, category, description, base_price, is_available, sort_order, is_active, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Category, &m.Description, &m.BasePrice,
		&m.IsAvailable, &m.SortOrder, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (q *Queries) ListMenuItemsByTenant(ctx context.Context, tenantID uuid.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE tenant_id = $1 AND is_active
		ORDER BY sort_order, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type GetMenuItemParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE id = $1 AND tenant_id = $2 AND is_active`, arg.ID, arg.TenantID)
	return scanMenuItem(row)
}

type CreateMenuItemParams struct {
	TenantID    uuid.UUID
	Name        string
	Category    pgtype.Text
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	IsAvailable bool
	SortOrder   int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (tenant_id, name, category, description, base_price, is_available, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+menuItemColumns,
		arg.TenantID, arg.Name, arg.Category, arg.Description, arg.BasePrice, arg.IsAvailable, arg.SortOrder)
	return scanMenuItem(row)
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Category    pgtype.Text
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	IsAvailable bool
	SortOrder   int32
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET name = $3, category = $4, description = $5, base_price = $6,
		    is_available = $7, sort_order = $8, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING `+menuItemColumns,
		arg.ID, arg.TenantID, arg.Name, arg.Category, arg.Description, arg.BasePrice, arg.IsAvailable, arg.SortOrder)
	return scanMenuItem(row)
}

type SoftDeleteMenuItemParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) SoftDeleteMenuItem(ctx context.Context, arg SoftDeleteMenuItemParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.TenantID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const zoneColumns = `id, tenant_id, name, postcode_prefixes, delivery_fee, min_order_amount, is_active`

func scanZone(row interface{ Scan(...any) error }) (DeliveryZone, error) {
	var z DeliveryZone
	err := row.Scan(&z.ID, &z.TenantID, &z.Name, &z.PostcodePrefixes, &z.DeliveryFee, &z.MinOrderAmount, &z.IsActive)
	return z, err
}

func (q *Queries) ListZonesByTenant(ctx context.Context, tenantID uuid.UUID) ([]DeliveryZone, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+zoneColumns+`
		FROM delivery_zones
		WHERE tenant_id = $1 AND is_active
		ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []DeliveryZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

type GetZoneParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetZone(ctx context.Context, arg GetZoneParams) (DeliveryZone, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+zoneColumns+`
		FROM delivery_zones
		WHERE id = $1 AND tenant_id = $2 AND is_active`, arg.ID, arg.TenantID)
	return scanZone(row)
}

type CreateZoneParams struct {
	TenantID         uuid.UUID
	Name             string
	PostcodePrefixes []string
	DeliveryFee      pgtype.Numeric
	MinOrderAmount   pgtype.Numeric
}

func (q *Queries) CreateZone(ctx context.Context, arg CreateZoneParams) (DeliveryZone, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO delivery_zones (tenant_id, name, postcode_prefixes, delivery_fee, min_order_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+zoneColumns,
		arg.TenantID, arg.Name, arg.PostcodePrefixes, arg.DeliveryFee, arg.MinOrderAmount)
	return scanZone(row)
}

type UpdateZoneParams struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Name             string
	PostcodePrefixes []string
	DeliveryFee      pgtype.Numeric
	MinOrderAmount   pgtype.Numeric
}

func (q *Queries) UpdateZone(ctx context.Context, arg UpdateZoneParams) (DeliveryZone, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE delivery_zones
		SET name = $3, postcode_prefixes = $4, delivery_fee = $5, min_order_amount = $6
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING `+zoneColumns,
		arg.ID, arg.TenantID, arg.Name, arg.PostcodePrefixes, arg.DeliveryFee, arg.MinOrderAmount)
	return scanZone(row)
}

type SoftDeleteZoneParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) SoftDeleteZone(ctx context.Context, arg SoftDeleteZoneParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE delivery_zones
		SET is_active = FALSE
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.TenantID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

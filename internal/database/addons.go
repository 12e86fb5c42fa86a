package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const addonGroupColumns = `id, menu_item_id, name, group_type, category, required, min_selections, max_selections, sort_order, is_active`

func scanAddonGroup(row interface{ Scan(...any) error }) (AddonGroup, error) {
	var g AddonGroup
	err := row.Scan(&g.ID, &g.MenuItemID, &g.Name, &g.GroupType, &g.Category, &g.Required,
		&g.MinSelections, &g.MaxSelections, &g.SortOrder, &g.IsActive)
	return g, err
}

func (q *Queries) ListAddonGroupsByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]AddonGroup, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+addonGroupColumns+`
		FROM addon_groups
		WHERE menu_item_id = $1 AND is_active
		ORDER BY sort_order, name`, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []AddonGroup
	for rows.Next() {
		g, err := scanAddonGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type GetAddonGroupParams struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
}

func (q *Queries) GetAddonGroup(ctx context.Context, arg GetAddonGroupParams) (AddonGroup, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+addonGroupColumns+`
		FROM addon_groups
		WHERE id = $1 AND menu_item_id = $2 AND is_active`, arg.ID, arg.MenuItemID)
	return scanAddonGroup(row)
}

type CreateAddonGroupParams struct {
	MenuItemID    uuid.UUID
	Name          string
	GroupType     string
	Category      string
	Required      bool
	MinSelections int32
	MaxSelections int32
	SortOrder     int32
}

func (q *Queries) CreateAddonGroup(ctx context.Context, arg CreateAddonGroupParams) (AddonGroup, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO addon_groups (menu_item_id, name, group_type, category, required, min_selections, max_selections, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+addonGroupColumns,
		arg.MenuItemID, arg.Name, arg.GroupType, arg.Category, arg.Required,
		arg.MinSelections, arg.MaxSelections, arg.SortOrder)
	return scanAddonGroup(row)
}

type UpdateAddonGroupParams struct {
	ID            uuid.UUID
	MenuItemID    uuid.UUID
	Name          string
	GroupType     string
	Category      string
	Required      bool
	MinSelections int32
	MaxSelections int32
	SortOrder     int32
}

func (q *Queries) UpdateAddonGroup(ctx context.Context, arg UpdateAddonGroupParams) (AddonGroup, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addon_groups
		SET name = $3, group_type = $4, category = $5, required = $6,
		    min_selections = $7, max_selections = $8, sort_order = $9
		WHERE id = $1 AND menu_item_id = $2 AND is_active
		RETURNING `+addonGroupColumns,
		arg.ID, arg.MenuItemID, arg.Name, arg.GroupType, arg.Category, arg.Required,
		arg.MinSelections, arg.MaxSelections, arg.SortOrder)
	return scanAddonGroup(row)
}

type SoftDeleteAddonGroupParams struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
}

func (q *Queries) SoftDeleteAddonGroup(ctx context.Context, arg SoftDeleteAddonGroupParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addon_groups
		SET is_active = FALSE
		WHERE id = $1 AND menu_item_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.MenuItemID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const addonOptionColumns = `id, addon_group_id, name, price, is_available, tier_base_quantity, tier_additional_price, sort_order, is_active`

func scanAddonOption(row interface{ Scan(...any) error }) (AddonOption, error) {
	var o AddonOption
	err := row.Scan(&o.ID, &o.AddonGroupID, &o.Name, &o.Price, &o.IsAvailable,
		&o.TierBaseQuantity, &o.TierAdditionalPrice, &o.SortOrder, &o.IsActive)
	return o, err
}

func (q *Queries) ListAddonOptionsByGroup(ctx context.Context, addonGroupID uuid.UUID) ([]AddonOption, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+addonOptionColumns+`
		FROM addon_options
		WHERE addon_group_id = $1 AND is_active
		ORDER BY sort_order, name`, addonGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []AddonOption
	for rows.Next() {
		o, err := scanAddonOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

type CreateAddonOptionParams struct {
	AddonGroupID        uuid.UUID
	Name                string
	Price               pgtype.Numeric
	IsAvailable         bool
	TierBaseQuantity    pgtype.Int4
	TierAdditionalPrice pgtype.Numeric
	SortOrder           int32
}

func (q *Queries) CreateAddonOption(ctx context.Context, arg CreateAddonOptionParams) (AddonOption, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO addon_options (addon_group_id, name, price, is_available, tier_base_quantity, tier_additional_price, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+addonOptionColumns,
		arg.AddonGroupID, arg.Name, arg.Price, arg.IsAvailable,
		arg.TierBaseQuantity, arg.TierAdditionalPrice, arg.SortOrder)
	return scanAddonOption(row)
}

type UpdateAddonOptionParams struct {
	ID                  uuid.UUID
	AddonGroupID        uuid.UUID
	Name                string
	Price               pgtype.Numeric
	IsAvailable         bool
	TierBaseQuantity    pgtype.Int4
	TierAdditionalPrice pgtype.Numeric
	SortOrder           int32
}

func (q *Queries) UpdateAddonOption(ctx context.Context, arg UpdateAddonOptionParams) (AddonOption, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addon_options
		SET name = $3, price = $4, is_available = $5,
		    tier_base_quantity = $6, tier_additional_price = $7, sort_order = $8
		WHERE id = $1 AND addon_group_id = $2 AND is_active
		RETURNING `+addonOptionColumns,
		arg.ID, arg.AddonGroupID, arg.Name, arg.Price, arg.IsAvailable,
		arg.TierBaseQuantity, arg.TierAdditionalPrice, arg.SortOrder)
	return scanAddonOption(row)
}

type SoftDeleteAddonOptionParams struct {
	ID           uuid.UUID
	AddonGroupID uuid.UUID
}

func (q *Queries) SoftDeleteAddonOption(ctx context.Context, arg SoftDeleteAddonOptionParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE addon_options
		SET is_active = FALSE
		WHERE id = $1 AND addon_group_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.AddonGroupID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

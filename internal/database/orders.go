package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, tenant_id, order_number, customer_id, order_type, status,
	delivery_address, delivery_postcode, zone_id, subtotal, delivery_fee, discount_amount,
	voucher_id, voucher_code, total_amount, payment_method, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.CustomerID, &o.OrderType, &o.Status,
		&o.DeliveryAddress, &o.DeliveryPostcode, &o.ZoneID, &o.Subtotal, &o.DeliveryFee, &o.DiscountAmount,
		&o.VoucherID, &o.VoucherCode, &o.TotalAmount, &o.PaymentMethod, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber derives the next per-tenant sequence value from the
// current maximum. Concurrent transactions can race to the same value; the
// caller retries on the unique constraint violation.
func (q *Queries) GetNextOrderNumber(ctx context.Context, tenantID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(SUBSTRING(order_number FROM '[0-9]+$')::int), 0) + 1
		FROM orders
		WHERE tenant_id = $1`, tenantID)
	var next int32
	err := row.Scan(&next)
	return next, err
}

type CreateOrderParams struct {
	TenantID         uuid.UUID
	OrderNumber      string
	CustomerID       pgtype.UUID
	OrderType        string
	DeliveryAddress  pgtype.Text
	DeliveryPostcode pgtype.Text
	ZoneID           pgtype.UUID
	Subtotal         pgtype.Numeric
	DeliveryFee      pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	VoucherID        pgtype.UUID
	VoucherCode      pgtype.Text
	TotalAmount      pgtype.Numeric
	PaymentMethod    string
	Notes            pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (tenant_id, order_number, customer_id, order_type,
			delivery_address, delivery_postcode, zone_id, subtotal, delivery_fee,
			discount_amount, voucher_id, voucher_code, total_amount, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+orderColumns,
		arg.TenantID, arg.OrderNumber, arg.CustomerID, arg.OrderType,
		arg.DeliveryAddress, arg.DeliveryPostcode, arg.ZoneID, arg.Subtotal, arg.DeliveryFee,
		arg.DiscountAmount, arg.VoucherID, arg.VoucherCode, arg.TotalAmount, arg.PaymentMethod, arg.Notes)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND tenant_id = $2`, arg.ID, arg.TenantID)
	return scanOrder(row)
}

type ListOrdersParams struct {
	TenantID uuid.UUID
	Status   pgtype.Text
	Limit    int32
	Offset   int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE tenant_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.TenantID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus is a guarded transition: it only applies when the order
// is still in FromStatus, so concurrent updates surface as pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status = $4
		RETURNING `+orderColumns,
		arg.ID, arg.TenantID, arg.Status, arg.FromStatus)
	return scanOrder(row)
}

type CancelOrderParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

// CancelOrder enforces its precondition atomically: only orders that are not
// already COMPLETED or CANCELLED are updated.
func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'CANCELLED', updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status NOT IN ('COMPLETED', 'CANCELLED')
		RETURNING `+orderColumns,
		arg.ID, arg.TenantID)
	return scanOrder(row)
}

const orderItemColumns = `id, order_id, menu_item_id, item_name, quantity, unit_price, addon_total, line_total, special_instructions`

type CreateOrderItemParams struct {
	OrderID             uuid.UUID
	MenuItemID          uuid.UUID
	ItemName            string
	Quantity            int32
	UnitPrice           pgtype.Numeric
	AddonTotal          pgtype.Numeric
	LineTotal           pgtype.Numeric
	SpecialInstructions pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, item_name, quantity, unit_price, addon_total, line_total, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.Quantity, arg.UnitPrice,
		arg.AddonTotal, arg.LineTotal, arg.SpecialInstructions)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.Quantity,
		&it.UnitPrice, &it.AddonTotal, &it.LineTotal, &it.SpecialInstructions)
	return it, err
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.Quantity,
			&it.UnitPrice, &it.AddonTotal, &it.LineTotal, &it.SpecialInstructions); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const orderItemAddonColumns = `id, order_item_id, addon_group_id, group_name, addon_option_id, option_name, quantity, unit_price, total_price, note`

type CreateOrderItemAddonParams struct {
	OrderItemID   uuid.UUID
	AddonGroupID  uuid.UUID
	GroupName     string
	AddonOptionID uuid.UUID
	OptionName    string
	Quantity      int32
	UnitPrice     pgtype.Numeric
	TotalPrice    pgtype.Numeric
	Note          pgtype.Text
}

func (q *Queries) CreateOrderItemAddon(ctx context.Context, arg CreateOrderItemAddonParams) (OrderItemAddon, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_item_addons (order_item_id, addon_group_id, group_name, addon_option_id, option_name, quantity, unit_price, total_price, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderItemAddonColumns,
		arg.OrderItemID, arg.AddonGroupID, arg.GroupName, arg.AddonOptionID, arg.OptionName,
		arg.Quantity, arg.UnitPrice, arg.TotalPrice, arg.Note)
	var a OrderItemAddon
	err := row.Scan(&a.ID, &a.OrderItemID, &a.AddonGroupID, &a.GroupName, &a.AddonOptionID,
		&a.OptionName, &a.Quantity, &a.UnitPrice, &a.TotalPrice, &a.Note)
	return a, err
}

func (q *Queries) ListOrderItemAddonsByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemAddon, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemAddonColumns+`
		FROM order_item_addons
		WHERE order_item_id = $1
		ORDER BY id`, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addons []OrderItemAddon
	for rows.Next() {
		var a OrderItemAddon
		if err := rows.Scan(&a.ID, &a.OrderItemID, &a.AddonGroupID, &a.GroupName, &a.AddonOptionID,
			&a.OptionName, &a.Quantity, &a.UnitPrice, &a.TotalPrice, &a.Note); err != nil {
			return nil, err
		}
		addons = append(addons, a)
	}
	return addons, rows.Err()
}

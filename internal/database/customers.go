package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const customerColumns = `id, tenant_id, full_name, email, phone, postcode, loyalty_points, lifetime_points, is_active, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.FullName, &c.Email, &c.Phone, &c.Postcode,
		&c.LoyaltyPoints, &c.LifetimePoints, &c.IsActive, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCustomersByTenant(ctx context.Context, tenantID uuid.UUID) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE tenant_id = $1 AND is_active
		ORDER BY full_name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

type GetCustomerParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetCustomer(ctx context.Context, arg GetCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE id = $1 AND tenant_id = $2 AND is_active`, arg.ID, arg.TenantID)
	return scanCustomer(row)
}

type CreateCustomerParams struct {
	TenantID uuid.UUID
	FullName string
	Email    pgtype.Text
	Phone    pgtype.Text
	Postcode pgtype.Text
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers (tenant_id, full_name, email, phone, postcode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		arg.TenantID, arg.FullName, arg.Email, arg.Phone, arg.Postcode)
	return scanCustomer(row)
}

type UpdateCustomerParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	FullName string
	Email    pgtype.Text
	Phone    pgtype.Text
	Postcode pgtype.Text
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET full_name = $3, email = $4, phone = $5, postcode = $6
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING `+customerColumns,
		arg.ID, arg.TenantID, arg.FullName, arg.Email, arg.Phone, arg.Postcode)
	return scanCustomer(row)
}

type SoftDeleteCustomerParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) SoftDeleteCustomer(ctx context.Context, arg SoftDeleteCustomerParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET is_active = FALSE
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.TenantID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

type AddLoyaltyPointsParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Points   int32
}

// AddLoyaltyPoints adjusts the spendable balance; positive amounts also grow
// the lifetime total that tier computation reads.
func (q *Queries) AddLoyaltyPoints(ctx context.Context, arg AddLoyaltyPointsParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers
		SET loyalty_points = loyalty_points + $3,
		    lifetime_points = lifetime_points + GREATEST($3, 0)
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING `+customerColumns,
		arg.ID, arg.TenantID, arg.Points)
	return scanCustomer(row)
}

const loyaltyEntryColumns = `id, customer_id, order_id, points, reason, created_at`

type CreateLoyaltyEntryParams struct {
	CustomerID uuid.UUID
	OrderID    pgtype.UUID
	Points     int32
	Reason     string
}

func (q *Queries) CreateLoyaltyEntry(ctx context.Context, arg CreateLoyaltyEntryParams) (LoyaltyEntry, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO loyalty_entries (customer_id, order_id, points, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING `+loyaltyEntryColumns,
		arg.CustomerID, arg.OrderID, arg.Points, arg.Reason)
	var e LoyaltyEntry
	err := row.Scan(&e.ID, &e.CustomerID, &e.OrderID, &e.Points, &e.Reason, &e.CreatedAt)
	return e, err
}

func (q *Queries) ListLoyaltyEntriesByCustomer(ctx context.Context, customerID uuid.UUID) ([]LoyaltyEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+loyaltyEntryColumns+`
		FROM loyalty_entries
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LoyaltyEntry
	for rows.Next() {
		var e LoyaltyEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.OrderID, &e.Points, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

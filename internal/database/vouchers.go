package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const voucherColumns = `id, tenant_id, code, voucher_type, value, min_order_amount, max_redemptions, redemption_count, expires_at, is_active`

func scanVoucher(row interface{ Scan(...any) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.TenantID, &v.Code, &v.VoucherType, &v.Value, &v.MinOrderAmount,
		&v.MaxRedemptions, &v.RedemptionCount, &v.ExpiresAt, &v.IsActive)
	return v, err
}

func (q *Queries) ListVouchersByTenant(ctx context.Context, tenantID uuid.UUID) ([]Voucher, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers
		WHERE tenant_id = $1 AND is_active
		ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

type GetVoucherParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) GetVoucher(ctx context.Context, arg GetVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers
		WHERE id = $1 AND tenant_id = $2 AND is_active`, arg.ID, arg.TenantID)
	return scanVoucher(row)
}

type GetVoucherByCodeParams struct {
	TenantID uuid.UUID
	Code     string
}

func (q *Queries) GetVoucherByCode(ctx context.Context, arg GetVoucherByCodeParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+voucherColumns+`
		FROM vouchers
		WHERE tenant_id = $1 AND code = $2 AND is_active`, arg.TenantID, arg.Code)
	return scanVoucher(row)
}

type CreateVoucherParams struct {
	TenantID       uuid.UUID
	Code           string
	VoucherType    string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	MaxRedemptions pgtype.Int4
	ExpiresAt      pgtype.Timestamptz
}

func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO vouchers (tenant_id, code, voucher_type, value, min_order_amount, max_redemptions, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+voucherColumns,
		arg.TenantID, arg.Code, arg.VoucherType, arg.Value, arg.MinOrderAmount,
		arg.MaxRedemptions, arg.ExpiresAt)
	return scanVoucher(row)
}

type UpdateVoucherParams struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Code           string
	VoucherType    string
	Value          pgtype.Numeric
	MinOrderAmount pgtype.Numeric
	MaxRedemptions pgtype.Int4
	ExpiresAt      pgtype.Timestamptz
}

func (q *Queries) UpdateVoucher(ctx context.Context, arg UpdateVoucherParams) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE vouchers
		SET code = $3, voucher_type = $4, value = $5, min_order_amount = $6,
		    max_redemptions = $7, expires_at = $8
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING `+voucherColumns,
		arg.ID, arg.TenantID, arg.Code, arg.VoucherType, arg.Value, arg.MinOrderAmount,
		arg.MaxRedemptions, arg.ExpiresAt)
	return scanVoucher(row)
}

type SoftDeleteVoucherParams struct {
	ID       uuid.UUID
	TenantID uuid.UUID
}

func (q *Queries) SoftDeleteVoucher(ctx context.Context, arg SoftDeleteVoucherParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE vouchers
		SET is_active = FALSE
		WHERE id = $1 AND tenant_id = $2 AND is_active
		RETURNING id`, arg.ID, arg.TenantID)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

// IncrementVoucherRedemptions counts a redemption, refusing once the cap is
// reached (returns pgx.ErrNoRows through the empty result).
func (q *Queries) IncrementVoucherRedemptions(ctx context.Context, id uuid.UUID) (Voucher, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE vouchers
		SET redemption_count = redemption_count + 1
		WHERE id = $1 AND is_active
		  AND (max_redemptions IS NULL OR redemption_count < max_redemptions)
		RETURNING `+voucherColumns, id)
	return scanVoucher(row)
}

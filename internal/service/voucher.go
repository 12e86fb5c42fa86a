package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderdeck/api/internal/database"
	"github.com/orderdeck/api/internal/enum"
)

// VoucherDiscount computes the flat discount a voucher grants on a subtotal.
// Percentage vouchers resolve to a concrete amount here; orders always store
// the flat figure. Redemption caps are enforced separately inside the order
// transaction, this only checks expiry and the minimum order amount.
func VoucherDiscount(v database.Voucher, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if v.ExpiresAt.Valid && v.ExpiresAt.Time.Before(now) {
		return decimal.Zero, ErrVoucherExpired
	}
	if v.MaxRedemptions.Valid && v.RedemptionCount >= v.MaxRedemptions.Int32 {
		return decimal.Zero, ErrVoucherExhausted
	}
	if v.MinOrderAmount.Valid && subtotal.LessThan(numericToDecimal(v.MinOrderAmount)) {
		return decimal.Zero, ErrVoucherMinOrder
	}

	value := numericToDecimal(v.Value)
	var discount decimal.Decimal
	if v.VoucherType == enum.VoucherTypePercentage {
		discount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
	} else {
		discount = value
	}
	// A fixed voucher larger than the subtotal never takes the discount
	// below the order's own value.
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, nil
}

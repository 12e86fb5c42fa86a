package pricing

import "github.com/shopspring/decimal"

// LineTotal is the full price of one order line:
// (base item price + addon total) × quantity.
func LineTotal(basePrice, addonTotal decimal.Decimal, quantity int32) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return basePrice.Add(addonTotal).Mul(decimal.NewFromInt32(quantity))
}

// AddonItemTotal sums the derived totals of an order line's selected addons.
func AddonItemTotal(addons []SelectedAddon) decimal.Decimal {
	total := decimal.Zero
	for _, a := range addons {
		total = total.Add(a.TotalPrice)
	}
	return total
}

// OrderTotal assembles the order grand total:
// subtotal + delivery fee − discount, clamped at zero.
// There is no tax term; the platform operates tax-free.
func OrderTotal(subtotal, deliveryFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

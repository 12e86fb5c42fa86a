// Package pricing implements addon-aware line pricing for menu items: the
// addon group model, per-session selection state, cardinality validation,
// and the quantity-tier-aware price calculator. It is pure in-memory logic;
// persistence and transport live elsewhere.
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityPricing makes the first BaseQuantity units of an option cost the
// option's listed price and every further unit cost AdditionalPrice.
type QuantityPricing struct {
	BaseQuantity    int32
	AdditionalPrice decimal.Decimal
}

// AddonOption is one selectable modifier inside a group.
type AddonOption struct {
	ID              uuid.UUID
	Name            string
	Price           decimal.Decimal
	Available       bool
	QuantityPricing *QuantityPricing
}

// AddonGroup describes a named set of selectable modifiers for a menu item.
// Type is enum.AddonGroupTypeSingle or enum.AddonGroupTypeMultiple; a SINGLE
// group always has MaxSelections = 1.
type AddonGroup struct {
	ID            uuid.UUID
	Name          string
	Type          string
	Category      string
	Required      bool
	MinSelections int32
	MaxSelections int32
	Options       []AddonOption
}

// Option looks up an option by ID within the group's definition order.
func (g AddonGroup) Option(id uuid.UUID) (AddonOption, bool) {
	for _, opt := range g.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return AddonOption{}, false
}

// SelectedAddonOption is a chosen option on an order line. TotalPrice is
// derived by the calculator, never set by callers.
type SelectedAddonOption struct {
	OptionID   uuid.UUID
	Name       string
	Quantity   int32
	Note       string
	TotalPrice decimal.Decimal
}

// SelectedAddon is the per-group selection attached to an order line.
// Once an item is added to an order it is treated as immutable.
type SelectedAddon struct {
	GroupID    uuid.UUID
	GroupName  string
	GroupType  string
	Options    []SelectedAddonOption
	TotalPrice decimal.Decimal
}

// OptionTotal prices quantity units of an option, applying tier pricing when
// configured: price × base + additional × (quantity − base) beyond the
// threshold, plain price × quantity otherwise.
func OptionTotal(opt AddonOption, quantity int32) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	if qp := opt.QuantityPricing; qp != nil && qp.BaseQuantity > 0 && quantity > qp.BaseQuantity {
		base := decimal.NewFromInt32(qp.BaseQuantity)
		extra := decimal.NewFromInt32(quantity - qp.BaseQuantity)
		return opt.Price.Mul(base).Add(qp.AdditionalPrice.Mul(extra))
	}
	return opt.Price.Mul(decimal.NewFromInt32(quantity))
}

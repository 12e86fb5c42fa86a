package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OptionQuote is the itemized price of one selected option.
type OptionQuote struct {
	OptionID  uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// GroupQuote is the itemized subtotal of one group's selections.
type GroupQuote struct {
	GroupID   uuid.UUID
	GroupName string
	Total     decimal.Decimal
	Options   []OptionQuote
}

// Quote is the addon-only price breakdown of a selection. The base menu item
// price is the caller's concern; see LineTotal. Discounts is carried for the
// breakdown shape but no bulk-discount rule exists, so it is always zero and
// Total equals Subtotal.
type Quote struct {
	Subtotal  decimal.Decimal
	Discounts decimal.Decimal
	Total     decimal.Decimal
	Groups    []GroupQuote
}

// Quote derives the per-option, per-group, and grand-total addon price from
// the current selection state, applying quantity-tier pricing where
// configured. Internal sums stay at full precision; rounding happens only at
// the formatting boundary (FormatMoney).
func (s *Selection) Quote() Quote {
	q := Quote{
		Subtotal:  decimal.Zero,
		Discounts: decimal.Zero,
	}
	for _, gid := range s.order {
		group := s.groups[gid]
		entries := s.chosen[gid]
		if len(entries) == 0 {
			continue
		}

		gq := GroupQuote{
			GroupID:   group.ID,
			GroupName: group.Name,
			Total:     decimal.Zero,
		}
		for _, opt := range group.Options {
			entry, ok := entries[opt.ID]
			if !ok || entry.quantity <= 0 {
				continue
			}
			total := OptionTotal(opt, entry.quantity)
			gq.Options = append(gq.Options, OptionQuote{
				OptionID:  opt.ID,
				Name:      opt.Name,
				Quantity:  entry.quantity,
				UnitPrice: opt.Price,
				Total:     total,
			})
			gq.Total = gq.Total.Add(total)
		}
		if len(gq.Options) == 0 {
			continue
		}
		q.Groups = append(q.Groups, gq)
		q.Subtotal = q.Subtotal.Add(gq.Total)
	}
	q.Total = q.Subtotal.Sub(q.Discounts)
	return q
}

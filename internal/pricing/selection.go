package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderdeck/api/internal/enum"
)

type selectedEntry struct {
	quantity int32
	note     string
}

// Selection holds the per-group option choices of one customization session,
// from "open item customization" until "add to cart" or discard. It is owned
// exclusively by that session and is not safe for concurrent use.
type Selection struct {
	groups map[uuid.UUID]AddonGroup
	order  []uuid.UUID
	chosen map[uuid.UUID]map[uuid.UUID]selectedEntry
}

// NewSelection creates an empty selection over the given group definitions.
// Group definition order is preserved for validation and quote output.
func NewSelection(groups []AddonGroup) *Selection {
	s := &Selection{
		groups: make(map[uuid.UUID]AddonGroup, len(groups)),
		order:  make([]uuid.UUID, 0, len(groups)),
		chosen: make(map[uuid.UUID]map[uuid.UUID]selectedEntry),
	}
	for _, g := range groups {
		s.groups[g.ID] = g
		s.order = append(s.order, g.ID)
	}
	return s
}

// SetOption upserts the quantity and note for an option. On SINGLE groups any
// other selected option is cleared first. A quantity of zero or less removes
// the entry entirely; there is no zero-quantity selected state.
func (s *Selection) SetOption(groupID, optionID uuid.UUID, quantity int32, note string) {
	group, ok := s.groups[groupID]
	if !ok {
		return
	}
	if _, ok := group.Option(optionID); !ok {
		return
	}

	if quantity <= 0 {
		if entries, ok := s.chosen[groupID]; ok {
			delete(entries, optionID)
			if len(entries) == 0 {
				delete(s.chosen, groupID)
			}
		}
		return
	}

	if group.Type == enum.AddonGroupTypeSingle {
		delete(s.chosen, groupID)
	}

	entries := s.chosen[groupID]
	if entries == nil {
		entries = make(map[uuid.UUID]selectedEntry)
		s.chosen[groupID] = entries
	}
	entries[optionID] = selectedEntry{quantity: quantity, note: note}
}

// Apply upserts an entry without the SINGLE-group clearing behavior of
// SetOption. It exists for server-side revalidation of client-submitted
// selections: an over-filled SINGLE group must be loaded as-is so Validate
// can reject it, not silently reduced to one option.
func (s *Selection) Apply(groupID, optionID uuid.UUID, quantity int32, note string) {
	group, ok := s.groups[groupID]
	if !ok {
		return
	}
	if _, ok := group.Option(optionID); !ok {
		return
	}
	if quantity <= 0 {
		return
	}
	entries := s.chosen[groupID]
	if entries == nil {
		entries = make(map[uuid.UUID]selectedEntry)
		s.chosen[groupID] = entries
	}
	entries[optionID] = selectedEntry{quantity: quantity, note: note}
}

// Quantity returns the selected quantity for an option, 0 when absent.
func (s *Selection) Quantity(groupID, optionID uuid.UUID) int32 {
	return s.chosen[groupID][optionID].quantity
}

// Note returns the custom note stored with an option, "" when absent.
func (s *Selection) Note(groupID, optionID uuid.UUID) string {
	return s.chosen[groupID][optionID].note
}

// Increment raises an option's quantity by one. The increment is refused
// (returning false) once the group's aggregate selected count would exceed
// MaxSelections; a MaxSelections of zero means unbounded.
func (s *Selection) Increment(groupID, optionID uuid.UUID) bool {
	group, ok := s.groups[groupID]
	if !ok {
		return false
	}
	if _, ok := group.Option(optionID); !ok {
		return false
	}
	if group.MaxSelections > 0 && s.SelectedCount(groupID)+1 > group.MaxSelections {
		return false
	}
	s.SetOption(groupID, optionID, s.Quantity(groupID, optionID)+1, s.Note(groupID, optionID))
	return true
}

// Decrement lowers an option's quantity by one. Reaching zero removes the
// option from the selection, falling back to the unselected state.
func (s *Selection) Decrement(groupID, optionID uuid.UUID) {
	s.SetOption(groupID, optionID, s.Quantity(groupID, optionID)-1, s.Note(groupID, optionID))
}

// Clear removes every selected option in the group.
func (s *Selection) Clear(groupID uuid.UUID) {
	delete(s.chosen, groupID)
}

// SelectedCount is the sum of quantities across all chosen options in the group.
func (s *Selection) SelectedCount(groupID uuid.UUID) int32 {
	var total int32
	for _, e := range s.chosen[groupID] {
		total += e.quantity
	}
	return total
}

// distinctCount is the number of distinct option IDs selected in the group.
func (s *Selection) distinctCount(groupID uuid.UUID) int {
	return len(s.chosen[groupID])
}

// SelectedAddons materializes the current state into per-group SelectedAddon
// values with derived totals, ready to hand to cart/order assembly. Groups
// with no selection are omitted; option order follows the group definition.
func (s *Selection) SelectedAddons() []SelectedAddon {
	var result []SelectedAddon
	for _, gid := range s.order {
		group := s.groups[gid]
		entries := s.chosen[gid]
		if len(entries) == 0 {
			continue
		}

		sel := SelectedAddon{
			GroupID:    group.ID,
			GroupName:  group.Name,
			GroupType:  group.Type,
			TotalPrice: decimal.Zero,
		}
		for _, opt := range group.Options {
			entry, ok := entries[opt.ID]
			if !ok {
				continue
			}
			total := OptionTotal(opt, entry.quantity)
			sel.Options = append(sel.Options, SelectedAddonOption{
				OptionID:   opt.ID,
				Name:       opt.Name,
				Quantity:   entry.quantity,
				Note:       entry.note,
				TotalPrice: total,
			})
			sel.TotalPrice = sel.TotalPrice.Add(total)
		}
		result = append(result, sel)
	}
	return result
}

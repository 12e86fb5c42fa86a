package pricing

import (
	"fmt"

	"github.com/orderdeck/api/internal/enum"
)

// Validation is the outcome of checking a selection against its group rules.
// Every failure is recoverable by changing the selection; callers gate
// add-to-cart/confirm actions on Valid, nothing blocks rendering.
type Validation struct {
	Valid  bool
	Errors []string
}

// Validate checks group cardinality rules against the current selection and
// collects human-readable errors in group definition order.
//
// The required check and the min-selections check are deliberately
// independent: a required MULTIPLE group with MinSelections = 0 fails the
// required check on an empty selection even though the min check passes.
func (s *Selection) Validate() Validation {
	var errs []string
	for _, gid := range s.order {
		group := s.groups[gid]
		count := s.SelectedCount(gid)

		if group.Required && count == 0 {
			errs = append(errs, fmt.Sprintf("%s is required", group.Name))
		}
		if count > 0 && count < group.MinSelections {
			errs = append(errs, fmt.Sprintf("Select at least %d option(s) for %s", group.MinSelections, group.Name))
		}
		if group.MaxSelections > 0 && count > group.MaxSelections {
			errs = append(errs, fmt.Sprintf("Maximum %d option(s) allowed for %s", group.MaxSelections, group.Name))
		}
		if group.Type == enum.AddonGroupTypeSingle && s.distinctCount(gid) > 1 {
			errs = append(errs, fmt.Sprintf("Only one selection allowed for %s", group.Name))
		}
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

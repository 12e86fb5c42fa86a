package service

import (
	"strings"

	"github.com/orderdeck/api/internal/database"
)

// NormalizePostcode uppercases a postcode and strips all whitespace so that
// "se15 6aa" and "SE156AA" compare equal.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// MatchZone finds the delivery zone covering a postcode. Prefixes are matched
// against the normalized postcode; when several zones match, the longest
// prefix wins. Inactive zones never match.
func MatchZone(zones []database.DeliveryZone, postcode string) (database.DeliveryZone, bool) {
	normalized := NormalizePostcode(postcode)

	var best database.DeliveryZone
	bestLen := -1
	for _, zone := range zones {
		if !zone.IsActive {
			continue
		}
		for _, prefix := range zone.PostcodePrefixes {
			p := NormalizePostcode(prefix)
			if p == "" || !strings.HasPrefix(normalized, p) {
				continue
			}
			if len(p) > bestLen {
				best = zone
				bestLen = len(p)
			}
		}
	}
	return best, bestLen >= 0
}

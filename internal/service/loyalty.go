package service

import "github.com/orderdeck/api/internal/enum"

// Tier thresholds on lifetime points. Spending points never demotes a
// customer because tiers read the lifetime total, not the balance.
const (
	silverThreshold = 500
	goldThreshold   = 2000
)

// TierForPoints maps a lifetime point total to a loyalty tier.
func TierForPoints(lifetime int32) string {
	switch {
	case lifetime >= goldThreshold:
		return enum.LoyaltyTierGold
	case lifetime >= silverThreshold:
		return enum.LoyaltyTierSilver
	default:
		return enum.LoyaltyTierBronze
	}
}

package enums

import "fmt"

// LoyaltyTier is the status bucket derived from a points balance.
type LoyaltyTier string

const (
	LoyaltyTierBronze LoyaltyTier = "Bronze"
	LoyaltyTierSilver LoyaltyTier = "Silver"
	LoyaltyTierGold   LoyaltyTier = "Gold"
)

var validLoyaltyTiers = []LoyaltyTier{
	LoyaltyTierBronze,
	LoyaltyTierSilver,
	LoyaltyTierGold,
}

// String implements fmt.Stringer.
func (l LoyaltyTier) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoyaltyTier.
func (l LoyaltyTier) IsValid() bool {
	for _, candidate := range validLoyaltyTiers {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoyaltyTier converts raw input into a LoyaltyTier.
func ParseLoyaltyTier(value string) (LoyaltyTier, error) {
	for _, candidate := range validLoyaltyTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty tier %q", value)
}

// Package loyalty converts spend into points and points into checkout discounts.
// All functions are pure.
package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/burgnice/storefront/pkg/config"
	"github.com/burgnice/storefront/pkg/enums"
)

// Policy holds the program constants. DefaultPolicy matches the published terms;
// the values are configurable so the program can change without a release.
type Policy struct {
	SpendPerPoint   float64
	RedeemCap       int
	PointsPerStep   int
	DiscountPerStep float64
	SilverThreshold int
	GoldThreshold   int
}

// DefaultPolicy: 1 point per 10 spent, at most 500 points per order, every full
// 100 points is 10 off, Silver from 500 points and Gold from 1000.
func DefaultPolicy() Policy {
	return Policy{
		SpendPerPoint:   10,
		RedeemCap:       500,
		PointsPerStep:   100,
		DiscountPerStep: 10,
		SilverThreshold: 500,
		GoldThreshold:   1000,
	}
}

// PolicyFromConfig fills unset or invalid values from DefaultPolicy.
func PolicyFromConfig(cfg config.LoyaltyConfig) Policy {
	p := DefaultPolicy()
	if cfg.SpendPerPoint > 0 {
		p.SpendPerPoint = cfg.SpendPerPoint
	}
	if cfg.RedeemCap >= 0 {
		p.RedeemCap = cfg.RedeemCap
	}
	if cfg.PointsPerStep > 0 {
		p.PointsPerStep = cfg.PointsPerStep
	}
	if cfg.DiscountPerStep >= 0 {
		p.DiscountPerStep = cfg.DiscountPerStep
	}
	if cfg.SilverThreshold > 0 {
		p.SilverThreshold = cfg.SilverThreshold
	}
	if cfg.GoldThreshold > 0 {
		p.GoldThreshold = cfg.GoldThreshold
	}
	return p
}

// PointsEarned is floor(subtotal / SpendPerPoint). Negative subtotals earn nothing.
func (p Policy) PointsEarned(subtotal float64) int {
	if subtotal <= 0 || p.SpendPerPoint <= 0 {
		return 0
	}
	points := decimal.NewFromFloat(subtotal).
		Div(decimal.NewFromFloat(p.SpendPerPoint)).
		Floor()
	return int(points.IntPart())
}

// TierOf maps a balance to its tier.
func (p Policy) TierOf(points int) enums.LoyaltyTier {
	switch {
	case points >= p.GoldThreshold:
		return enums.LoyaltyTierGold
	case points >= p.SilverThreshold:
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}

// MaxRedeemablePoints caps a balance at the per-order redemption limit.
func (p Policy) MaxRedeemablePoints(available int) int {
	if available <= 0 {
		return 0
	}
	if available > p.RedeemCap {
		return p.RedeemCap
	}
	return available
}

// DiscountFor is a step function: each full PointsPerStep points is worth
// DiscountPerStep, partial steps are worth nothing.
func (p Policy) DiscountFor(points int) float64 {
	if points <= 0 || p.PointsPerStep <= 0 {
		return 0
	}
	steps := points / p.PointsPerStep
	return float64(steps) * p.DiscountPerStep
}

// FinalTotal never goes below zero.
func (p Policy) FinalTotal(subtotal, discount float64) float64 {
	total := subtotal - discount
	if total < 0 {
		return 0
	}
	return total
}

// Redemption returns the points to spend and the resulting discount for a
// checkout. Nothing is redeemed unless the customer opted in.
func (p Policy) Redemption(available int, useLoyalty bool) (pointsUsed int, discount float64) {
	if !useLoyalty {
		return 0, 0
	}
	pointsUsed = p.MaxRedeemablePoints(available)
	return pointsUsed, p.DiscountFor(pointsUsed)
}

// Account is the derived loyalty view of a customer.
type Account struct {
	Points           int               `json:"points"`
	Tier             enums.LoyaltyTier `json:"tier"`
	RedeemablePoints int               `json:"redeemablePoints"`
	RedeemableValue  float64           `json:"redeemableValue"`
	NextTier         enums.LoyaltyTier `json:"nextTier,omitempty"`
	PointsToNextTier int               `json:"pointsToNextTier,omitempty"`
}

// AccountFor derives the account view for a balance. Negative balances are
// treated as zero.
func (p Policy) AccountFor(points int) Account {
	if points < 0 {
		points = 0
	}
	redeemable := p.MaxRedeemablePoints(points)
	acct := Account{
		Points:           points,
		Tier:             p.TierOf(points),
		RedeemablePoints: redeemable,
		RedeemableValue:  p.DiscountFor(redeemable),
	}
	switch acct.Tier {
	case enums.LoyaltyTierBronze:
		acct.NextTier = enums.LoyaltyTierSilver
		acct.PointsToNextTier = p.SilverThreshold - points
	case enums.LoyaltyTierSilver:
		acct.NextTier = enums.LoyaltyTierGold
		acct.PointsToNextTier = p.GoldThreshold - points
	}
	return acct
}

var defaultPolicy = DefaultPolicy()

// PointsEarned applies DefaultPolicy.
func PointsEarned(subtotal float64) int { return defaultPolicy.PointsEarned(subtotal) }

// TierOf applies DefaultPolicy.
func TierOf(points int) enums.LoyaltyTier { return defaultPolicy.TierOf(points) }

// MaxRedeemablePoints applies DefaultPolicy.
func MaxRedeemablePoints(available int) int { return defaultPolicy.MaxRedeemablePoints(available) }

// DiscountFor applies DefaultPolicy.
func DiscountFor(points int) float64 { return defaultPolicy.DiscountFor(points) }

// FinalTotal applies DefaultPolicy.
func FinalTotal(subtotal, discount float64) float64 {
	return defaultPolicy.FinalTotal(subtotal, discount)
}

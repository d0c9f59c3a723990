package loyalty

import (
	"testing"

	"github.com/burgnice/storefront/pkg/config"
	"github.com/burgnice/storefront/pkg/enums"
)

func TestDiscountForIsStepFunction(t *testing.T) {
	cases := []struct {
		points int
		want   float64
	}{
		{0, 0},
		{-50, 0},
		{99, 0},
		{100, 10},
		{149, 10},
		{199, 10},
		{200, 20},
		{500, 50},
	}
	for _, tc := range cases {
		if got := DiscountFor(tc.points); got != tc.want {
			t.Fatalf("DiscountFor(%d) = %v, want %v", tc.points, got, tc.want)
		}
	}
}

func TestMaxRedeemablePointsCapsBalance(t *testing.T) {
	cases := map[int]int{
		10000: 500,
		500:   500,
		300:   300,
		0:     0,
		-20:   0,
	}
	for available, want := range cases {
		if got := MaxRedeemablePoints(available); got != want {
			t.Fatalf("MaxRedeemablePoints(%d) = %d, want %d", available, got, want)
		}
	}
}

func TestPointsEarnedFloorsSpend(t *testing.T) {
	cases := []struct {
		subtotal float64
		want     int
	}{
		{99, 9},
		{100, 10},
		{9.99, 0},
		{0, 0},
		{-10, 0},
		{129.9, 12},
	}
	for _, tc := range cases {
		if got := PointsEarned(tc.subtotal); got != tc.want {
			t.Fatalf("PointsEarned(%v) = %d, want %d", tc.subtotal, got, tc.want)
		}
	}
}

func TestTierOfThresholds(t *testing.T) {
	cases := []struct {
		points int
		want   enums.LoyaltyTier
	}{
		{0, enums.LoyaltyTierBronze},
		{499, enums.LoyaltyTierBronze},
		{500, enums.LoyaltyTierSilver},
		{999, enums.LoyaltyTierSilver},
		{1000, enums.LoyaltyTierGold},
		{25000, enums.LoyaltyTierGold},
	}
	for _, tc := range cases {
		if got := TierOf(tc.points); got != tc.want {
			t.Fatalf("TierOf(%d) = %s, want %s", tc.points, got, tc.want)
		}
	}
}

func TestFinalTotalNeverNegative(t *testing.T) {
	if got := FinalTotal(30, 50); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := FinalTotal(120, 20); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestRedemptionRequiresOptIn(t *testing.T) {
	p := DefaultPolicy()

	used, discount := p.Redemption(1200, false)
	if used != 0 || discount != 0 {
		t.Fatalf("expected no redemption without opt-in, got %d/%v", used, discount)
	}

	used, discount = p.Redemption(1200, true)
	if used != 500 || discount != 50 {
		t.Fatalf("expected 500 points for 50 off, got %d/%v", used, discount)
	}

	used, discount = p.Redemption(150, true)
	if used != 150 || discount != 10 {
		t.Fatalf("expected 150 points for 10 off, got %d/%v", used, discount)
	}
}

func TestAccountForReportsNextTier(t *testing.T) {
	p := DefaultPolicy()

	acct := p.AccountFor(320)
	if acct.Tier != enums.LoyaltyTierBronze || acct.NextTier != enums.LoyaltyTierSilver || acct.PointsToNextTier != 180 {
		t.Fatalf("unexpected bronze account %+v", acct)
	}
	if acct.RedeemablePoints != 320 || acct.RedeemableValue != 30 {
		t.Fatalf("unexpected redeemable values %+v", acct)
	}

	acct = p.AccountFor(750)
	if acct.Tier != enums.LoyaltyTierSilver || acct.NextTier != enums.LoyaltyTierGold || acct.PointsToNextTier != 250 {
		t.Fatalf("unexpected silver account %+v", acct)
	}

	acct = p.AccountFor(1500)
	if acct.Tier != enums.LoyaltyTierGold || acct.NextTier != "" || acct.PointsToNextTier != 0 {
		t.Fatalf("unexpected gold account %+v", acct)
	}
	if acct.RedeemablePoints != 500 || acct.RedeemableValue != 50 {
		t.Fatalf("gold redemption should be capped, got %+v", acct)
	}
}

func TestPolicyFromConfigOverrides(t *testing.T) {
	p := PolicyFromConfig(config.LoyaltyConfig{
		SpendPerPoint:   5,
		RedeemCap:       1000,
		PointsPerStep:   50,
		DiscountPerStep: 5,
		SilverThreshold: 300,
		GoldThreshold:   800,
	})

	if got := p.PointsEarned(20); got != 4 {
		t.Fatalf("expected 4 points, got %d", got)
	}
	if got := p.DiscountFor(149); got != 10 {
		t.Fatalf("expected 10 off, got %v", got)
	}
	if got := p.MaxRedeemablePoints(2000); got != 1000 {
		t.Fatalf("expected cap 1000, got %d", got)
	}
	if got := p.TierOf(300); got != enums.LoyaltyTierSilver {
		t.Fatalf("expected silver, got %s", got)
	}
}

func TestPolicyFromConfigFallsBackOnInvalidValues(t *testing.T) {
	p := PolicyFromConfig(config.LoyaltyConfig{RedeemCap: -1, DiscountPerStep: -1})
	if p != DefaultPolicy() {
		t.Fatalf("expected defaults, got %+v", p)
	}
}

// internal/service/affiliate/domain/campaign_test.go
package domain

import (
	"errors"
	"testing"
	"time"
)

type stubRules struct {
	result bool
	err    error
	rules  []string
}

func (s *stubRules) Evaluate(rule string, _ Fact) (bool, error) {
	s.rules = append(s.rules, rule)
	return s.result, s.err
}

func TestCampaignTargetMatches(t *testing.T) {
	anyone := CampaignTarget{Kind: TargetAnyAffiliate}
	if !anyone.Matches("whoever") {
		t.Error("all-target must match any affiliate")
	}

	selected := CampaignTarget{Kind: TargetSpecificAffiliates, AffiliateIDs: []string{"a", "b"}}
	if !selected.Matches("b") {
		t.Error("listed affiliate must match")
	}
	if selected.Matches("c") {
		t.Error("unlisted affiliate must not match")
	}
}

func TestCampaignIsActiveAt(t *testing.T) {
	now := time.Now()
	campaign := &Campaign{
		Status:   CampaignActive,
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
	}
	if !campaign.IsActiveAt(now) {
		t.Error("campaign inside window must be active")
	}
	if campaign.IsActiveAt(now.Add(2 * time.Hour)) {
		t.Error("campaign after window must be inactive")
	}
	if campaign.IsActiveAt(now.Add(-2 * time.Hour)) {
		t.Error("campaign before window must be inactive")
	}

	campaign.Status = CampaignPaused
	if campaign.IsActiveAt(now) {
		t.Error("paused campaign must be inactive")
	}

	open := &Campaign{Status: CampaignActive}
	if !open.IsActiveAt(now) {
		t.Error("campaign without window must be always active")
	}
}

func TestCampaignAppliesTo(t *testing.T) {
	campaign := &Campaign{
		Target:   CampaignTarget{Kind: TargetAnyAffiliate},
		Products: ProductScope{Kind: SelectedProducts, ProductIDs: []string{"p1", "p2"}},
	}

	applies, err := campaign.AppliesTo("aff", []string{"p9", "p2"}, nil)
	if err != nil || !applies {
		t.Errorf("id-list hit: (%v, %v)", applies, err)
	}
	applies, err = campaign.AppliesTo("aff", []string{"p9"}, nil)
	if err != nil || applies {
		t.Errorf("id-list miss without rule: (%v, %v)", applies, err)
	}
}

func TestCampaignAppliesToFallsBackToRule(t *testing.T) {
	rules := &stubRules{result: true}
	campaign := &Campaign{
		Target: CampaignTarget{Kind: TargetAnyAffiliate},
		Products: ProductScope{
			Kind:       SelectedProducts,
			ProductIDs: []string{"p1"},
			Rule:       `productIds.exists(p, p.startsWith("lure-"))`,
		},
	}

	applies, err := campaign.AppliesTo("aff", []string{"lure-77"}, rules)
	if err != nil || !applies {
		t.Fatalf("rule hit: (%v, %v)", applies, err)
	}
	if len(rules.rules) != 1 {
		t.Errorf("rule evaluated %d times, want 1", len(rules.rules))
	}

	// ID 列表命中时不评估规则
	rules.rules = nil
	if _, err := campaign.AppliesTo("aff", []string{"p1"}, rules); err != nil {
		t.Fatal(err)
	}
	if len(rules.rules) != 0 {
		t.Error("rule must not run when the id list already matched")
	}
}

func TestCampaignAppliesToRuleError(t *testing.T) {
	rules := &stubRules{err: errors.New("bad rule")}
	campaign := &Campaign{
		Target:   CampaignTarget{Kind: TargetAnyAffiliate},
		Products: ProductScope{Kind: SelectedProducts, Rule: "broken("},
	}
	if _, err := campaign.AppliesTo("aff", []string{"p1"}, rules); err == nil {
		t.Fatal("rule error must propagate")
	}
}

func TestCommissionableBase(t *testing.T) {
	cases := []struct {
		total, shipping, vat, want float64
	}{
		{89, 0, 25, 71.20},
		{207, 29, 25, 142.40},
		{100, 0, 0, 100},
		{125, 25, 25, 80},
	}
	for _, tc := range cases {
		if got := CommissionableBase(tc.total, tc.shipping, tc.vat); got != tc.want {
			t.Errorf("CommissionableBase(%v, %v, %v) = %v, want %v", tc.total, tc.shipping, tc.vat, got, tc.want)
		}
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	// 半值用二进制可精确表示的数，避免字面量本身的浮点偏差
	cases := map[float64]float64{
		0.125:   0.13,
		-0.125:  -0.13,
		14.2349: 14.23,
		14.2351: 14.24,
		71.996:  72.00,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

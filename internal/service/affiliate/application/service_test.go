// internal/service/affiliate/application/service_test.go
package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"b8shield/internal/service/affiliate/domain"

	"go.opentelemetry.io/otel/trace/noop"
)

type incrementCall struct {
	code        string
	earnings    float64
	conversions int64
	clicks      int64
}

type fakeAffiliateRepo struct {
	accounts   map[string]*domain.AffiliateAccount
	increments []incrementCall
	incErr     error
}

func (f *fakeAffiliateRepo) FindActiveByCode(_ context.Context, code string) (*domain.AffiliateAccount, error) {
	if account, ok := f.accounts[code]; ok {
		return account, nil
	}
	return nil, domain.ErrAffiliateNotFound
}

func (f *fakeAffiliateRepo) IncrementStats(_ context.Context, code string, earnings float64, conversions, clicks int64) error {
	if f.incErr != nil {
		return f.incErr
	}
	f.increments = append(f.increments, incrementCall{code, earnings, conversions, clicks})
	return nil
}

type fakeClickRepo struct {
	created   []*domain.AffiliateClick
	converted map[string]float64
	markErr   error
}

func (f *fakeClickRepo) Create(_ context.Context, click *domain.AffiliateClick) error {
	f.created = append(f.created, click)
	return nil
}

func (f *fakeClickRepo) FindByID(_ context.Context, id string) (*domain.AffiliateClick, error) {
	for _, c := range f.created {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrClickNotFound
}

func (f *fakeClickRepo) MarkConverted(_ context.Context, id, _ string, amount float64) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.converted == nil {
		f.converted = map[string]float64{}
	}
	f.converted[id] = amount
	return nil
}

type fakeCampaignRepo struct {
	campaigns   []*domain.Campaign
	clickCounts map[string]int64
}

func (f *fakeCampaignRepo) FindByCode(_ context.Context, code string) (*domain.Campaign, error) {
	for _, c := range f.campaigns {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrCampaignNotFound
}

func (f *fakeCampaignRepo) ListActiveRevenueShare(context.Context) ([]*domain.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeCampaignRepo) IncrementClicks(_ context.Context, code string) error {
	if f.clickCounts == nil {
		f.clickCounts = map[string]int64{}
	}
	f.clickCounts[code]++
	return nil
}

func activeAccount(id, code string, rate float64) *domain.AffiliateAccount {
	return &domain.AffiliateAccount{
		ID:             id,
		AffiliateCode:  code,
		Status:         domain.StatusActive,
		CommissionRate: rate,
	}
}

func newAttributionService(affiliates *fakeAffiliateRepo, clicks *fakeClickRepo, campaigns *fakeCampaignRepo) *AffiliateService {
	return NewAffiliateService(affiliates, clicks, campaigns, nil,
		noop.NewTracerProvider().Tracer("test"), 25)
}

func TestAttributeComputesCommission(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"FISKE20": activeAccount("aff-1", "FISKE20", 20),
	}}
	clicks := &fakeClickRepo{}
	svc := newAttributionService(affiliates, clicks, &fakeCampaignRepo{})

	// total 89, 无运费, 25% VAT: base = 89/1.25 = 71.20
	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:          "order-1",
		Total:            89,
		AffiliateCode:    "FISKE20",
		AffiliateClickID: "click-1",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if result == nil {
		t.Fatal("expected attribution result")
	}
	if result.CommissionableBase != 71.20 {
		t.Errorf("base = %v, want 71.20", result.CommissionableBase)
	}
	if result.AffiliateCommission != 14.24 {
		t.Errorf("commission = %v, want 14.24", result.AffiliateCommission)
	}
	if len(affiliates.increments) != 1 {
		t.Fatalf("increments = %d, want 1", len(affiliates.increments))
	}
	inc := affiliates.increments[0]
	if inc.code != "FISKE20" || inc.earnings != 14.24 || inc.conversions != 1 {
		t.Errorf("increment = %+v", inc)
	}
}

func TestAttributeSubtractsShippingBeforeVAT(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"X": activeAccount("aff-1", "X", 20),
	}}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, &fakeCampaignRepo{})

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:       "order-2",
		Total:         207,
		Shipping:      29,
		AffiliateCode: "X",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	// (207-29)/1.25 = 142.40
	if result.CommissionableBase != 142.40 {
		t.Errorf("base = %v, want 142.40", result.CommissionableBase)
	}
	if result.AffiliateCommission != 28.48 {
		t.Errorf("commission = %v, want 28.48", result.AffiliateCommission)
	}
}

func TestAttributeNoCodeIsNoAttribution(t *testing.T) {
	svc := newAttributionService(&fakeAffiliateRepo{}, &fakeClickRepo{}, &fakeCampaignRepo{})
	result, err := svc.Attribute(context.Background(), &AttributionOrder{OrderID: "order-3", Total: 100})
	if err != nil || result != nil {
		t.Fatalf("got (%+v, %v), want (nil, nil)", result, err)
	}
}

func TestAttributeUnknownCodeSoftSkips(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{}}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, &fakeCampaignRepo{})

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:       "order-4",
		Total:         100,
		AffiliateCode: "GONE",
	})
	if err != nil {
		t.Fatalf("expired code must not be an error: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if len(affiliates.increments) != 0 {
		t.Error("no stats may be written for an unknown code")
	}
}

func TestAttributeCreditFailureIsHard(t *testing.T) {
	affiliates := &fakeAffiliateRepo{
		accounts: map[string]*domain.AffiliateAccount{"X": activeAccount("a", "X", 20)},
		incErr:   domain.ErrStoreUnavailable,
	}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, &fakeCampaignRepo{})

	_, err := svc.Attribute(context.Background(), &AttributionOrder{OrderID: "o", Total: 100, AffiliateCode: "X"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestAttributeMarksClickConverted(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"X": activeAccount("a", "X", 20),
	}}
	clicks := &fakeClickRepo{}
	svc := newAttributionService(affiliates, clicks, &fakeCampaignRepo{})

	_, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:          "order-5",
		Total:            89,
		AffiliateCode:    "X",
		AffiliateClickID: "click-9",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if clicks.converted["click-9"] != 14.24 {
		t.Errorf("converted = %v, want click-9 -> 14.24", clicks.converted)
	}
}

func TestAttributeClickAuditFailureOnlyDegrades(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"X": activeAccount("a", "X", 20),
	}}
	clicks := &fakeClickRepo{markErr: domain.ErrStoreUnavailable}
	svc := newAttributionService(affiliates, clicks, &fakeCampaignRepo{})

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:          "order-6",
		Total:            89,
		AffiliateCode:    "X",
		AffiliateClickID: "click-1",
	})
	if err != nil || result == nil {
		t.Fatalf("audit trail failure must not fail attribution: (%+v, %v)", result, err)
	}
}

func revenueShareCampaign(rate float64, beneficiary string) *domain.Campaign {
	return &domain.Campaign{
		ID:               "camp-1",
		Code:             "SUMMER",
		Status:           domain.CampaignActive,
		Target:           domain.CampaignTarget{Kind: domain.TargetAnyAffiliate},
		Products:         domain.ProductScope{Kind: domain.AllProducts},
		IsRevenueShare:   true,
		RevenueShareRate: rate,
		BeneficiaryCode:  beneficiary,
		StartsAt:         time.Now().Add(-time.Hour),
		EndsAt:           time.Now().Add(time.Hour),
	}
}

func TestAttributeRevenueShareOverlay(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"FISKE20": activeAccount("aff-1", "FISKE20", 20),
	}}
	campaigns := &fakeCampaignRepo{campaigns: []*domain.Campaign{revenueShareCampaign(50, "PARTNER")}}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, campaigns)

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:       "order-7",
		Total:         89,
		AffiliateCode: "FISKE20",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	// base 71.20, 引流佣金 14.24, 剩余 56.96, 50% 分成 = 28.48
	if result.AffiliateCommission != 14.24 {
		t.Errorf("commission = %v, want 14.24 (campaign must not reduce it)", result.AffiliateCommission)
	}
	if result.CampaignCode != "SUMMER" || result.CampaignShare != 28.48 {
		t.Errorf("campaign = %s share = %v, want SUMMER 28.48", result.CampaignCode, result.CampaignShare)
	}

	if len(affiliates.increments) != 2 {
		t.Fatalf("increments = %d, want referrer + beneficiary", len(affiliates.increments))
	}
	if affiliates.increments[0].code != "FISKE20" || affiliates.increments[0].earnings != 14.24 {
		t.Errorf("referrer credit = %+v", affiliates.increments[0])
	}
	if affiliates.increments[1].code != "PARTNER" || affiliates.increments[1].earnings != 28.48 {
		t.Errorf("beneficiary credit = %+v", affiliates.increments[1])
	}

	// 舍入稳定性：各部分之和与基数对账误差 ≤ 0.01
	companyShare := result.CommissionableBase - result.AffiliateCommission - result.CampaignShare
	total := result.AffiliateCommission + result.CampaignShare + companyShare
	if math.Abs(total-result.CommissionableBase) > 0.01 {
		t.Errorf("split does not reconcile: %v vs base %v", total, result.CommissionableBase)
	}
}

func TestAttributeCampaignTargetingMiss(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"X": activeAccount("aff-1", "X", 20),
	}}
	campaign := revenueShareCampaign(50, "PARTNER")
	campaign.Target = domain.CampaignTarget{
		Kind:         domain.TargetSpecificAffiliates,
		AffiliateIDs: []string{"someone-else"},
	}
	campaigns := &fakeCampaignRepo{campaigns: []*domain.Campaign{campaign}}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, campaigns)

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:       "order-8",
		Total:         89,
		AffiliateCode: "X",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if result.CampaignCode != "" || result.CampaignShare != 0 {
		t.Errorf("untargeted campaign applied: %+v", result)
	}
}

func TestAttributeExpiredCampaignSkipped(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"X": activeAccount("aff-1", "X", 20),
	}}
	campaign := revenueShareCampaign(50, "PARTNER")
	campaign.EndsAt = time.Now().Add(-time.Minute)
	campaigns := &fakeCampaignRepo{campaigns: []*domain.Campaign{campaign}}
	svc := newAttributionService(affiliates, &fakeClickRepo{}, campaigns)

	result, err := svc.Attribute(context.Background(), &AttributionOrder{
		OrderID:       "order-9",
		Total:         89,
		AffiliateCode: "X",
	})
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if result.CampaignShare != 0 {
		t.Errorf("expired campaign applied: %+v", result)
	}
}

func TestLogClick(t *testing.T) {
	affiliates := &fakeAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
		"FISKE20": activeAccount("aff-1", "FISKE20", 20),
	}}
	clicks := &fakeClickRepo{}
	campaigns := &fakeCampaignRepo{}
	svc := newAttributionService(affiliates, clicks, campaigns)

	clickID, err := svc.LogClick(context.Background(), &LogClickInput{
		AffiliateCode: "FISKE20",
		CampaignCode:  "SUMMER",
		IPAddress:     "203.0.113.9",
		UserAgent:     "Mozilla/5.0",
		LandingPage:   "/produkter/3-pack",
	})
	if err != nil {
		t.Fatalf("LogClick: %v", err)
	}
	if clickID == "" || len(clicks.created) != 1 {
		t.Fatalf("clickID = %q, created = %d", clickID, len(clicks.created))
	}
	if clicks.created[0].Converted {
		t.Error("fresh click must not be converted")
	}
	if campaigns.clickCounts["SUMMER"] != 1 {
		t.Errorf("campaign clicks = %v", campaigns.clickCounts)
	}
	if len(affiliates.increments) != 1 || affiliates.increments[0].clicks != 1 {
		t.Errorf("click stat increment = %+v", affiliates.increments)
	}
}

func TestLogClickUnknownCode(t *testing.T) {
	svc := newAttributionService(&fakeAffiliateRepo{}, &fakeClickRepo{}, &fakeCampaignRepo{})
	if _, err := svc.LogClick(context.Background(), &LogClickInput{AffiliateCode: "NOPE"}); !errors.Is(err, domain.ErrAffiliateNotFound) {
		t.Fatalf("err = %v, want ErrAffiliateNotFound", err)
	}
}

func TestRoundingStability(t *testing.T) {
	// 任意金额下各舍入量独立，求和对账误差不超过一分钱
	for _, total := range []float64{89, 207, 123.45, 999.99, 0.03, 1057.50} {
		breakdown := computeCommission(total, 0, 25, 20)
		share := computeCampaignShare(breakdown.Remaining, 50)
		company := domain.Round2(breakdown.Remaining - share)
		sum := breakdown.AffiliateCommission + share + company
		if math.Abs(sum-breakdown.Base) > 0.01 {
			t.Errorf("total %v: %v + %v + %v = %v, base %v",
				total, breakdown.AffiliateCommission, share, company, sum, breakdown.Base)
		}
	}
}

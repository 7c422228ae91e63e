// internal/service/affiliate/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"b8shield/internal/service/affiliate/domain"
)

// ToDomainAffiliate 将数据库模型还原为领域模型。
func ToDomainAffiliate(m *AffiliateAccountModel) *domain.AffiliateAccount {
	return &domain.AffiliateAccount{
		ID:             m.ID,
		AffiliateCode:  m.AffiliateCode,
		Status:         domain.AccountStatus(m.Status),
		CommissionRate: m.CommissionRate,
		Stats: domain.Stats{
			Clicks:        m.Clicks,
			Conversions:   m.Conversions,
			TotalEarnings: m.TotalEarnings,
			Balance:       m.Balance,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToClickModel 将点击领域模型转换为数据库模型。
func ToClickModel(c *domain.AffiliateClick) *AffiliateClickModel {
	return &AffiliateClickModel{
		ID:               c.ID,
		AffiliateCode:    c.AffiliateCode,
		CampaignCode:     c.CampaignCode,
		Timestamp:        c.Timestamp,
		IPAddress:        c.IPAddress,
		UserAgent:        c.UserAgent,
		LandingPage:      c.LandingPage,
		Converted:        c.Converted,
		OrderID:          c.OrderID,
		CommissionAmount: c.CommissionAmount,
	}
}

// ToDomainClick 将数据库模型还原为领域模型。
func ToDomainClick(m *AffiliateClickModel) *domain.AffiliateClick {
	return &domain.AffiliateClick{
		ID:               m.ID,
		AffiliateCode:    m.AffiliateCode,
		CampaignCode:     m.CampaignCode,
		Timestamp:        m.Timestamp,
		IPAddress:        m.IPAddress,
		UserAgent:        m.UserAgent,
		LandingPage:      m.LandingPage,
		Converted:        m.Converted,
		OrderID:          m.OrderID,
		CommissionAmount: m.CommissionAmount,
	}
}

// ToDomainCampaign 将数据库模型还原为领域模型。
func ToDomainCampaign(m *CampaignModel) (*domain.Campaign, error) {
	var affiliateIDs, productIDs []string
	if m.AffiliateIDs != "" {
		if err := json.Unmarshal([]byte(m.AffiliateIDs), &affiliateIDs); err != nil {
			return nil, err
		}
	}
	if m.ProductIDs != "" {
		if err := json.Unmarshal([]byte(m.ProductIDs), &productIDs); err != nil {
			return nil, err
		}
	}
	return &domain.Campaign{
		ID:     m.ID,
		Code:   m.Code,
		Name:   m.Name,
		Status: domain.CampaignStatus(m.Status),
		Target: domain.CampaignTarget{
			Kind:         domain.TargetKind(m.TargetKind),
			AffiliateIDs: affiliateIDs,
		},
		Products: domain.ProductScope{
			Kind:       domain.ProductScopeKind(m.ProductScopeKind),
			ProductIDs: productIDs,
			Rule:       m.ProductRule,
		},
		IsRevenueShare:   m.IsRevenueShare,
		RevenueShareRate: m.RevenueShareRate,
		BeneficiaryCode:  m.BeneficiaryCode,
		StartsAt:         m.StartsAt,
		EndsAt:           m.EndsAt,
		TotalClicks:      m.TotalClicks,
	}, nil
}

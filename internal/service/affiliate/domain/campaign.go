// internal/service/affiliate/domain/campaign.go
package domain

import "time"

// CampaignStatus 活动状态。
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "active"
	CampaignPaused   CampaignStatus = "paused"
	CampaignArchived CampaignStatus = "archived"
)

// TargetKind 标记活动面向哪些推广人。
// 显式的带标签变体，避免用一个可空的 code 字段同时表达两种语义。
type TargetKind string

const (
	TargetAnyAffiliate       TargetKind = "all"
	TargetSpecificAffiliates TargetKind = "selected"
)

// CampaignTarget 是活动的推广人定向规则。
type CampaignTarget struct {
	Kind         TargetKind
	AffiliateIDs []string // Kind == selected 时生效
}

// Matches 判断活动是否面向指定推广账号。
func (t CampaignTarget) Matches(affiliateID string) bool {
	if t.Kind == TargetAnyAffiliate {
		return true
	}
	for _, id := range t.AffiliateIDs {
		if id == affiliateID {
			return true
		}
	}
	return false
}

// ProductScopeKind 标记活动适用的商品范围。
type ProductScopeKind string

const (
	AllProducts      ProductScopeKind = "all"
	SelectedProducts ProductScopeKind = "selected"
)

// ProductScope 是活动的商品定向规则。
// Rule 是可选的 CEL 表达式，由 RuleEngine 在 selected 模式下评估，
// 用于表达比静态ID列表更复杂的圈品逻辑。
type ProductScope struct {
	Kind       ProductScopeKind
	ProductIDs []string
	Rule       string
}

// matchesIDs 静态ID列表匹配：订单中任一商品命中即可。
func (p ProductScope) matchesIDs(productIDs []string) bool {
	for _, pid := range productIDs {
		for _, id := range p.ProductIDs {
			if pid == id {
				return true
			}
		}
	}
	return false
}

// Campaign 是一个推广活动。
// 不变式：isRevenueShare 的活动永远不会压低引流推广人自己的佣金，
// 它分走的是扣除该佣金之后的剩余部分。
type Campaign struct {
	ID   string
	Code string // 可为空：活动可以面向“任意推广人”而非特定码
	Name string

	Status   CampaignStatus
	Target   CampaignTarget
	Products ProductScope

	IsRevenueShare bool
	// RevenueShareRate 是剩余金额（佣金基数 − 引流佣金）的百分比
	RevenueShareRate float64
	// BeneficiaryCode 是分成入账的推广账号
	BeneficiaryCode string

	StartsAt time.Time
	EndsAt   time.Time

	TotalClicks int64
}

// IsActiveAt 判断活动在指定时间是否生效。
func (c *Campaign) IsActiveAt(t time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if !c.StartsAt.IsZero() && t.Before(c.StartsAt) {
		return false
	}
	if !c.EndsAt.IsZero() && t.After(c.EndsAt) {
		return false
	}
	return true
}

// AppliesTo 判断活动是否命中指定推广账号与订单商品组合。
// CEL 规则评估由调用方通过 RuleEngine 完成（领域层不依赖具体引擎）。
func (c *Campaign) AppliesTo(affiliateID string, productIDs []string, rules RuleEngine) (bool, error) {
	if !c.Target.Matches(affiliateID) {
		return false, nil
	}
	switch c.Products.Kind {
	case AllProducts:
		return true, nil
	case SelectedProducts:
		if c.Products.matchesIDs(productIDs) {
			return true, nil
		}
		if c.Products.Rule != "" && rules != nil {
			return rules.Evaluate(c.Products.Rule, Fact{ProductIDs: productIDs})
		}
		return false, nil
	default:
		return false, nil
	}
}

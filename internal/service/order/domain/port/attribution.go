// internal/service/order/domain/port/attribution.go
package port

import (
	"context"

	"b8shield/internal/service/order/domain"
)

// CommissionResult 是一次成功归因的结果摘要。
type CommissionResult struct {
	AffiliateCode       string
	AffiliateCommission float64
	CampaignCode        string
	CampaignShare       float64
}

// AttributionEngine 是佣金归因的出站端口，由 affiliate 服务的适配器实现。
// 返回 (nil, nil) 表示该订单没有可归因的推广来源（不是错误）。
type AttributionEngine interface {
	Attribute(ctx context.Context, order *domain.Order) (*CommissionResult, error)
}

// internal/service/order/infrastructure/adapter/attribution_adapter.go
package adapter

import (
	"context"

	"b8shield/internal/service/affiliate/application"
	"b8shield/internal/service/order/domain"
	"b8shield/internal/service/order/domain/port"
)

// AttributionAdapter 把 affiliate 服务接到订单管道的 AttributionEngine 端口上。
// 订单聚合在这里降维成归因需要的扁平视图，两个服务的领域模型互不感知。
type AttributionAdapter struct {
	affiliate *application.AffiliateService
}

func NewAttributionAdapter(affiliate *application.AffiliateService) *AttributionAdapter {
	return &AttributionAdapter{affiliate: affiliate}
}

func (a *AttributionAdapter) Attribute(ctx context.Context, order *domain.Order) (*port.CommissionResult, error) {
	view := &application.AttributionOrder{
		OrderID:  order.ID,
		Total:    order.Financials.Total,
		Shipping: order.Financials.Shipping,
	}
	if order.Affiliate != nil {
		view.AffiliateCode = order.Affiliate.Code
		view.AffiliateClickID = order.Affiliate.ClickID
	}
	for _, item := range order.Items {
		if item.ProductID != "" {
			view.ProductIDs = append(view.ProductIDs, item.ProductID)
		}
	}

	result, err := a.affiliate.Attribute(ctx, view)
	if err != nil || result == nil {
		return nil, err
	}
	return &port.CommissionResult{
		AffiliateCode:       result.AffiliateCode,
		AffiliateCommission: result.AffiliateCommission,
		CampaignCode:        result.CampaignCode,
		CampaignShare:       result.CampaignShare,
	}, nil
}

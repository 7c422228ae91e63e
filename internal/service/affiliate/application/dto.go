// internal/service/affiliate/application/dto.go
package application

// AttributionOrder 是归因引擎需要的订单视图。
// 由 order 服务的适配器从订单聚合映射而来，避免两个服务的领域模型互相依赖。
type AttributionOrder struct {
	OrderID          string
	Total            float64
	Shipping         float64
	AffiliateCode    string
	AffiliateClickID string
	ProductIDs       []string
}

// CommissionResult 是一次成功归因的结果。
type CommissionResult struct {
	AffiliateCode       string
	AffiliateCommission float64
	CommissionableBase  float64
	CampaignCode        string
	CampaignShare       float64
}

// LogClickInput 是点击上报的输入。
type LogClickInput struct {
	AffiliateCode string
	CampaignCode  string
	IPAddress     string
	UserAgent     string
	LandingPage   string
}

// internal/service/affiliate/domain/click.go
package domain

import "time"

// AffiliateClick 是一次推广点击记录。
// 创建后只会被修改一次：匹配的订单完成时标记为已转化。
// 它是把一笔转化追溯回原始引流事件的审计凭据。
type AffiliateClick struct {
	ID            string
	AffiliateCode string
	CampaignCode  string
	Timestamp     time.Time
	IPAddress     string
	UserAgent     string
	LandingPage   string

	Converted        bool
	OrderID          string
	CommissionAmount float64
}

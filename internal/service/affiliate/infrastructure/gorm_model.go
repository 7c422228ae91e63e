// internal/service/affiliate/infrastructure/gorm_model.go
package infrastructure

import "time"

// AffiliateAccountModel 推广账号表。
// stats 拆成独立列，入账走 UPDATE ... SET x = x + ? 的原子路径。
type AffiliateAccountModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	AffiliateCode  string  `gorm:"size:64;not null;uniqueIndex"`
	Status         string  `gorm:"size:16;not null;index"`
	CommissionRate float64 `gorm:"type:decimal(5,2);not null;default:0"`

	Clicks        int64   `gorm:"not null;default:0"`
	Conversions   int64   `gorm:"not null;default:0"`
	TotalEarnings float64 `gorm:"type:decimal(12,2);not null;default:0"`
	Balance       float64 `gorm:"type:decimal(12,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (AffiliateAccountModel) TableName() string {
	return "affiliate_accounts"
}

// AffiliateClickModel 推广点击记录表。
type AffiliateClickModel struct {
	ID            string    `gorm:"primaryKey;size:36"`
	AffiliateCode string    `gorm:"size:64;not null;index"`
	CampaignCode  string    `gorm:"size:64;index"`
	Timestamp     time.Time `gorm:"index;not null"`
	IPAddress     string    `gorm:"size:64"`
	UserAgent     string    `gorm:"size:1024"`
	LandingPage   string    `gorm:"size:512"`

	Converted        bool    `gorm:"not null;default:false;index"`
	OrderID          string  `gorm:"size:36;index"`
	CommissionAmount float64 `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName 指定表名
func (AffiliateClickModel) TableName() string {
	return "affiliate_clicks"
}

// CampaignModel 推广活动表。
// 定向列表以 JSON 文档列存储。
type CampaignModel struct {
	ID     string `gorm:"primaryKey;size:36"`
	Code   string `gorm:"size:64;index"`
	Name   string `gorm:"size:255"`
	Status string `gorm:"size:16;not null;index"`

	TargetKind   string `gorm:"size:16;not null;default:'all'"`
	AffiliateIDs string `gorm:"type:text"` // JSON 数组

	ProductScopeKind string `gorm:"size:16;not null;default:'all'"`
	ProductIDs       string `gorm:"type:text"` // JSON 数组
	ProductRule      string `gorm:"type:text"` // 可选 CEL 表达式

	IsRevenueShare   bool    `gorm:"not null;default:false;index"`
	RevenueShareRate float64 `gorm:"type:decimal(5,2);not null;default:0"`
	BeneficiaryCode  string  `gorm:"size:64"`

	StartsAt time.Time
	EndsAt   time.Time

	TotalClicks int64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (CampaignModel) TableName() string {
	return "campaigns"
}

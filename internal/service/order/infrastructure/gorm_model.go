// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import "time"

// OrderModel 是订单聚合的数据库模型。
// 行信息、客户信息等嵌套结构以 JSON 文档列存储，
// provider_ref 上的唯一索引承载整条管道的幂等契约。
type OrderModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	OrderNumber string `gorm:"size:20;uniqueIndex"`
	Source      string `gorm:"size:20;not null"`
	Status      string `gorm:"size:16;not null;index"`

	CustomerEmail      string `gorm:"size:255;not null;index"`
	CustomerName       string `gorm:"size:255"`
	CustomerAccountID  string `gorm:"size:64;index"`
	CustomerCustomerID string `gorm:"size:64;index"`

	ShippingAddress    string `gorm:"size:512"`
	ShippingCity       string `gorm:"size:128"`
	ShippingPostalCode string `gorm:"size:32"`
	ShippingCountry    string `gorm:"size:64"`

	// Items 是 LineItem 数组的 JSON 文档
	Items string `gorm:"type:text;not null"`

	Subtotal       float64 `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingCost   float64 `gorm:"type:decimal(12,2);not null;default:0"`
	VAT            float64 `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);not null;default:0"`
	Total          float64 `gorm:"type:decimal(12,2);not null;default:0"`

	PaymentMethod   string  `gorm:"size:32"`
	ProviderRef     string  `gorm:"column:provider_ref;size:128;not null;uniqueIndex"`
	PaymentAmount   float64 `gorm:"type:decimal(12,2);not null;default:0"`
	PaymentCurrency string  `gorm:"size:8"`
	PaymentStatus   string  `gorm:"size:32"`

	AffiliateCode     string  `gorm:"size:64;index"`
	AffiliateClickID  string  `gorm:"size:64"`
	AffiliateDiscount float64 `gorm:"type:decimal(5,2);not null;default:0"`

	RequiresFollowup bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

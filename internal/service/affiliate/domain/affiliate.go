// internal/service/affiliate/domain/affiliate.go
package domain

import "time"

// AccountStatus 定义了推广账号的状态。
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusPending   AccountStatus = "pending"
	StatusSuspended AccountStatus = "suspended"
)

// Stats 是推广账号的累计统计。
// 永远通过存储层的原子自增修改，绝不整体覆盖写回，
// 否则同一推广人的并发转化会互相丢失更新。
type Stats struct {
	Clicks        int64
	Conversions   int64
	TotalEarnings float64
	Balance       float64
}

// AffiliateAccount 是推广账号聚合。
type AffiliateAccount struct {
	ID             string
	AffiliateCode  string
	Status         AccountStatus
	CommissionRate float64 // 百分比，如 20 表示 20%
	Stats          Stats
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive 只有 active 状态的账号参与归因和点击记录。
func (a *AffiliateAccount) IsActive() bool {
	return a.Status == StatusActive
}

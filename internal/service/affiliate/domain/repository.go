// internal/service/affiliate/domain/repository.go
package domain

import "context"

// AffiliateRepository 是推广账号的出站端口。
type AffiliateRepository interface {
	// FindActiveByCode 按推广码查找 active 账号，
	// 不存在或非 active 返回 ErrAffiliateNotFound。
	FindActiveByCode(ctx context.Context, code string) (*AffiliateAccount, error)

	// IncrementStats 对 stats 执行存储级原子自增。
	// 实现必须是单文档原子操作（UPDATE ... SET x = x + ?），
	// 绝不允许读出-修改-写回整个 stats。
	IncrementStats(ctx context.Context, code string, earningsDelta float64, conversionsDelta, clicksDelta int64) error
}

// ClickRepository 是点击记录的出站端口。
type ClickRepository interface {
	Create(ctx context.Context, click *AffiliateClick) error
	FindByID(ctx context.Context, id string) (*AffiliateClick, error)

	// MarkConverted 把点击记录标记为已转化（点击 → 转化只发生一次）。
	MarkConverted(ctx context.Context, id, orderID string, commissionAmount float64) error
}

// CampaignRepository 是活动的出站端口。
type CampaignRepository interface {
	FindByCode(ctx context.Context, code string) (*Campaign, error)

	// ListActiveRevenueShare 列出当前生效的分成类活动。
	ListActiveRevenueShare(ctx context.Context) ([]*Campaign, error)

	// IncrementClicks 点击侧的轻量计数路径，与转化无关。
	IncrementClicks(ctx context.Context, code string) error
}

// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 是订单聚合的出站端口。
type OrderRepository interface {
	// Save 持久化一个新订单。provider_ref 上的唯一约束是幂等性的最后防线。
	Save(ctx context.Context, order *Order) error

	// FindByProviderRef 按支付方引用精确查找，未命中返回 ErrOrderNotFound。
	// 存储不可用时必须返回 ErrStoreUnavailable，绝不能伪装成未命中。
	FindByProviderRef(ctx context.Context, providerRef string) (*Order, error)

	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 持久化一次状态迁移。
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"b8shield/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 持久化新订单。
// provider_ref 唯一约束冲突映射为 ErrOrderAlreadyExists，
// 其余数据库错误一律映射为可重试的 ErrStoreUnavailable。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model, err := ToOrderModel(order)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrOrderAlreadyExists
		}
		return errors.Wrapf(domain.ErrStoreUnavailable, "save order: %v", err)
	}
	return nil
}

// FindByProviderRef 按支付方引用精确查找。
func (r *GormOrderRepository) FindByProviderRef(ctx context.Context, providerRef string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("provider_ref = ?", providerRef).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		// 存储不可用绝不能伪装成“未命中”，否则会产生重复订单
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "find by provider ref: %v", err)
	}
	return ToDomainOrder(&model)
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "find by id: %v", err)
	}
	return ToDomainOrder(&model)
}

// UpdateStatus 只更新状态列，避免整行覆盖。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status)})
	if result.Error != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "update status: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

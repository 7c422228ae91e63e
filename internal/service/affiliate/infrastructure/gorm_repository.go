// internal/service/affiliate/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"b8shield/internal/service/affiliate/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormAffiliateRepository 基于 GORM 的推广账号仓储实现。
type GormAffiliateRepository struct {
	db *gorm.DB
}

func NewGormAffiliateRepository(db *gorm.DB) *GormAffiliateRepository {
	return &GormAffiliateRepository{db: db}
}

// FindActiveByCode 按推广码查找 active 状态的账号。
// 账号存在但非 active 同样返回 ErrAffiliateNotFound，调用方无需区分。
func (r *GormAffiliateRepository) FindActiveByCode(ctx context.Context, code string) (*domain.AffiliateAccount, error) {
	var model AffiliateAccountModel
	err := r.db.WithContext(ctx).
		Where("affiliate_code = ? AND status = ?", code, string(domain.StatusActive)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAffiliateNotFound
		}
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "query affiliate %s: %v", code, err)
	}
	return ToDomainAffiliate(&model), nil
}

// IncrementStats 原子累加账号统计。
// 走数据库级 x = x + ? 路径，并发转化下不丢增量。
func (r *GormAffiliateRepository) IncrementStats(ctx context.Context, code string, earningsDelta float64, conversionsDelta, clicksDelta int64) error {
	updates := map[string]interface{}{}
	if earningsDelta != 0 {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", earningsDelta)
		updates["balance"] = gorm.Expr("balance + ?", earningsDelta)
	}
	if conversionsDelta != 0 {
		updates["conversions"] = gorm.Expr("conversions + ?", conversionsDelta)
	}
	if clicksDelta != 0 {
		updates["clicks"] = gorm.Expr("clicks + ?", clicksDelta)
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&AffiliateAccountModel{}).
		Where("affiliate_code = ?", code).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "increment stats for %s: %v", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAffiliateNotFound
	}
	return nil
}

// GormClickRepository 基于 GORM 的点击记录仓储实现。
type GormClickRepository struct {
	db *gorm.DB
}

func NewGormClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

func (r *GormClickRepository) Create(ctx context.Context, click *domain.AffiliateClick) error {
	if err := r.db.WithContext(ctx).Create(ToClickModel(click)).Error; err != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "create click %s: %v", click.ID, err)
	}
	return nil
}

func (r *GormClickRepository) FindByID(ctx context.Context, id string) (*domain.AffiliateClick, error) {
	var model AffiliateClickModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClickNotFound
		}
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "query click %s: %v", id, err)
	}
	return ToDomainClick(&model), nil
}

// MarkConverted 把点击标记为已转化并记录归因订单与佣金金额。
func (r *GormClickRepository) MarkConverted(ctx context.Context, id, orderID string, commissionAmount float64) error {
	result := r.db.WithContext(ctx).
		Model(&AffiliateClickModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"converted":         true,
			"order_id":          orderID,
			"commission_amount": commissionAmount,
		})
	if result.Error != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "mark click %s converted: %v", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrClickNotFound
	}
	return nil
}

// GormCampaignRepository 基于 GORM 的活动仓储实现。
type GormCampaignRepository struct {
	db *gorm.DB
}

func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

func (r *GormCampaignRepository) FindByCode(ctx context.Context, code string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "query campaign %s: %v", code, err)
	}
	return ToDomainCampaign(&model)
}

// ListActiveRevenueShare 列出所有启用分成的 active 活动。
// 时间窗口在领域层判断，这里只做状态过滤。
func (r *GormCampaignRepository) ListActiveRevenueShare(ctx context.Context) ([]*domain.Campaign, error) {
	var models []CampaignModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_revenue_share = ?", string(domain.CampaignActive), true).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(domain.ErrStoreUnavailable, "list revenue share campaigns: %v", err)
	}

	campaigns := make([]*domain.Campaign, 0, len(models))
	for i := range models {
		campaign, err := ToDomainCampaign(&models[i])
		if err != nil {
			return nil, errors.Wrapf(domain.ErrStoreUnavailable, "decode campaign %s: %v", models[i].Code, err)
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (r *GormCampaignRepository) IncrementClicks(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("code = ?", code).
		Update("total_clicks", gorm.Expr("total_clicks + ?", 1))
	if result.Error != nil {
		return errors.Wrapf(domain.ErrStoreUnavailable, "increment campaign clicks %s: %v", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

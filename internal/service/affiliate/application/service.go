// internal/service/affiliate/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/affiliate/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AffiliateService 负责点击记录、佣金归因和活动分成。
type AffiliateService struct {
	affiliates domain.AffiliateRepository
	clicks     domain.ClickRepository
	campaigns  domain.CampaignRepository
	rules      domain.RuleEngine
	tracer     trace.Tracer

	vatRatePercent float64
}

func NewAffiliateService(
	affiliates domain.AffiliateRepository,
	clicks domain.ClickRepository,
	campaigns domain.CampaignRepository,
	rules domain.RuleEngine,
	tracer trace.Tracer,
	vatRatePercent float64,
) *AffiliateService {
	return &AffiliateService{
		affiliates:     affiliates,
		clicks:         clicks,
		campaigns:      campaigns,
		rules:          rules,
		tracer:         tracer,
		vatRatePercent: vatRatePercent,
	}
}

// Attribute 对一笔已物化的订单执行归因与佣金计算。
// 返回 (nil, nil) 表示无可归因来源——这不是错误，订单完成不依赖归因。
func (s *AffiliateService) Attribute(ctx context.Context, order *AttributionOrder) (*CommissionResult, error) {
	ctx, span := s.tracer.Start(ctx, "affiliate.Attribute")
	defer span.End()

	// 1. 没有推广码：正常的无归因分支
	if order.AffiliateCode == "" {
		return nil, nil
	}
	span.SetAttributes(
		attribute.String("affiliate.code", order.AffiliateCode),
		attribute.String("order.id", order.OrderID),
	)

	// 2. 推广码失效或账号不是 active：软失败，绝不阻塞订单完成
	account, err := s.affiliates.FindActiveByCode(ctx, order.AffiliateCode)
	if err != nil {
		if errors.Is(err, domain.ErrAffiliateNotFound) {
			logger.Ctx(ctx).Warn().
				Str("affiliate_code", order.AffiliateCode).
				Str("order_id", order.OrderID).
				Msg("order references unknown or inactive affiliate, skipping attribution")
			return nil, nil
		}
		return nil, err
	}

	// 3-4. 佣金基数与引流佣金
	breakdown := computeCommission(order.Total, order.Shipping, s.vatRatePercent, account.CommissionRate)
	span.SetAttributes(
		attribute.Float64("commission.base", breakdown.Base),
		attribute.Float64("commission.amount", breakdown.AffiliateCommission),
	)

	// 5. 原子入账：存储级自增，支撑同一推广人的并发转化
	if err := s.affiliates.IncrementStats(ctx, account.AffiliateCode, breakdown.AffiliateCommission, 1, 0); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to credit affiliate")
		return nil, err
	}

	// 6. 把点击标记为已转化——这是转化回溯到引流事件的审计线索。
	//    点击记录缺失只降级：佣金已入账，审计线索缺失记日志排查。
	if order.AffiliateClickID != "" {
		if err := s.clicks.MarkConverted(ctx, order.AffiliateClickID, order.OrderID, breakdown.AffiliateCommission); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("click_id", order.AffiliateClickID).
				Str("order_id", order.OrderID).
				Msg("failed to mark click as converted")
		}
	}

	result := &CommissionResult{
		AffiliateCode:       account.AffiliateCode,
		AffiliateCommission: breakdown.AffiliateCommission,
		CommissionableBase:  breakdown.Base,
	}

	// 7. 分成活动只从剩余部分取成，永远在引流佣金之后计算
	if err := s.applyRevenueShare(ctx, account, order, breakdown, result); err != nil {
		// 分成是旁路：失败记日志，不影响已入账的引流佣金
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", order.OrderID).
			Msg("revenue share overlay failed")
	}

	return result, nil
}

// applyRevenueShare 执行分成活动叠加。
// remaining = 佣金基数 − 引流佣金；分成 = remaining × 活动比例。
func (s *AffiliateService) applyRevenueShare(
	ctx context.Context,
	account *domain.AffiliateAccount,
	order *AttributionOrder,
	breakdown commissionBreakdown,
	result *CommissionResult,
) error {
	ctx, span := s.tracer.Start(ctx, "affiliate.applyRevenueShare")
	defer span.End()

	campaigns, err := s.campaigns.ListActiveRevenueShare(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, campaign := range campaigns {
		if !campaign.IsActiveAt(now) {
			continue
		}
		applies, err := campaign.AppliesTo(account.ID, order.ProductIDs, s.rules)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("campaign", campaign.Code).
				Msg("campaign rule evaluation failed, skipping campaign")
			continue
		}
		if !applies || campaign.BeneficiaryCode == "" {
			continue
		}

		share := computeCampaignShare(breakdown.Remaining, campaign.RevenueShareRate)
		if share <= 0 {
			continue
		}
		// 与第 5 步相同的原子入账路径
		if err := s.affiliates.IncrementStats(ctx, campaign.BeneficiaryCode, share, 0, 0); err != nil {
			return err
		}

		span.SetAttributes(
			attribute.String("campaign.code", campaign.Code),
			attribute.Float64("campaign.share", share),
		)
		result.CampaignCode = campaign.Code
		result.CampaignShare = share

		// 一笔订单只叠加一个分成活动
		break
	}
	return nil
}

// LogClick 记录一次推广点击。
// 推广码无效或账号非 active 返回 ErrAffiliateNotFound（对外是 404）。
func (s *AffiliateService) LogClick(ctx context.Context, in *LogClickInput) (string, error) {
	ctx, span := s.tracer.Start(ctx, "affiliate.LogClick")
	defer span.End()
	span.SetAttributes(attribute.String("affiliate.code", in.AffiliateCode))

	account, err := s.affiliates.FindActiveByCode(ctx, in.AffiliateCode)
	if err != nil {
		return "", err
	}

	click := &domain.AffiliateClick{
		ID:            uuid.New().String(),
		AffiliateCode: account.AffiliateCode,
		CampaignCode:  in.CampaignCode,
		Timestamp:     time.Now(),
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
		LandingPage:   in.LandingPage,
	}
	if err := s.clicks.Create(ctx, click); err != nil {
		return "", err
	}

	// 点击数自增与活动计数都是轻量旁路，失败不影响点击记录本身
	if err := s.affiliates.IncrementStats(ctx, account.AffiliateCode, 0, 0, 1); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("affiliate_code", account.AffiliateCode).Msg("failed to increment click stats")
	}
	if in.CampaignCode != "" {
		if err := s.campaigns.IncrementClicks(ctx, in.CampaignCode); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("campaign", in.CampaignCode).Msg("failed to increment campaign clicks")
		}
	}

	return click.ID, nil
}

// internal/service/affiliate/application/commission.go
package application

import "b8shield/internal/service/affiliate/domain"

// commissionBreakdown 是一次佣金计算的完整拆分。
// 固定契约：先算引流佣金，分成活动只从剩余部分取成，
// 任何活动都不允许压低引流推广人自己的佣金。
type commissionBreakdown struct {
	Base                float64
	AffiliateCommission float64
	Remaining           float64
}

// computeCommission 计算引流佣金。
// 每个量只舍入一次，拆分后各部分之和与基数对账误差不超过 0.01。
func computeCommission(orderTotal, shipping, vatRatePercent, commissionRatePercent float64) commissionBreakdown {
	base := domain.CommissionableBase(orderTotal, shipping, vatRatePercent)
	commission := domain.Round2(base * commissionRatePercent / 100)
	return commissionBreakdown{
		Base:                base,
		AffiliateCommission: commission,
		Remaining:           domain.Round2(base - commission),
	}
}

// computeCampaignShare 从剩余部分计算活动分成。
func computeCampaignShare(remaining, revenueShareRatePercent float64) float64 {
	return domain.Round2(remaining * revenueShareRatePercent / 100)
}

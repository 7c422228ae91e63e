// internal/service/guard/application/budget.go
package application

import (
	"context"
	"time"

	"b8shield/internal/pkg/bootstrap"
	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/guard/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dailyRequestsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "b8_guard_daily_requests",
		Help: "Total ingress requests for the current calendar day.",
	})
	dailyUniqueSourcesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "b8_guard_daily_unique_sources",
		Help: "Unique source keys seen during the current calendar day.",
	})
	dailyCostGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "b8_guard_daily_cost_estimate",
		Help: "Estimated ingress cost for the current calendar day.",
	})
	monthlyCostGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "b8_guard_monthly_cost_estimate",
		Help: "Estimated ingress cost for the current calendar month.",
	})
)

// BudgetMonitor 把防护层的日聚合折算成成本估算，
// 超过日/月阈值时触发紧急熔断。由 cron 周期驱动。
type BudgetMonitor struct {
	store domain.RateStore
	guard *GuardService

	costPerThousand  float64
	dailyThreshold   float64
	monthlyThreshold float64

	nowFunc func() time.Time // 测试钩子
}

func NewBudgetMonitor(store domain.RateStore, guard *GuardService, cfg *bootstrap.Config) *BudgetMonitor {
	return &BudgetMonitor{
		store:            store,
		guard:            guard,
		costPerThousand:  cfg.Budget.CostPerThousandRequests,
		dailyThreshold:   cfg.Budget.DailyCostThreshold,
		monthlyThreshold: cfg.Budget.MonthlyCostThreshold,
		nowFunc:          time.Now,
	}
}

// Run 执行一轮成本聚合。供 cron 回调和手动触发共用。
func (m *BudgetMonitor) Run(ctx context.Context) {
	now := m.nowFunc().UTC()

	today, err := m.store.GetDailyStats(ctx, domain.DayKey(now))
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("budget aggregation failed to read daily stats")
		return
	}

	dailyCost := float64(today.TotalRequests) / 1000 * m.costPerThousand
	monthlyCost := dailyCost
	// 月成本 = 本月已过日子的日成本之和
	for d := 1; d < now.Day(); d++ {
		day := time.Date(now.Year(), now.Month(), d, 0, 0, 0, 0, time.UTC)
		stats, err := m.store.GetDailyStats(ctx, domain.DayKey(day))
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("day", domain.DayKey(day)).Msg("skipping day in monthly cost aggregation")
			continue
		}
		monthlyCost += float64(stats.TotalRequests) / 1000 * m.costPerThousand
	}

	dailyRequestsGauge.Set(float64(today.TotalRequests))
	dailyUniqueSourcesGauge.Set(float64(today.UniqueSourceKeys))
	dailyCostGauge.Set(dailyCost)
	monthlyCostGauge.Set(monthlyCost)

	logger.Ctx(ctx).Info().
		Int64("daily_requests", today.TotalRequests).
		Int64("daily_unique_sources", today.UniqueSourceKeys).
		Float64("daily_cost", dailyCost).
		Float64("monthly_cost", monthlyCost).
		Msg("budget aggregation complete")

	if m.guard == nil {
		return
	}
	exceeded := (m.dailyThreshold > 0 && dailyCost > m.dailyThreshold) ||
		(m.monthlyThreshold > 0 && monthlyCost > m.monthlyThreshold)
	if exceeded {
		logger.Ctx(ctx).Error().
			Float64("daily_cost", dailyCost).
			Float64("monthly_cost", monthlyCost).
			Msg("cost threshold exceeded")
		m.guard.TripEmergency()
	} else if m.guard.EmergencyTripped() {
		m.guard.ResetEmergency()
	}
}

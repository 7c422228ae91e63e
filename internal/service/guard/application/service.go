// internal/service/guard/application/service.go
package application

import (
	"context"
	"sync/atomic"
	"time"

	"b8shield/internal/pkg/bootstrap"
	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/guard/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GuardService 是入口流量的准入判定。
// 判定顺序固定：预算熔断 → 黑名单 → 日上限 → 窗口限流。
type GuardService struct {
	store  domain.RateStore
	tracer trace.Tracer

	classes             map[string]bootstrap.GuardClassConfig
	blacklistMultiplier int64
	dailyCeiling        int64

	// emergencyTripped 由预算监控置位，置位后全量拒绝
	emergencyTripped atomic.Bool

	nowFunc func() time.Time // 测试钩子
}

func NewGuardService(store domain.RateStore, tracer trace.Tracer, cfg *bootstrap.Config) *GuardService {
	return &GuardService{
		store:               store,
		tracer:              tracer,
		classes:             cfg.Guard.Classes,
		blacklistMultiplier: int64(cfg.Guard.BlacklistMultiplier),
		dailyCeiling:        cfg.Guard.DailyRequestCeiling,
		nowFunc:             time.Now,
	}
}

// Admit 判定一次请求是否放行。
// 返回 nil 放行；否则返回 ErrBlacklisted / ErrBudgetExceeded /
// RateLimitedError（errors.Is ErrRateLimited）。
// 计数存储不可达时偏向拒绝：防护层的误拦优于放过一次滥用。
func (s *GuardService) Admit(ctx context.Context, sourceKey, endpointClass string) error {
	ctx, span := s.tracer.Start(ctx, "guard.Admit")
	defer span.End()
	span.SetAttributes(
		attribute.String("guard.source", sourceKey),
		attribute.String("guard.class", endpointClass),
	)

	if s.emergencyTripped.Load() {
		return domain.ErrBudgetExceeded
	}

	key := endpointClass + ":" + sourceKey

	blacklisted, err := s.store.IsBlacklisted(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("rate store blacklist check failed, rejecting")
		return domain.ErrBudgetExceeded
	}
	if blacklisted {
		return domain.ErrBlacklisted
	}

	// 日上限在窗口限流之前：触顶后任何类别的流量都不再放行
	total, err := s.store.IncrementDaily(ctx, domain.DayKey(s.nowFunc()), sourceKey)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("rate store daily counter failed, rejecting")
		return domain.ErrBudgetExceeded
	}
	if s.dailyCeiling > 0 && total > s.dailyCeiling {
		return domain.ErrBudgetExceeded
	}

	class, ok := s.classes[endpointClass]
	if !ok {
		// 未配置的类别不限流，只参与日聚合
		return nil
	}

	count, remainingMs, err := s.store.Increment(ctx, key, class.WindowMs)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("rate store window counter failed, rejecting")
		return domain.ErrBudgetExceeded
	}

	limit := int64(class.Limit)
	if s.blacklistMultiplier > 0 && count > limit*s.blacklistMultiplier {
		if err := s.store.Blacklist(ctx, key); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to blacklist source")
		}
		logger.Ctx(ctx).Warn().
			Str("key", key).
			Int64("count", count).
			Msg("source exceeded blacklist threshold")
		return domain.ErrBlacklisted
	}
	if count > limit {
		retryAfter := (remainingMs + 999) / 1000
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &domain.RateLimitedError{RetryAfterSeconds: retryAfter}
	}
	return nil
}

// TripEmergency 置位预算熔断。幂等，由预算监控调用。
func (s *GuardService) TripEmergency() {
	if s.emergencyTripped.CompareAndSwap(false, true) {
		logger.L().Error().Msg("emergency shutdown tripped, rejecting all ingress traffic")
	}
}

// ResetEmergency 复位预算熔断（预算回落到阈值之下时）。
func (s *GuardService) ResetEmergency() {
	if s.emergencyTripped.CompareAndSwap(true, false) {
		logger.L().Info().Msg("emergency shutdown reset, resuming ingress traffic")
	}
}

// EmergencyTripped 返回熔断当前状态。
func (s *GuardService) EmergencyTripped() bool {
	return s.emergencyTripped.Load()
}

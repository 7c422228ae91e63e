// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/order/application/pipeline"
	"b8shield/internal/service/order/domain"
	"b8shield/internal/service/order/domain/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// 补单链路里运维无法提供的必填字段写入的哨兵占位符。
// 带 requiresFollowup 标记的订单由客服后续人工补全。
const (
	SentinelMissingAddress = "__MISSING_SHIPPING_ADDRESS__"
	SentinelMissingCity    = "__MISSING_CITY__"
	SentinelMissingPostal  = "__MISSING_POSTAL_CODE__"
	SentinelMissingCountry = "__MISSING_COUNTRY__"
	SentinelMissingName    = "__MISSING_NAME__"
)

// OrderApplicationService 负责订单物化、补单和状态流转的业务编排。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	tracer    trace.Tracer

	resolver    port.UserResolver
	attribution port.AttributionEngine
	notifier    port.NotificationProducer

	chain pipeline.Handler

	// 同一 providerRef 的并发物化在进程内合并成一次执行；
	// 跨进程的收敛由存储层唯一约束兜底。
	group singleflight.Group

	// 测试钩子：下游管道默认异步触发
	dispatchAsync bool
}

func NewOrderApplicationService(
	orderRepo domain.OrderRepository,
	tracer trace.Tracer,
	resolver port.UserResolver,
	attribution port.AttributionEngine,
	notifier port.NotificationProducer,
) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo:     orderRepo,
		tracer:        tracer,
		resolver:      resolver,
		attribution:   attribution,
		notifier:      notifier,
		chain:         pipeline.Build(),
		dispatchAsync: true,
	}
}

// Materialize 把一个验证过的支付事件幂等地物化为订单。
// 对同一个 providerPaymentRef 重复调用永远返回同一个订单ID。
func (s *OrderApplicationService) Materialize(ctx context.Context, event *domain.PaymentEvent) (*MaterializeResult, error) {
	return s.materialize(ctx, event, domain.SourceB2CWebhook)
}

func (s *OrderApplicationService) materialize(ctx context.Context, event *domain.PaymentEvent, source domain.Source) (*MaterializeResult, error) {
	ctx, span := s.tracer.Start(ctx, "app.Materialize")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.provider_ref", event.ProviderPaymentRef),
		attribute.String("order.source", string(source)),
	)

	v, err, _ := s.group.Do(event.ProviderPaymentRef, func() (interface{}, error) {
		return s.materializeOnce(ctx, event, source)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "materialization failed")
		return nil, err
	}
	return v.(*MaterializeResult), nil
}

func (s *OrderApplicationService) materializeOnce(ctx context.Context, event *domain.PaymentEvent, source domain.Source) (*MaterializeResult, error) {
	// 1. 幂等检查。存储不可用必须原样上抛（可重试），
	//    绝不能把“查不了”当成“不存在”。
	existing, err := s.orderRepo.FindByProviderRef(ctx, event.ProviderPaymentRef)
	if err == nil {
		logger.Ctx(ctx).Info().
			Str("provider_ref", event.ProviderPaymentRef).
			Str("order_id", existing.ID).
			Msg("duplicate payment event, returning existing order")
		return &MaterializeResult{
			OrderID:          existing.ID,
			OrderNumber:      existing.OrderNumber,
			Created:          false,
			RequiresFollowup: existing.RequiresFollowup,
		}, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}

	// 2. 元数据校验（硬性拒绝，不产生半成品订单）
	meta, err := domain.ParseCheckoutMetadata(event.Metadata)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("provider_ref", event.ProviderPaymentRef).
			Interface("metadata", event.Metadata).
			Msg("rejecting payment event with malformed metadata")
		return nil, err
	}

	// 3-5. 构造聚合并持久化
	order, err := domain.NewOrder(event, meta, source)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderAlreadyExists) {
			// 与另一条链路（回调 vs 补单）赛跑输了：收敛到已有订单
			winner, findErr := s.orderRepo.FindByProviderRef(ctx, event.ProviderPaymentRef)
			if findErr != nil {
				return nil, findErr
			}
			return &MaterializeResult{
				OrderID:          winner.ID,
				OrderNumber:      winner.OrderNumber,
				Created:          false,
				RequiresFollowup: winner.RequiresFollowup,
			}, nil
		}
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("provider_ref", event.ProviderPaymentRef).
		Msg("order materialized")

	// 6. 触发下游处理（身份解析 → 归因 → 通知）。
	//    这是尽力而为的后续动作：它的失败或耗时绝不影响物化结果。
	s.dispatchDownstream(ctx, order)

	return &MaterializeResult{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Created:          true,
		RequiresFollowup: order.RequiresFollowup,
	}, nil
}

// dispatchDownstream 在独立 goroutine 中执行下游管道。
// 使用只保留链路信息、不继承超时的后台上下文，
// 避免调用方的请求截止时间砍断旁路处理。
func (s *OrderApplicationService) dispatchDownstream(ctx context.Context, order *domain.Order) {
	spanContext := trace.SpanContextFromContext(ctx)
	detached := trace.ContextWithRemoteSpanContext(context.Background(), spanContext)

	run := func() {
		pc := &pipeline.Context{
			Ctx:         detached,
			Order:       order,
			Tracer:      s.tracer,
			Resolver:    s.resolver,
			Attribution: s.attribution,
			Notifier:    s.notifier,
		}
		if err := s.chain.Handle(pc); err != nil {
			logger.Ctx(detached).Error().Err(err).
				Str("order_id", order.ID).
				Msg("downstream pipeline aborted")
		}
	}

	if s.dispatchAsync {
		go run()
	} else {
		run()
	}
}

// Recover 是运维触发的补单入口：当回调丢失时，
// 从原始支付元数据重建订单，复用与物化完全相同的幂等检查。
func (s *OrderApplicationService) Recover(ctx context.Context, providerPaymentRef string, metadata map[string]string) (*RecoveryResult, error) {
	ctx, span := s.tracer.Start(ctx, "app.Recover")
	defer span.End()
	span.SetAttributes(attribute.String("payment.provider_ref", providerPaymentRef))

	if providerPaymentRef == "" {
		return nil, fmt.Errorf("%w: providerPaymentRef is required", domain.ErrMalformedMetadata)
	}

	existing, err := s.orderRepo.FindByProviderRef(ctx, providerPaymentRef)
	if err == nil {
		span.AddEvent("recovery hit existing order")
		return &RecoveryResult{OrderID: existing.ID, Existing: true}, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}

	event := synthesizeEvent(providerPaymentRef, metadata)
	result, err := s.materialize(ctx, event, domain.SourceB2CRecovery)
	if err != nil {
		return nil, err
	}
	return &RecoveryResult{
		OrderID:          result.OrderID,
		OrderNumber:      result.OrderNumber,
		Existing:         !result.Created,
		RequiresFollowup: result.RequiresFollowup,
	}, nil
}

// synthesizeEvent 从运维提供的元数据合成一个 PaymentEvent 形状的输入。
// 运维给不出的必填字段写入哨兵占位符并标记 requiresFollowup。
func synthesizeEvent(providerPaymentRef string, metadata map[string]string) *domain.PaymentEvent {
	synth := make(map[string]string, len(metadata)+6)
	for k, v := range metadata {
		synth[k] = v
	}

	followup := false
	fill := func(key, sentinel string) {
		if synth[key] == "" {
			synth[key] = sentinel
			followup = true
		}
	}
	fill(domain.MetaKeyShippingAddress, SentinelMissingAddress)
	fill(domain.MetaKeyShippingCity, SentinelMissingCity)
	fill(domain.MetaKeyShippingPostal, SentinelMissingPostal)
	fill(domain.MetaKeyShippingCountry, SentinelMissingCountry)
	fill(domain.MetaKeyCustomerName, SentinelMissingName)
	if followup {
		synth[domain.MetaKeyRequiresFollowup] = "true"
	}

	currency := synth["currency"]
	if currency == "" {
		currency = "sek"
	}
	var amountMinor int64
	if total, err := strconv.ParseFloat(synth[domain.MetaKeyTotal], 64); err == nil {
		amountMinor = int64(total * 100)
	}

	return &domain.PaymentEvent{
		EventID:            "recovery-" + uuid.New().String(),
		ProviderPaymentRef: providerPaymentRef,
		AmountMinorUnits:   amountMinor,
		Currency:           currency,
		Status:             domain.PaymentStatusSucceeded,
		Metadata:           synth,
	}
}

// UpdateStatus 执行一次运维或下游触发的订单状态迁移。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, orderID string, next domain.Status) error {
	ctx, span := s.tracer.Start(ctx, "app.UpdateStatus")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.Transition(next); err != nil {
		span.RecordError(err)
		return err
	}
	return s.orderRepo.UpdateStatus(ctx, order.ID, order.Status)
}

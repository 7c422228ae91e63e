// internal/service/order/application/pipeline/attribute.go
package pipeline

import (
	"b8shield/internal/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
)

const StepAttribute = "attribute"

// AttributionHandler 对订单执行推广归因与佣金计算。
// 无归因来源是正常分支；归因失败降级为警告，订单完成不受影响。
type AttributionHandler struct {
	NextHandler
}

func (h *AttributionHandler) Handle(pc *Context) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "pipeline.Attribute")
	defer span.End()

	result, err := pc.Attribution.Attribute(ctx, pc.Order)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", pc.Order.ID).
			Msg("attribution failed, order completes without commission")
		pc.Record(StepResult{Step: StepAttribute, Severity: Degraded, Err: err})
		return h.executeNext(pc)
	}

	if result == nil {
		// 没有推广码或推广账号不可用，静默跳过
		span.AddEvent("no attribution for this order")
		pc.Record(StepResult{Step: StepAttribute, Severity: Ok})
		return h.executeNext(pc)
	}

	pc.Commission = result
	span.SetAttributes(
		attribute.String("affiliate.code", result.AffiliateCode),
		attribute.Float64("affiliate.commission", result.AffiliateCommission),
		attribute.Float64("campaign.share", result.CampaignShare),
	)
	pc.Record(StepResult{Step: StepAttribute, Severity: Ok})
	return h.executeNext(pc)
}

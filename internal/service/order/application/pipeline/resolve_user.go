// internal/service/order/application/pipeline/resolve_user.go
package pipeline

import (
	"b8shield/internal/pkg/logger"
)

const StepResolveUser = "resolve_user"

// ResolveUserHandler 解析订单归属的规范身份。
// 解析失败只降级：订单已经落库，身份缺失是上游数据问题，不能阻断后续步骤。
type ResolveUserHandler struct {
	NextHandler
}

func (h *ResolveUserHandler) Handle(pc *Context) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "pipeline.ResolveUser")
	defer span.End()

	user, err := pc.Resolver.Resolve(ctx, pc.Order)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", pc.Order.ID).
			Msg("user resolution failed, continuing with checkout contact info")
		pc.Record(StepResult{Step: StepResolveUser, Severity: Degraded, Err: err})
		return h.executeNext(pc)
	}

	pc.User = user
	pc.Record(StepResult{Step: StepResolveUser, Severity: Ok})
	return h.executeNext(pc)
}

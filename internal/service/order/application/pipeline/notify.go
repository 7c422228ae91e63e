// internal/service/order/application/pipeline/notify.go
package pipeline

import (
	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/order/domain/port"
)

const StepNotify = "notify"

// NotificationHandler 下发订单确认通知。
// 通知是至少一次、与物化解耦的旁路，失败只降级。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(pc *Context) error {
	ctx, span := pc.Tracer.Start(pc.Ctx, "pipeline.Notify")
	defer span.End()

	user := pc.User
	if user == nil {
		// 身份解析降级时退回结账联系信息
		user = &port.ResolvedUser{
			Email:       pc.Order.Customer.Email,
			DisplayName: pc.Order.Customer.Name,
			Kind:        port.UserKindGuest,
		}
	}

	if err := pc.Notifier.SendOrderConfirmed(ctx, pc.Order, user); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", pc.Order.ID).
			Msg("notification dispatch failed")
		pc.Record(StepResult{Step: StepNotify, Severity: Degraded, Err: err})
		return h.executeNext(pc)
	}

	pc.Record(StepResult{Step: StepNotify, Severity: Ok})
	return h.executeNext(pc)
}

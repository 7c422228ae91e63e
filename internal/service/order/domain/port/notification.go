// internal/service/order/domain/port/notification.go
package port

import (
	"context"

	"b8shield/internal/service/order/domain"
)

// NotificationProducer 是订单确认通知的出站端口。
// 通知是尽力而为的旁路：发送失败只记日志，绝不回滚订单。
type NotificationProducer interface {
	SendOrderConfirmed(ctx context.Context, order *domain.Order, user *ResolvedUser) error
}

// internal/service/order/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"b8shield/internal/pkg/mq"
	"b8shield/internal/service/order/domain"
	"b8shield/internal/service/order/domain/port"

	"github.com/segmentio/kafka-go"
)

// orderConfirmedEvent 是投递给通知服务的消息体。
type orderConfirmedEvent struct {
	OrderID     string  `json:"orderId"`
	OrderNumber string  `json:"orderNumber"`
	Email       string  `json:"email"`
	DisplayName string  `json:"displayName"`
	UserKind    string  `json:"userKind"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
	Followup    bool    `json:"requiresFollowup"`
}

// NotificationKafkaAdapter 实现了 port.NotificationProducer 接口。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// SendOrderConfirmed 把订单确认事件投递到通知主题。
// 消费端（邮件/模板渲染）是外部协作方，这里只负责投递。
func (a *NotificationKafkaAdapter) SendOrderConfirmed(ctx context.Context, order *domain.Order, user *port.ResolvedUser) error {
	event := orderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		UserKind:    string(user.Kind),
		Total:       order.Financials.Total,
		Currency:    order.Payment.Currency,
		Followup:    order.RequiresFollowup,
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmed event: %w", err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	return mq.ProduceMessage(ctx, a.writer, []byte(order.ID), eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}

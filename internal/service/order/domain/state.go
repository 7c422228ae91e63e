// internal/service/order/domain/state.go
package domain

import "time"

// 便于测试替换时钟
var nowFunc = time.Now

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending    Status = "pending"    // 订单已记录但尚未确认
	StatusConfirmed  Status = "confirmed"  // 支付成功，订单物化完成
	StatusProcessing Status = "processing" // 仓库备货中
	StatusShipped    Status = "shipped"    // 已发货
	StatusDelivered  Status = "delivered"  // 已签收（终态）
	StatusCancelled  Status = "cancelled"  // 已取消（终态）
)

// transitions 列出每个状态允许的下一跳。
// cancelled 可从 delivered 之前的任何状态进入。
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo 判断状态迁移是否合法。
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition 执行一次状态迁移，非法迁移返回 ErrInvalidTransition。
func (o *Order) Transition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = nowFunc()
	return nil
}

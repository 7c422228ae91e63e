// internal/service/order/domain/errors.go
package domain

import "errors"

var (
	// ErrOrderNotFound 订单不存在（幂等检查未命中时的正常分支）。
	ErrOrderNotFound = errors.New("order not found")

	// ErrMalformedMetadata 结账元数据缺失或不可解析，硬性拒绝，不写任何数据。
	ErrMalformedMetadata = errors.New("malformed checkout metadata")

	// ErrStoreUnavailable 存储暂时不可用。调用方可以安全重试，
	// 幂等键保证重试不会产生重复订单。
	ErrStoreUnavailable = errors.New("order store unavailable")

	// ErrInvalidTransition 非法的订单状态迁移。
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrOrderAlreadyExists 写入时撞上了 provider_ref 唯一约束。
	// 出现在回调与补单并发物化同一笔支付时，调用方应重查并返回已有订单。
	ErrOrderAlreadyExists = errors.New("order already exists for provider ref")
)

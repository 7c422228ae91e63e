// internal/service/order/application/dto.go
package application

// MaterializeResult 是一次物化调用的结果。
// Created=false 表示幂等命中，返回的是已存在订单。
type MaterializeResult struct {
	OrderID          string `json:"orderId"`
	OrderNumber      string `json:"orderNumber"`
	Created          bool   `json:"created"`
	RequiresFollowup bool   `json:"requiresFollowup"`
}

// RecoveryResult 是补单调用的结果。
type RecoveryResult struct {
	OrderID          string `json:"orderId"`
	OrderNumber      string `json:"orderNumber,omitempty"`
	Existing         bool   `json:"existing"`
	RequiresFollowup bool   `json:"requiresFollowup"`
}

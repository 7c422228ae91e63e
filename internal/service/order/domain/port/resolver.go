// internal/service/order/domain/port/resolver.go
package port

import (
	"context"

	"b8shield/internal/service/order/domain"
)

// UserKind 标识订单归属身份的类别。
type UserKind string

const (
	UserKindB2B   UserKind = "B2B"
	UserKindB2C   UserKind = "B2C"
	UserKindGuest UserKind = "GUEST"
)

// ResolvedUser 是身份解析的结果。
type ResolvedUser struct {
	Email       string
	DisplayName string
	Kind        UserKind
}

// UserResolver 是身份解析的出站端口，由 identity 服务的适配器实现。
type UserResolver interface {
	Resolve(ctx context.Context, order *domain.Order) (*ResolvedUser, error)
}

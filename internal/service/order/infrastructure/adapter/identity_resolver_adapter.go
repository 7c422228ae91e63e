// internal/service/order/infrastructure/adapter/identity_resolver_adapter.go
package adapter

import (
	"context"

	"b8shield/internal/service/identity/application"
	identitydomain "b8shield/internal/service/identity/domain"
	"b8shield/internal/service/order/domain"
	"b8shield/internal/service/order/domain/port"
)

// IdentityResolverAdapter 把 identity 服务接到订单管道的 UserResolver 端口上。
type IdentityResolverAdapter struct {
	identity *application.IdentityService
}

func NewIdentityResolverAdapter(identity *application.IdentityService) *IdentityResolverAdapter {
	return &IdentityResolverAdapter{identity: identity}
}

func (a *IdentityResolverAdapter) Resolve(ctx context.Context, order *domain.Order) (*port.ResolvedUser, error) {
	user, err := a.identity.Resolve(ctx, identitydomain.RequestContext{
		B2BAccountID:  order.Customer.AccountID,
		B2CCustomerID: order.Customer.CustomerID,
		GuestEmail:    order.Customer.Email,
		GuestName:     order.Customer.Name,
	})
	if err != nil {
		return nil, err
	}
	return &port.ResolvedUser{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Kind:        port.UserKind(user.Kind),
	}, nil
}

// internal/service/identity/application/service.go
package application

import (
	"context"
	"errors"

	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/identity/domain"
	"b8shield/internal/service/identity/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IdentityService 把结账元数据里的身份线索解析成统一的 ResolvedUser。
type IdentityService struct {
	b2b    port.B2BAccountLookup
	b2c    port.B2CCustomerLookup
	tracer trace.Tracer
}

func NewIdentityService(b2b port.B2BAccountLookup, b2c port.B2CCustomerLookup, tracer trace.Tracer) *IdentityService {
	return &IdentityService{b2b: b2b, b2c: b2c, tracer: tracer}
}

// Resolve 按固定顺序解析身份：
// (a) 企业账号ID → (b) 个人客户ID → (c) 访客联系方式 →
// (d) 兜底：把企业账号ID当作个人客户ID 再查一次。
// 步骤 (d) 覆盖历史结账流里两类ID写串的订单，这些订单仍需归到正确的人。
// 只有四条路都走不通才返回 ErrUnresolvedUser。
func (s *IdentityService) Resolve(ctx context.Context, rc domain.RequestContext) (*domain.ResolvedUser, error) {
	ctx, span := s.tracer.Start(ctx, "identity.Resolve")
	defer span.End()

	if !rc.HasAnyHint() {
		return nil, domain.ErrUnresolvedUser
	}

	// (a) 企业账号
	if rc.B2BAccountID != "" {
		account, err := s.b2b.FindAccount(ctx, rc.B2BAccountID)
		if err == nil {
			span.SetAttributes(attribute.String("identity.kind", string(domain.UserKindB2B)))
			return &domain.ResolvedUser{
				Email:       account.Email,
				DisplayName: account.CompanyName,
				Kind:        domain.UserKindB2B,
			}, nil
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		logger.Ctx(ctx).Debug().Str("account_id", rc.B2BAccountID).Msg("b2b account not found, trying next resolution step")
	}

	// (b) 个人客户
	if rc.B2CCustomerID != "" {
		customer, err := s.b2c.FindCustomer(ctx, rc.B2CCustomerID)
		if err == nil {
			span.SetAttributes(attribute.String("identity.kind", string(domain.UserKindB2C)))
			return s.fromCustomer(customer, rc), nil
		}
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, err
		}
		logger.Ctx(ctx).Debug().Str("customer_id", rc.B2CCustomerID).Msg("b2c customer not found, trying next resolution step")
	}

	// (c) 访客身份直接从结账联系方式合成
	if rc.GuestEmail != "" {
		span.SetAttributes(attribute.String("identity.kind", string(domain.UserKindGuest)))
		return &domain.ResolvedUser{
			Email:       rc.GuestEmail,
			DisplayName: rc.GuestName,
			Kind:        domain.UserKindGuest,
		}, nil
	}

	// (d) 历史兜底：企业账号ID按个人客户ID再查一次
	if rc.B2BAccountID != "" {
		customer, err := s.b2c.FindCustomer(ctx, rc.B2BAccountID)
		if err == nil {
			span.SetAttributes(attribute.String("identity.kind", string(domain.UserKindB2C)))
			span.AddEvent("resolved via b2b-id-as-customer-id fallback")
			return s.fromCustomer(customer, rc), nil
		}
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, err
		}
	}

	return nil, domain.ErrUnresolvedUser
}

func (s *IdentityService) fromCustomer(customer *domain.B2CCustomer, rc domain.RequestContext) *domain.ResolvedUser {
	displayName := customer.DisplayName
	if displayName == "" {
		displayName = rc.GuestName
	}
	email := customer.Email
	if email == "" {
		email = rc.GuestEmail
	}
	return &domain.ResolvedUser{
		Email:       email,
		DisplayName: displayName,
		Kind:        domain.UserKindB2C,
	}
}

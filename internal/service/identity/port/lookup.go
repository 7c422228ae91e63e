// internal/service/identity/port/lookup.go
package port

import (
	"context"

	"b8shield/internal/service/identity/domain"
)

// B2BAccountLookup 是企业账号查询的出站端口。
// 账号不存在返回 domain.ErrAccountNotFound。
type B2BAccountLookup interface {
	FindAccount(ctx context.Context, accountID string) (*domain.B2BAccount, error)
}

// B2CCustomerLookup 是个人客户查询的出站端口。
// 客户不存在返回 domain.ErrCustomerNotFound。
type B2CCustomerLookup interface {
	FindCustomer(ctx context.Context, customerID string) (*domain.B2CCustomer, error)
}

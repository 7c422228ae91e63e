// internal/service/identity/domain/errors.go
package domain

import "errors"

var (
	// ErrUnresolvedUser 表示请求不携带任何身份线索，连访客身份都无法合成。
	ErrUnresolvedUser = errors.New("identity: no identifying information in request")

	// ErrAccountNotFound 企业账号在认证方不存在
	ErrAccountNotFound = errors.New("identity: b2b account not found")

	// ErrCustomerNotFound 个人客户在认证方不存在
	ErrCustomerNotFound = errors.New("identity: b2c customer not found")
)

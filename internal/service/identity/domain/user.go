// internal/service/identity/domain/user.go
package domain

// UserKind 标识解析出的身份类别。
type UserKind string

const (
	UserKindB2B   UserKind = "B2B"
	UserKindB2C   UserKind = "B2C"
	UserKindGuest UserKind = "GUEST"
)

// ResolvedUser 是身份解析的最终结果。
type ResolvedUser struct {
	Email       string
	DisplayName string
	Kind        UserKind
}

// B2BAccount 是外部认证方的企业账号视图。
type B2BAccount struct {
	AccountID   string
	CompanyName string
	Email       string
}

// B2CCustomer 是外部认证方的个人客户视图。
type B2CCustomer struct {
	CustomerID  string
	DisplayName string
	Email       string
}

// RequestContext 携带一次解析可用的全部身份线索。
// 三组线索都可缺席；全部缺席时解析返回 ErrUnresolvedUser。
type RequestContext struct {
	B2BAccountID  string
	B2CCustomerID string
	GuestEmail    string
	GuestName     string
}

// HasAnyHint 判断是否存在任何可用的身份线索。
func (rc RequestContext) HasAnyHint() bool {
	return rc.B2BAccountID != "" || rc.B2CCustomerID != "" || rc.GuestEmail != ""
}

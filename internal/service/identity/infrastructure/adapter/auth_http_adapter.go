// internal/service/identity/infrastructure/adapter/auth_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/url"

	"b8shield/internal/pkg/httpclient"
	"b8shield/internal/service/identity/domain"

	"github.com/pkg/errors"
)

// AuthHTTPAdapter 对接外部认证方的账号/客户查询接口。
// 同时实现 port.B2BAccountLookup 和 port.B2CCustomerLookup。
type AuthHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewAuthHTTPAdapter(client *httpclient.Client, baseURL string) *AuthHTTPAdapter {
	return &AuthHTTPAdapter{client: client, baseURL: baseURL}
}

type b2bAccountResponse struct {
	AccountID   string `json:"accountId"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
}

// FindAccount 查询企业账号，404 映射为 ErrAccountNotFound。
func (a *AuthHTTPAdapter) FindAccount(ctx context.Context, accountID string) (*domain.B2BAccount, error) {
	var resp b2bAccountResponse
	serviceURL := fmt.Sprintf("%s/api/b2b/accounts/%s", a.baseURL, url.PathEscape(accountID))
	if err := a.client.GetJSON(ctx, serviceURL, &resp); err != nil {
		if errors.Is(err, httpclient.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, errors.Wrapf(err, "auth provider lookup failed for account %s", accountID)
	}
	return &domain.B2BAccount{
		AccountID:   resp.AccountID,
		CompanyName: resp.CompanyName,
		Email:       resp.Email,
	}, nil
}

type b2cCustomerResponse struct {
	CustomerID  string `json:"customerId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// FindCustomer 查询个人客户，404 映射为 ErrCustomerNotFound。
func (a *AuthHTTPAdapter) FindCustomer(ctx context.Context, customerID string) (*domain.B2CCustomer, error) {
	var resp b2cCustomerResponse
	serviceURL := fmt.Sprintf("%s/api/customers/%s", a.baseURL, url.PathEscape(customerID))
	if err := a.client.GetJSON(ctx, serviceURL, &resp); err != nil {
		if errors.Is(err, httpclient.ErrNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, errors.Wrapf(err, "auth provider lookup failed for customer %s", customerID)
	}
	return &domain.B2CCustomer{
		CustomerID:  resp.CustomerID,
		DisplayName: resp.DisplayName,
		Email:       resp.Email,
	}, nil
}

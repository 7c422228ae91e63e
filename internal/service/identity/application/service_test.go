// internal/service/identity/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"b8shield/internal/service/identity/domain"

	"go.opentelemetry.io/otel/trace/noop"
)

type fakeB2BLookup struct {
	accounts map[string]*domain.B2BAccount
	err      error
}

func (f *fakeB2BLookup) FindAccount(_ context.Context, id string) (*domain.B2BAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if account, ok := f.accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

type fakeB2CLookup struct {
	customers map[string]*domain.B2CCustomer
	calls     []string
	err       error
}

func (f *fakeB2CLookup) FindCustomer(_ context.Context, id string) (*domain.B2CCustomer, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	if customer, ok := f.customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func newResolver(b2b *fakeB2BLookup, b2c *fakeB2CLookup) *IdentityService {
	return NewIdentityService(b2b, b2c, noop.NewTracerProvider().Tracer("test"))
}

func TestResolveB2BFirst(t *testing.T) {
	b2b := &fakeB2BLookup{accounts: map[string]*domain.B2BAccount{
		"acc-1": {AccountID: "acc-1", CompanyName: "Sportfiske AB", Email: "order@sportfiske.se"},
	}}
	b2c := &fakeB2CLookup{customers: map[string]*domain.B2CCustomer{
		"cust-1": {CustomerID: "cust-1", DisplayName: "Anna"},
	}}
	svc := newResolver(b2b, b2c)

	// 两个ID都有：B2B优先
	user, err := svc.Resolve(context.Background(), domain.RequestContext{
		B2BAccountID:  "acc-1",
		B2CCustomerID: "cust-1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Kind != domain.UserKindB2B || user.DisplayName != "Sportfiske AB" {
		t.Errorf("user = %+v, want B2B account", user)
	}
	if len(b2c.calls) != 0 {
		t.Error("b2c lookup must not run when b2b resolves")
	}
}

func TestResolveFallsThroughToB2C(t *testing.T) {
	b2b := &fakeB2BLookup{}
	b2c := &fakeB2CLookup{customers: map[string]*domain.B2CCustomer{
		"cust-1": {CustomerID: "cust-1", DisplayName: "Anna", Email: "anna@example.se"},
	}}
	svc := newResolver(b2b, b2c)

	user, err := svc.Resolve(context.Background(), domain.RequestContext{
		B2BAccountID:  "acc-gone",
		B2CCustomerID: "cust-1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Kind != domain.UserKindB2C || user.Email != "anna@example.se" {
		t.Errorf("user = %+v, want B2C customer", user)
	}
}

func TestResolveGuest(t *testing.T) {
	svc := newResolver(&fakeB2BLookup{}, &fakeB2CLookup{})

	user, err := svc.Resolve(context.Background(), domain.RequestContext{
		GuestEmail: "gast@example.se",
		GuestName:  "Göran",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Kind != domain.UserKindGuest || user.Email != "gast@example.se" {
		t.Errorf("user = %+v, want guest", user)
	}
}

func TestResolveB2BIDAsCustomerIDFallback(t *testing.T) {
	// 历史数据把 B2C 客户ID写进了 accountId 字段
	b2c := &fakeB2CLookup{customers: map[string]*domain.B2CCustomer{
		"misfiled-1": {CustomerID: "misfiled-1", DisplayName: "Berit", Email: "berit@example.se"},
	}}
	svc := newResolver(&fakeB2BLookup{}, b2c)

	user, err := svc.Resolve(context.Background(), domain.RequestContext{
		B2BAccountID: "misfiled-1",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Kind != domain.UserKindB2C || user.Email != "berit@example.se" {
		t.Errorf("user = %+v, want B2C via fallback", user)
	}
}

func TestResolveGuestWinsOverFallback(t *testing.T) {
	// 访客信息存在时，兜底步骤 (d) 不应该执行
	b2c := &fakeB2CLookup{customers: map[string]*domain.B2CCustomer{
		"acc-1": {CustomerID: "acc-1", DisplayName: "Wrong Person"},
	}}
	svc := newResolver(&fakeB2BLookup{}, b2c)

	user, err := svc.Resolve(context.Background(), domain.RequestContext{
		B2BAccountID: "acc-1",
		GuestEmail:   "gast@example.se",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.Kind != domain.UserKindGuest {
		t.Errorf("user = %+v, guest info must win over the misfiled-id fallback", user)
	}
}

func TestResolveNoHints(t *testing.T) {
	svc := newResolver(&fakeB2BLookup{}, &fakeB2CLookup{})
	if _, err := svc.Resolve(context.Background(), domain.RequestContext{}); !errors.Is(err, domain.ErrUnresolvedUser) {
		t.Fatalf("err = %v, want ErrUnresolvedUser", err)
	}
}

func TestResolveInfrastructureErrorPropagates(t *testing.T) {
	infraErr := errors.New("auth provider 503")
	svc := newResolver(&fakeB2BLookup{err: infraErr}, &fakeB2CLookup{})

	// 查询失败 ≠ 不存在：不能静默降级到下一步
	if _, err := svc.Resolve(context.Background(), domain.RequestContext{B2BAccountID: "acc-1"}); !errors.Is(err, infraErr) {
		t.Fatalf("err = %v, want infrastructure error", err)
	}
}

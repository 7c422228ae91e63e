// internal/service/affiliate/interfaces/http_handler_test.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"b8shield/internal/service/affiliate/application"
	"b8shield/internal/service/affiliate/domain"

	"go.opentelemetry.io/otel/trace/noop"
)

type stubAffiliateRepo struct {
	accounts map[string]*domain.AffiliateAccount
}

func (s *stubAffiliateRepo) FindActiveByCode(_ context.Context, code string) (*domain.AffiliateAccount, error) {
	if account, ok := s.accounts[code]; ok {
		return account, nil
	}
	return nil, domain.ErrAffiliateNotFound
}

func (s *stubAffiliateRepo) IncrementStats(context.Context, string, float64, int64, int64) error {
	return nil
}

type stubClickRepo struct {
	created []*domain.AffiliateClick
}

func (s *stubClickRepo) Create(_ context.Context, click *domain.AffiliateClick) error {
	s.created = append(s.created, click)
	return nil
}

func (s *stubClickRepo) FindByID(context.Context, string) (*domain.AffiliateClick, error) {
	return nil, domain.ErrClickNotFound
}

func (s *stubClickRepo) MarkConverted(context.Context, string, string, float64) error { return nil }

type stubCampaignRepo struct{}

func (stubCampaignRepo) FindByCode(context.Context, string) (*domain.Campaign, error) {
	return nil, domain.ErrCampaignNotFound
}

func (stubCampaignRepo) ListActiveRevenueShare(context.Context) ([]*domain.Campaign, error) {
	return nil, nil
}

func (stubCampaignRepo) IncrementClicks(context.Context, string) error { return nil }

func newTestHandler(t *testing.T) (*AffiliateHandler, *stubClickRepo) {
	t.Helper()
	clicks := &stubClickRepo{}
	svc := application.NewAffiliateService(
		&stubAffiliateRepo{accounts: map[string]*domain.AffiliateAccount{
			"FISKE20": {ID: "aff-1", AffiliateCode: "FISKE20", CommissionRate: 20, Status: domain.StatusActive},
		}},
		clicks,
		stubCampaignRepo{},
		nil,
		noop.NewTracerProvider().Tracer("test"),
		25,
	)
	return NewAffiliateHandler(svc, []string{"https://shop.example.se"}), clicks
}

func newClickServer(t *testing.T) (*httptest.Server, *stubClickRepo) {
	t.Helper()
	handler, clicks := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, nil)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, clicks
}

func TestLogClickHandlerRecordsClick(t *testing.T) {
	server, clicks := newClickServer(t)

	resp, err := http.Post(server.URL+"/affiliate/clicks", "application/json",
		strings.NewReader(`{"affiliateCode":"FISKE20","landingPage":"/products/b8-6pack"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		ClickID string `json:"clickId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ClickID == "" {
		t.Error("response missing clickId")
	}
	if len(clicks.created) != 1 || clicks.created[0].LandingPage != "/products/b8-6pack" {
		t.Errorf("created clicks = %+v", clicks.created)
	}
}

func TestLogClickHandlerUnknownCode(t *testing.T) {
	server, clicks := newClickServer(t)

	resp, err := http.Post(server.URL+"/affiliate/clicks", "application/json",
		strings.NewReader(`{"affiliateCode":"NOPE"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if len(clicks.created) != 0 {
		t.Error("unknown code must not create a click record")
	}
}

func TestLogClickHandlerRejectsEmptyBody(t *testing.T) {
	server, _ := newClickServer(t)

	resp, err := http.Post(server.URL+"/affiliate/clicks", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogClickHandlerMethodNotAllowed(t *testing.T) {
	server, _ := newClickServer(t)

	resp, err := http.Get(server.URL + "/affiliate/clicks")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := newClickServer(t)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/affiliate/clicks", nil)
	req.Header.Set("Origin", "https://shop.example.se")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://shop.example.se" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight missing Allow-Methods")
	}
}

func TestCORSUnknownOriginGetsNoAllowHeader(t *testing.T) {
	server, _ := newClickServer(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/affiliate/clicks",
		strings.NewReader(`{"affiliateCode":"FISKE20"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want unset for unlisted origin", got)
	}
}

// internal/service/affiliate/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/affiliate/application"
	"b8shield/internal/service/affiliate/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const serviceName = "affiliate"

var clickOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "b8_affiliate_clicks_total",
	Help: "Affiliate click submissions by outcome.",
}, []string{"outcome"})

// Middleware 与 order 服务的路由防护签名保持一致。
type Middleware func(endpointClass string, next http.Handler) http.Handler

// AffiliateHandler 封装了 affiliate 服务的 HTTP 处理器。
// 点击上报由店面前端直接调用，需要 CORS 放行配置的店面源。
type AffiliateHandler struct {
	service        *application.AffiliateService
	allowedOrigins map[string]bool
}

// NewAffiliateHandler 创建一个新的 HTTP 处理器实例
func NewAffiliateHandler(service *application.AffiliateService, allowedOrigins []string) *AffiliateHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &AffiliateHandler{service: service, allowedOrigins: origins}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *AffiliateHandler) RegisterRoutes(mux *http.ServeMux, wrap Middleware) {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	mux.Handle("/affiliate/clicks", wrap("public", h.cors(http.HandlerFunc(h.logClickHandler))))
}

// cors 放行配置中的店面源；预检请求在这里短路。
func (h *AffiliateHandler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type logClickRequest struct {
	AffiliateCode string `json:"affiliateCode"`
	CampaignCode  string `json:"campaignCode,omitempty"`
	LandingPage   string `json:"landingPage,omitempty"`
}

// logClickHandler 记录一次店面推广点击。
// 404 表示推广码无效或账号非 active——前端据此清掉本地的推广归因。
func (h *AffiliateHandler) logClickHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.LogAffiliateClick")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req logClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AffiliateCode == "" {
		clickOutcomes.WithLabelValues("bad_request").Inc()
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("affiliate.code", req.AffiliateCode))

	clickID, err := h.service.LogClick(ctx, &application.LogClickInput{
		AffiliateCode: req.AffiliateCode,
		CampaignCode:  req.CampaignCode,
		IPAddress:     clientIP(r),
		UserAgent:     r.UserAgent(),
		LandingPage:   req.LandingPage,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAffiliateNotFound) {
			clickOutcomes.WithLabelValues("unknown_code").Inc()
			http.Error(w, "unknown affiliate code", http.StatusNotFound)
			return
		}
		clickOutcomes.WithLabelValues("failure").Inc()
		logger.Ctx(ctx).Error().Err(err).Str("affiliate_code", req.AffiliateCode).Msg("failed to log affiliate click")
		http.Error(w, "temporary failure, retry later", http.StatusInternalServerError)
		return
	}

	clickOutcomes.WithLabelValues("logged").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{"clickId": clickID})
}

// clientIP 取直连对端地址；有反代时优先 X-Forwarded-For 首跳。
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

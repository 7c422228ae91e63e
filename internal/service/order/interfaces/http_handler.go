// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"b8shield/internal/pkg/logger"
	"b8shield/internal/service/order/application"
	"b8shield/internal/service/order/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const (
	serviceName = "order-pipeline"

	// 回调类型：只有支付成功事件会触发物化
	eventTypePaymentSucceeded = "payment_intent.succeeded"

	maxWebhookBodyBytes = 1 << 20
)

var webhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "b8_webhook_events_total",
	Help: "Payment webhook deliveries by outcome.",
}, []string{"outcome"})

// Middleware 用于给单个路由包上防护层（限流/黑名单/预算熔断）。
type Middleware func(endpointClass string, next http.Handler) http.Handler

// OrderHandler 封装了 order 服务的 HTTP 处理器。
type OrderHandler struct {
	service        *application.OrderApplicationService
	webhookSecret  string
	sentinelSource string
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service *application.OrderApplicationService, webhookSecret, sentinelSource string) *OrderHandler {
	return &OrderHandler{
		service:        service,
		webhookSecret:  webhookSecret,
		sentinelSource: sentinelSource,
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
// wrap 为 nil 时路由不加防护（测试场景）。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux, wrap Middleware) {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/webhooks/payment", wrap("webhook", http.HandlerFunc(h.paymentWebhookHandler)))
	mux.Handle("/admin/orders/recover", wrap("admin", http.HandlerFunc(h.recoverOrderHandler)))
	mux.Handle("/admin/orders/status", wrap("admin", http.HandlerFunc(h.updateStatusHandler)))
}

// paymentWebhookHandler 是支付回调入口。
// 响应码契约：200=已确认（包括“与我无关”和“已处理过”），
// 400=元数据损坏，401=签名不通过，500=暂时性失败（触发对端重试）。
func (h *OrderHandler) paymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.PaymentWebhook")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	// 验签在任何解析之前：签名不对的请求不产生任何副作用
	eventType, event, err := VerifyAndDecode(h.webhookSecret, body, r.Header.Get("Signature"))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			webhookOutcomes.WithLabelValues("invalid_signature").Inc()
			logger.Ctx(ctx).Warn().Str("remote", r.RemoteAddr).Msg("webhook signature verification failed")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		// 验签通过但信封不是合法 JSON：当作集成方bug
		webhookOutcomes.WithLabelValues("bad_envelope").Inc()
		http.Error(w, "malformed event envelope", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("webhook.event_type", eventType),
		attribute.String("payment.provider_ref", event.ProviderPaymentRef),
	)

	// 前向兼容：不认识的事件类型、非本店面来源、未成功的支付，
	// 一律确认并丢弃，避免对端无限重试。
	if eventType != eventTypePaymentSucceeded ||
		event.Status != domain.PaymentStatusSucceeded ||
		event.Metadata[domain.MetaKeySource] != h.sentinelSource {
		webhookOutcomes.WithLabelValues("ignored").Inc()
		span.AddEvent("event acknowledged and discarded")
		writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
		return
	}

	result, err := h.service.Materialize(ctx, event)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedMetadata):
			webhookOutcomes.WithLabelValues("malformed_metadata").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			// 包含 ErrStoreUnavailable：500 让支付方按自己的策略重试，
			// 幂等键保证重试是安全的
			webhookOutcomes.WithLabelValues("transient_failure").Inc()
			http.Error(w, "temporary failure, retry later", http.StatusInternalServerError)
		}
		return
	}

	if result.Created {
		webhookOutcomes.WithLabelValues("materialized").Inc()
	} else {
		webhookOutcomes.WithLabelValues("duplicate").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
		"orderId":  result.OrderID,
		"created":  result.Created,
	})
}

type recoverRequest struct {
	ProviderPaymentRef string            `json:"providerPaymentRef"`
	Metadata           map[string]string `json:"metadata"`
}

// recoverOrderHandler 是运维补单入口（非公开自助服务）。
func (h *OrderHandler) recoverOrderHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.RecoverOrder")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("payment.provider_ref", req.ProviderPaymentRef))

	result, err := h.service.Recover(ctx, req.ProviderPaymentRef, req.Metadata)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedMetadata) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "temporary failure, retry later", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type statusUpdateRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// updateStatusHandler 执行运维触发的订单状态迁移。
func (h *OrderHandler) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "http.UpdateOrderStatus")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.UpdateStatus(ctx, req.OrderID, domain.Status(req.Status))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "temporary failure, retry later", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

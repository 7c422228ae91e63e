// internal/service/guard/interfaces/middleware.go
package interfaces

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"b8shield/internal/service/guard/application"
	"b8shield/internal/service/guard/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "b8_guard_verdicts_total",
	Help: "Guard admission verdicts by endpoint class and outcome.",
}, []string{"class", "verdict"})

// GuardMiddleware 把准入判定包在单个路由外面。
// 返回值与 order/affiliate 服务的 Middleware 签名兼容。
func GuardMiddleware(guard *application.GuardService) func(string, http.Handler) http.Handler {
	return func(endpointClass string, next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := guard.Admit(r.Context(), sourceKey(r), endpointClass)
			if err == nil {
				verdicts.WithLabelValues(endpointClass, "allowed").Inc()
				next.ServeHTTP(w, r)
				return
			}

			var rateLimited *domain.RateLimitedError
			switch {
			case errors.As(err, &rateLimited):
				verdicts.WithLabelValues(endpointClass, "rate_limited").Inc()
				w.Header().Set("Retry-After", strconv.FormatInt(rateLimited.RetryAfterSeconds, 10))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
			case errors.Is(err, domain.ErrBlacklisted):
				verdicts.WithLabelValues(endpointClass, "blacklisted").Inc()
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				// ErrBudgetExceeded 与计数存储故障：全量硬拒绝
				verdicts.WithLabelValues(endpointClass, "budget_exceeded").Inc()
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}
		})
	}
}

// sourceKey 提取限流主体：有反代时取 X-Forwarded-For 首跳，否则取直连IP。
func sourceKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

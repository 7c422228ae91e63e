// cmd/budget-monitor/main.go
package main

import (
	"context"
	"net/http"

	"b8shield/internal/pkg/bootstrap"
	"b8shield/internal/pkg/logger"
	"b8shield/internal/pkg/redis"
	guardapplication "b8shield/internal/service/guard/application"
	guardinfra "b8shield/internal/service/guard/infrastructure"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

const (
	serviceName = "budget-monitor"
	servicePort = 8082
)

// main 启动独立的成本聚合作业。
// 该进程只做报表：周期性把共享计数折算成成本并暴露为指标，
// 不持有熔断开关——熔断在入口服务内同进程执行。
// 因此它只在 guard.store = redis（共享计数）部署下有意义。
func main() {
	var closers []func()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			if cfg.Guard.Store != "redis" {
				logger.L().Warn().Msg("guard.store is not redis, this job only sees its own in-process counters")
			}

			redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to connect to redis")
			}
			closers = append(closers, func() { _ = redisClient.Close() })

			rateStore, err := guardinfra.NewRedisRateStore(redisClient)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to initialize redis rate store")
			}

			budgetMonitor := guardapplication.NewBudgetMonitor(rateStore, nil, cfg)

			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Budget.Schedule, func() {
				budgetMonitor.Run(context.Background())
			}); err != nil {
				logger.L().Fatal().Err(err).Str("schedule", cfg.Budget.Schedule).Msg("invalid budget schedule")
			}
			scheduler.Start()
			closers = append(closers, func() { scheduler.Stop() })

			// 启动时先跑一轮，指标端点立刻有数据
			go budgetMonitor.Run(context.Background())
		},
		OnShutdown: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	})
}

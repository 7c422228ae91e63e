// cmd/order-pipeline/main.go
package main

import (
	"context"
	"strings"

	"b8shield/internal/pkg/bootstrap"
	"b8shield/internal/pkg/httpclient"
	"b8shield/internal/pkg/logger"
	"b8shield/internal/pkg/mq"
	"b8shield/internal/pkg/redis"
	affapplication "b8shield/internal/service/affiliate/application"
	affinfra "b8shield/internal/service/affiliate/infrastructure"
	"b8shield/internal/service/affiliate/infrastructure/rule"
	affinterfaces "b8shield/internal/service/affiliate/interfaces"
	guardapplication "b8shield/internal/service/guard/application"
	guarddomain "b8shield/internal/service/guard/domain"
	guardinfra "b8shield/internal/service/guard/infrastructure"
	guardinterfaces "b8shield/internal/service/guard/interfaces"
	idapplication "b8shield/internal/service/identity/application"
	idadapter "b8shield/internal/service/identity/infrastructure/adapter"
	orderapplication "b8shield/internal/service/order/application"
	orderinfra "b8shield/internal/service/order/infrastructure"
	orderadapter "b8shield/internal/service/order/infrastructure/adapter"
	orderinterfaces "b8shield/internal/service/order/interfaces"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	serviceName = "order-pipeline"
	servicePort = 8080
)

// main 是入口服务的组装根：创建并组装所有依赖项，然后交给 bootstrap 托管。
func main() {
	var closers []func()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config
			tracer := otel.Tracer(serviceName)

			// 持久化。TranslateError 让 MySQL 唯一约束冲突映射成
			// gorm.ErrDuplicatedKey，幂等键竞争的收敛依赖这一点。
			db, err := gorm.Open(mysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{TranslateError: true})
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := db.AutoMigrate(
				&orderinfra.OrderModel{},
				&affinfra.AffiliateAccountModel{},
				&affinfra.AffiliateClickModel{},
				&affinfra.CampaignModel{},
			); err != nil {
				logger.L().Fatal().Err(err).Msg("failed to migrate schema")
			}

			// 限流计数存储：默认进程内，多实例部署切 redis
			var rateStore guarddomain.RateStore
			if cfg.Guard.Store == "redis" {
				redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
				if err != nil {
					logger.L().Fatal().Err(err).Msg("failed to connect to redis")
				}
				closers = append(closers, func() { _ = redisClient.Close() })
				rateStore, err = guardinfra.NewRedisRateStore(redisClient)
				if err != nil {
					logger.L().Fatal().Err(err).Msg("failed to initialize redis rate store")
				}
			} else {
				rateStore = guardinfra.NewMemoryRateStore()
			}
			guardService := guardapplication.NewGuardService(rateStore, tracer, cfg)

			// 预算监控和熔断必须跟防护层同进程，否则熔断信号没有着力点
			budgetMonitor := guardapplication.NewBudgetMonitor(rateStore, guardService, cfg)
			scheduler := cron.New()
			if _, err := scheduler.AddFunc(cfg.Budget.Schedule, func() {
				budgetMonitor.Run(context.Background())
			}); err != nil {
				logger.L().Fatal().Err(err).Str("schedule", cfg.Budget.Schedule).Msg("invalid budget schedule")
			}
			scheduler.Start()
			closers = append(closers, func() { scheduler.Stop() })

			// 身份解析：外部认证方的查询适配器
			authAdapter := idadapter.NewAuthHTTPAdapter(httpclient.NewClient(tracer), cfg.Infra.Auth.BaseURL)
			identityService := idapplication.NewIdentityService(authAdapter, authAdapter, tracer)

			// 归因引擎
			ruleEngine, err := rule.NewCELRuleEngine()
			if err != nil {
				logger.L().Fatal().Err(err).Msg("failed to initialize rule engine")
			}
			affiliateService := affapplication.NewAffiliateService(
				affinfra.NewGormAffiliateRepository(db),
				affinfra.NewGormClickRepository(db),
				affinfra.NewGormCampaignRepository(db),
				ruleEngine,
				tracer,
				cfg.App.VatRatePercent,
			)

			// 订单确认通知走 Kafka，消费端是外部协作方
			kafkaWriter := mq.NewKafkaWriter(strings.Split(cfg.Infra.Kafka.Brokers, ","), cfg.Infra.Kafka.NotificationTopic)
			notifier := orderadapter.NewNotificationKafkaAdapter(kafkaWriter)
			closers = append(closers, func() { _ = notifier.Close() })

			orderService := orderapplication.NewOrderApplicationService(
				orderinfra.NewGormOrderRepository(db),
				tracer,
				orderadapter.NewIdentityResolverAdapter(identityService),
				orderadapter.NewAttributionAdapter(affiliateService),
				notifier,
			)

			// 路由：所有入口都包防护层
			wrap := guardinterfaces.GuardMiddleware(guardService)
			orderHandler := orderinterfaces.NewOrderHandler(orderService, cfg.App.WebhookSecret, cfg.App.SentinelSource)
			orderHandler.RegisterRoutes(appCtx.Mux, wrap)
			affiliateHandler := affinterfaces.NewAffiliateHandler(affiliateService, cfg.App.AllowedOrigins)
			affiliateHandler.RegisterRoutes(appCtx.Mux, wrap)

			if cfg.App.WebhookSecret == "" {
				logger.L().Warn().Msg("webhook secret is empty, all webhook deliveries will be rejected")
			}
		},
		OnShutdown: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	})
}

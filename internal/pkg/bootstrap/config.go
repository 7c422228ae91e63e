// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config 是整个进程的静态配置。
// 启动时从 YAML 文件加载一次，敏感项允许用环境变量覆盖。
type Config struct {
	App struct {
		// WebhookSecret 是支付回调的共享签名密钥，必须配置。
		WebhookSecret string `yaml:"webhookSecret"`
		// SentinelSource 标记回调事件属于本店面，其他来源的事件直接确认并丢弃。
		SentinelSource string `yaml:"sentinelSource"`
		// VatRatePercent 用于计算去税佣金基数，瑞典店面默认 25。
		VatRatePercent float64 `yaml:"vatRatePercent"`
		// AllowedOrigins 是点击上报 CORS 端点允许的来源列表。
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"app"`

	Guard struct {
		// Classes 按端点类别配置限流窗口。
		Classes map[string]GuardClassConfig `yaml:"classes"`
		// BlacklistMultiplier 超过 limit × multiplier 的来源进入黑名单。
		BlacklistMultiplier int `yaml:"blacklistMultiplier"`
		// DailyRequestCeiling 单日硬上限，超过后全量拒绝直到次日。
		DailyRequestCeiling int64 `yaml:"dailyRequestCeiling"`
		// Store 选择计数器实现: memory | redis
		Store string `yaml:"store"`
	} `yaml:"guard"`

	Budget struct {
		CostPerThousandRequests float64 `yaml:"costPerThousandRequests"`
		DailyCostThreshold      float64 `yaml:"dailyCostThreshold"`
		MonthlyCostThreshold    float64 `yaml:"monthlyCostThreshold"`
		// Schedule 是 cron 表达式，默认每 10 分钟聚合一次。
		Schedule string `yaml:"schedule"`
	} `yaml:"budget"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           string `yaml:"brokers"`
			NotificationTopic string `yaml:"notificationTopic"`
		} `yaml:"kafka"`
		Auth struct {
			BaseURL string `yaml:"baseURL"`
		} `yaml:"auth"`
	} `yaml:"infra"`
}

// GuardClassConfig 是单个端点类别的限流参数。
type GuardClassConfig struct {
	Limit    int   `yaml:"limit"`
	WindowMs int64 `yaml:"windowMs"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回当前进程配置。LoadConfig 未被调用时返回默认值。
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	c := defaultConfig()
	currentConfig.Store(c)
	return c
}

// LoadConfig 从 CONFIG_PATH 指定的 YAML 文件加载配置并应用环境变量覆盖。
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := getEnv("CONFIG_PATH", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// 敏感或部署相关的项允许用环境变量覆盖 YAML
	if v := os.Getenv("B8_WEBHOOK_SECRET"); v != "" {
		cfg.App.WebhookSecret = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDRS"); v != "" {
		cfg.Infra.Redis.Addrs = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v := os.Getenv("AUTH_BASE_URL"); v != "" {
		cfg.Infra.Auth.BaseURL = v
	}
	if v := os.Getenv("GUARD_DAILY_CEILING"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Guard.DailyRequestCeiling = n
		}
	}

	currentConfig.Store(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.SentinelSource = "b8shield_webshop"
	cfg.App.VatRatePercent = 25
	cfg.Guard.Classes = map[string]GuardClassConfig{
		"webhook": {Limit: 5, WindowMs: 60_000},
		"public":  {Limit: 100, WindowMs: 60_000},
		"admin":   {Limit: 30, WindowMs: 60_000},
	}
	cfg.Guard.BlacklistMultiplier = 10
	cfg.Guard.DailyRequestCeiling = 200_000
	cfg.Guard.Store = "memory"
	cfg.Budget.CostPerThousandRequests = 0.4
	cfg.Budget.DailyCostThreshold = 50
	cfg.Budget.MonthlyCostThreshold = 1000
	cfg.Budget.Schedule = "*/10 * * * *"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/b8shield?parseTime=true"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Kafka.NotificationTopic = "notifications"
	cfg.Infra.Auth.BaseURL = "http://localhost:9099"
	return cfg
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

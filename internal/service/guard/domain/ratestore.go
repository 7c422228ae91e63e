// internal/service/guard/domain/ratestore.go
package domain

import (
	"context"
	"time"
)

// DayKey 返回日聚合使用的日历键（UTC）。
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyStats 是单个日历日的流量聚合。
type DailyStats struct {
	TotalRequests    int64
	UniqueSourceKeys int64
}

// RateStore 是限流计数的出站端口。
// 实现要求：计数必须是存储级原子操作；当实现无法确定计数
// （存储不可达等），宁可高估也不可低估——防护层偏向多拦。
type RateStore interface {
	// Increment 对 key 在当前窗口内的计数加一，
	// 返回加一后的计数和当前窗口的剩余毫秒数。
	Increment(ctx context.Context, key string, windowMs int64) (count int64, remainingMs int64, err error)

	// IsBlacklisted 判断 key 是否已被拉黑。
	IsBlacklisted(ctx context.Context, key string) (bool, error)

	// Blacklist 把 key 拉黑，直到进程重启（memory）或键过期（redis）。
	Blacklist(ctx context.Context, key string) error

	// IncrementDaily 累加日历日聚合并返回累加后的总请求数。
	IncrementDaily(ctx context.Context, day, sourceKey string) (total int64, err error)

	// GetDailyStats 读取指定日历日的聚合。
	GetDailyStats(ctx context.Context, day string) (DailyStats, error)
}

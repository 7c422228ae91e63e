// internal/service/guard/infrastructure/redis_store.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"b8shield/internal/pkg/redis"
	"b8shield/internal/service/guard/domain"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const (
	scriptWindowIncr = "guard_window_incr"
	scriptDailyIncr  = "guard_daily_incr"

	// 黑名单与日聚合键的保留时间（秒）
	blacklistTTLSeconds = 86400
	dailyTTLSeconds     = 35 * 86400
)

// windowIncrScript 固定窗口计数：INCR + 首次写入时设置窗口过期。
// 返回 {count, 窗口剩余毫秒}。
const windowIncrScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// dailyIncrScript 日聚合：总数 INCR + 来源去重 SADD，同一脚本内原子完成。
const dailyIncrScript = `
local total = redis.call("INCR", KEYS[1])
redis.call("EXPIRE", KEYS[1], ARGV[2])
redis.call("SADD", KEYS[2], ARGV[1])
redis.call("EXPIRE", KEYS[2], ARGV[2])
return total
`

// RedisRateStore 是共享计数的 RateStore 实现，多实例部署时的换装件。
// 月成本聚合需要回看整月，日聚合键保留 35 天。
type RedisRateStore struct {
	client *redis.Client
}

func NewRedisRateStore(client *redis.Client) (*RedisRateStore, error) {
	if err := client.LoadScriptFromContent(scriptWindowIncr, windowIncrScript); err != nil {
		return nil, err
	}
	if err := client.LoadScriptFromContent(scriptDailyIncr, dailyIncrScript); err != nil {
		return nil, err
	}
	return &RedisRateStore{client: client}, nil
}

func (s *RedisRateStore) Increment(ctx context.Context, key string, windowMs int64) (int64, int64, error) {
	result, err := s.client.RunScript(ctx, scriptWindowIncr, []string{"guard:win:" + key}, windowMs)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "window increment failed for %s", key)
	}
	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, errors.Errorf("unexpected window increment reply: %v", result)
	}
	count, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	return count, remaining, nil
}

func (s *RedisRateStore) IsBlacklisted(ctx context.Context, key string) (bool, error) {
	n, err := s.client.GetClient().Exists(ctx, "guard:bl:"+key).Result()
	if err != nil {
		return false, errors.Wrapf(err, "blacklist check failed for %s", key)
	}
	return n > 0, nil
}

func (s *RedisRateStore) Blacklist(ctx context.Context, key string) error {
	// 拉黑不是永久处罚，到期自动解除
	err := s.client.GetClient().Set(ctx, "guard:bl:"+key, 1, blacklistTTLSeconds*time.Second).Err()
	if err != nil {
		return errors.Wrapf(err, "blacklist write failed for %s", key)
	}
	return nil
}

func (s *RedisRateStore) IncrementDaily(ctx context.Context, day, sourceKey string) (int64, error) {
	result, err := s.client.RunScript(ctx, scriptDailyIncr,
		[]string{dailyTotalKey(day), dailySourcesKey(day)},
		sourceKey, dailyTTLSeconds)
	if err != nil {
		return 0, errors.Wrapf(err, "daily increment failed for %s", day)
	}
	total, ok := result.(int64)
	if !ok {
		return 0, errors.Errorf("unexpected daily increment reply: %v", result)
	}
	return total, nil
}

func (s *RedisRateStore) GetDailyStats(ctx context.Context, day string) (domain.DailyStats, error) {
	rdb := s.client.GetClient()

	total, err := rdb.Get(ctx, dailyTotalKey(day)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.DailyStats{}, nil
		}
		return domain.DailyStats{}, errors.Wrapf(err, "daily total read failed for %s", day)
	}
	unique, err := rdb.SCard(ctx, dailySourcesKey(day)).Result()
	if err != nil {
		return domain.DailyStats{}, errors.Wrapf(err, "daily unique read failed for %s", day)
	}
	return domain.DailyStats{TotalRequests: total, UniqueSourceKeys: unique}, nil
}

func dailyTotalKey(day string) string   { return fmt.Sprintf("guard:day:%s:total", day) }
func dailySourcesKey(day string) string { return fmt.Sprintf("guard:day:%s:sources", day) }

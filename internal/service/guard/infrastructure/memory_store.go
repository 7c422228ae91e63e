// internal/service/guard/infrastructure/memory_store.go
package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"b8shield/internal/service/guard/domain"
)

// windowBucket 是单个 key 的固定窗口计数。
type windowBucket struct {
	mu          sync.Mutex
	windowStart int64 // unix ms
	count       int64
}

// dayAggregate 是单个日历日的聚合。
type dayAggregate struct {
	total       atomic.Int64
	uniqueCount atomic.Int64
	sources     sync.Map // sourceKey -> struct{}
}

// MemoryRateStore 是进程内的 RateStore 实现。
// 单实例部署下即正确；多实例时每实例独立计数，
// 表现为比配置更严格的限流（偏向多拦，可接受）。
// 黑名单保持到进程重启。
type MemoryRateStore struct {
	windows   sync.Map // key -> *windowBucket
	blacklist sync.Map // key -> struct{}
	days      sync.Map // day -> *dayAggregate

	nowFunc func() time.Time // 测试钩子
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{nowFunc: time.Now}
}

func (s *MemoryRateStore) Increment(_ context.Context, key string, windowMs int64) (int64, int64, error) {
	v, _ := s.windows.LoadOrStore(key, &windowBucket{})
	bucket := v.(*windowBucket)

	nowMs := s.nowFunc().UnixMilli()
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if nowMs-bucket.windowStart >= windowMs {
		bucket.windowStart = nowMs
		bucket.count = 0
	}
	bucket.count++
	remaining := windowMs - (nowMs - bucket.windowStart)
	return bucket.count, remaining, nil
}

func (s *MemoryRateStore) IsBlacklisted(_ context.Context, key string) (bool, error) {
	_, ok := s.blacklist.Load(key)
	return ok, nil
}

func (s *MemoryRateStore) Blacklist(_ context.Context, key string) error {
	s.blacklist.Store(key, struct{}{})
	return nil
}

func (s *MemoryRateStore) IncrementDaily(_ context.Context, day, sourceKey string) (int64, error) {
	v, _ := s.days.LoadOrStore(day, &dayAggregate{})
	agg := v.(*dayAggregate)

	if _, loaded := agg.sources.LoadOrStore(sourceKey, struct{}{}); !loaded {
		agg.uniqueCount.Add(1)
	}
	return agg.total.Add(1), nil
}

func (s *MemoryRateStore) GetDailyStats(_ context.Context, day string) (domain.DailyStats, error) {
	v, ok := s.days.Load(day)
	if !ok {
		return domain.DailyStats{}, nil
	}
	agg := v.(*dayAggregate)
	return domain.DailyStats{
		TotalRequests:    agg.total.Load(),
		UniqueSourceKeys: agg.uniqueCount.Load(),
	}, nil
}

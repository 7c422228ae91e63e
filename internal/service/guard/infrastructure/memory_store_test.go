// internal/service/guard/infrastructure/memory_store_test.go
package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreWindowCounting(t *testing.T) {
	store := NewMemoryRateStore()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		count, remaining, err := store.Increment(context.Background(), "k", 60_000)
		if err != nil {
			t.Fatal(err)
		}
		if count != want {
			t.Errorf("count = %d, want %d", count, want)
		}
		if remaining <= 0 || remaining > 60_000 {
			t.Errorf("remaining = %d ms", remaining)
		}
	}
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryRateStore()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if _, _, err := store.Increment(context.Background(), "k", 60_000); err != nil {
			t.Fatal(err)
		}
	}
	// 窗口翻转后从 1 重新计
	now = now.Add(61 * time.Second)
	count, _, err := store.Increment(context.Background(), "k", 60_000)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after rollover = %d, want 1", count)
	}
}

func TestMemoryStoreBlacklist(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	if listed, _ := store.IsBlacklisted(ctx, "k"); listed {
		t.Error("fresh key must not be blacklisted")
	}
	if err := store.Blacklist(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if listed, _ := store.IsBlacklisted(ctx, "k"); !listed {
		t.Error("blacklisted key not reported")
	}
}

func TestMemoryStoreDailyAggregates(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.IncrementDaily(ctx, "2026-09-01", "1.2.3.4"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.IncrementDaily(ctx, "2026-09-01", "5.6.7.8"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.IncrementDaily(ctx, "2026-09-02", "1.2.3.4"); err != nil {
		t.Fatal(err)
	}

	stats, err := store.GetDailyStats(ctx, "2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRequests != 4 {
		t.Errorf("total = %d, want 4", stats.TotalRequests)
	}
	if stats.UniqueSourceKeys != 2 {
		t.Errorf("unique = %d, want 2", stats.UniqueSourceKeys)
	}

	empty, err := store.GetDailyStats(ctx, "2026-08-31")
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalRequests != 0 || empty.UniqueSourceKeys != 0 {
		t.Errorf("untouched day = %+v, want zeros", empty)
	}
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	store := NewMemoryRateStore()
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := store.Increment(ctx, "k", 60_000); err != nil {
				t.Error(err)
			}
			if _, err := store.IncrementDaily(ctx, "2026-09-01", "1.2.3.4"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	count, _, err := store.Increment(ctx, "k", 60_000)
	if err != nil {
		t.Fatal(err)
	}
	if count != n+1 {
		t.Errorf("count = %d, want %d (no lost updates)", count, n+1)
	}
	stats, _ := store.GetDailyStats(ctx, "2026-09-01")
	if stats.TotalRequests != n {
		t.Errorf("daily total = %d, want %d", stats.TotalRequests, n)
	}
}

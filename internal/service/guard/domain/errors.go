// internal/service/guard/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited 当前窗口配额用尽。用 RateLimitedError 携带重试时间。
	ErrRateLimited = errors.New("guard: rate limited")

	// ErrBlacklisted 来源已被拉黑，硬拒绝。
	ErrBlacklisted = errors.New("guard: source blacklisted")

	// ErrBudgetExceeded 日上限或成本预算已触顶，全量拒绝到窗口翻转。
	ErrBudgetExceeded = errors.New("guard: request budget exceeded")
)

// RateLimitedError 携带客户端应等待的秒数。
// errors.Is(err, ErrRateLimited) 成立。
type RateLimitedError struct {
	RetryAfterSeconds int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("guard: rate limited, retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

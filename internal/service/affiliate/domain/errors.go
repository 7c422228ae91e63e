// internal/service/affiliate/domain/errors.go
package domain

import "errors"

var (
	// ErrAffiliateNotFound 推广码不存在或账号不是 active。
	// 归因链路里这是软失败：订单照常完成，佣金静默跳过。
	ErrAffiliateNotFound = errors.New("affiliate not found or not active")

	// ErrClickNotFound 点击记录不存在。
	ErrClickNotFound = errors.New("affiliate click not found")

	// ErrCampaignNotFound 活动不存在。
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrStoreUnavailable 存储暂时不可用。
	ErrStoreUnavailable = errors.New("affiliate store unavailable")
)

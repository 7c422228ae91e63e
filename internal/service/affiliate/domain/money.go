// internal/service/affiliate/domain/money.go
package domain

import "math"

// Round2 按“四舍五入、远离零”舍入到两位小数。
// 每个计算量只舍入一次，求和之后不再二次舍入，保证对账时金额可复核。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CommissionableBase 计算佣金基数：去掉运费、再去掉增值税的商品净值。
// vatRatePercent 是百分比（瑞典店面为 25）。
func CommissionableBase(orderTotal, shipping, vatRatePercent float64) float64 {
	return Round2((orderTotal - shipping) / (1 + vatRatePercent/100))
}

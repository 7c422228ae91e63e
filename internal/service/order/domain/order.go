// internal/service/order/domain/order.go
package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Source 标识订单是从哪条链路物化出来的。
type Source string

const (
	SourceB2CWebhook  Source = "b2c_webhook"  // 支付回调正常链路
	SourceB2CRecovery Source = "b2c_recovery" // 运维补单链路
	SourceB2B         Source = "b2b"          // 经销商后台下单
)

// CustomerInfo 是下单时结账页提交的客户信息。
type CustomerInfo struct {
	Email      string
	Name       string
	AccountID  string // 注册经销商（B2B）账号ID，可能为空
	CustomerID string // 注册消费者（B2C）账号ID，可能为空
}

// ShippingInfo 收货信息。补单链路中缺失的字段会被哨兵占位符填充。
type ShippingInfo struct {
	Address    string
	City       string
	PostalCode string
	Country    string
}

// LineItem 是订单中的一行商品。
// Total 永远由 UnitPrice × Quantity 重新计算，不信任客户端传来的行金额。
type LineItem struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice float64
	Total     float64
	Color     string
	Size      string
}

// Financials 是订单的金额快照，物化之后不再单独修改。
type Financials struct {
	Subtotal       float64
	Shipping       float64
	VAT            float64
	DiscountAmount float64
	Total          float64
}

// PaymentInfo 保存支付方信息。ProviderRef 是整条管道的幂等键。
type PaymentInfo struct {
	Method      string
	ProviderRef string
	Amount      float64
	Currency    string
	Status      string
}

// AffiliateRef 是下单时携带的推广归因信息。
type AffiliateRef struct {
	Code               string
	ClickID            string
	DiscountPercentage float64
}

// Order 是订单聚合的根实体。
// 不变式：同一个 Payment.ProviderRef 至多存在一个 Order。
type Order struct {
	ID          string
	OrderNumber string
	Source      Source
	Status      Status
	Customer    CustomerInfo
	Shipping    ShippingInfo
	Items       []LineItem
	Financials  Financials
	Payment     PaymentInfo
	Affiliate   *AffiliateRef

	// RequiresFollowup 标记补单链路写入的哨兵占位字段需要人工补全。
	RequiresFollowup bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 是订单的工厂函数，从验证过的支付事件和结账元数据构造聚合。
func NewOrder(event *PaymentEvent, meta *CheckoutMetadata, source Source) (*Order, error) {
	if event.ProviderPaymentRef == "" {
		return nil, ErrMalformedMetadata
	}
	now := time.Now()
	order := &Order{
		ID:          uuid.New().String(),
		OrderNumber: GenerateOrderNumber(now),
		Source:      source,
		Status:      StatusConfirmed,
		Customer: CustomerInfo{
			Email:      meta.CustomerEmail,
			Name:       meta.CustomerName,
			AccountID:  meta.AccountID,
			CustomerID: meta.CustomerID,
		},
		Shipping: meta.Shipping,
		Items:    meta.Items,
		Financials: Financials{
			Subtotal:       meta.Subtotal,
			Shipping:       meta.ShippingCost,
			VAT:            meta.VAT,
			DiscountAmount: meta.DiscountAmount,
			Total:          meta.Total,
		},
		Payment: PaymentInfo{
			Method:      "card",
			ProviderRef: event.ProviderPaymentRef,
			Amount:      float64(event.AmountMinorUnits) / 100,
			Currency:    event.Currency,
			Status:      event.Status,
		},
		RequiresFollowup: meta.RequiresFollowup,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if meta.AffiliateCode != "" {
		order.Affiliate = &AffiliateRef{
			Code:               meta.AffiliateCode,
			ClickID:            meta.AffiliateClickID,
			DiscountPercentage: meta.DiscountPercentage,
		}
	}
	return order, nil
}

const orderNumberSuffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderNumber 生成对人友好的订单号：B8-<yymmdd>-<5位随机后缀>。
// 它只用于展示和客服沟通，去重靠的是 Payment.ProviderRef，不是订单号。
func GenerateOrderNumber(t time.Time) string {
	suffix := make([]byte, 5)
	max := big.NewInt(int64(len(orderNumberSuffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand 失败时退化为时间戳低位，碰撞概率可接受
			n = big.NewInt(time.Now().UnixNano() % int64(len(orderNumberSuffixAlphabet)))
		}
		suffix[i] = orderNumberSuffixAlphabet[n.Int64()]
	}
	return fmt.Sprintf("B8-%s-%s", t.Format("060102"), string(suffix))
}

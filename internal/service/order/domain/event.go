// internal/service/order/domain/event.go
package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PaymentEvent 是验签之后归一化出来的支付事件值对象。
// 它本身不持久化，只用于物化订单。
type PaymentEvent struct {
	EventID            string
	ProviderPaymentRef string
	AmountMinorUnits   int64
	Currency           string
	Status             string // succeeded | failed | ...
	Metadata           map[string]string
}

const PaymentStatusSucceeded = "succeeded"

// 结账时店面序列化进 metadata 的键
const (
	MetaKeySource             = "source"
	MetaKeyCustomerEmail      = "customerEmail"
	MetaKeyCustomerName       = "customerName"
	MetaKeyAccountID          = "accountId"
	MetaKeyCustomerID         = "customerId"
	MetaKeyItemDetails        = "itemDetails"
	MetaKeySubtotal           = "subtotal"
	MetaKeyShipping           = "shipping"
	MetaKeyVAT                = "vat"
	MetaKeyDiscountAmount     = "discountAmount"
	MetaKeyTotal              = "total"
	MetaKeyAffiliateCode      = "affiliateCode"
	MetaKeyAffiliateClickID   = "affiliateClickId"
	MetaKeyDiscountCode       = "discountCode"
	MetaKeyDiscountPercentage = "discountPercentage"
	MetaKeyShippingAddress    = "shippingAddress"
	MetaKeyShippingCity       = "shippingCity"
	MetaKeyShippingPostal     = "shippingPostalCode"
	MetaKeyShippingCountry    = "shippingCountry"
	MetaKeyRequiresFollowup   = "requiresFollowup"
)

// CheckoutMetadata 是从事件 metadata 解析出来的结构化结账数据。
type CheckoutMetadata struct {
	Source             string
	CustomerEmail      string
	CustomerName       string
	AccountID          string
	CustomerID         string
	Items              []LineItem
	Subtotal           float64
	ShippingCost       float64
	VAT                float64
	DiscountAmount     float64
	Total              float64
	AffiliateCode      string
	AffiliateClickID   string
	DiscountCode       string
	DiscountPercentage float64
	Shipping           ShippingInfo
	RequiresFollowup   bool
}

// itemPayload 是店面在 itemDetails 里序列化的单行商品。
// price 可能是数字也可能是字符串，两种都要接。
type itemPayload struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity int             `json:"quantity"`
	Color    string          `json:"color"`
	Size     string          `json:"size"`
}

// ParseCheckoutMetadata 校验并解析事件携带的结账元数据。
// customerEmail 缺失或 itemDetails 不可解析都是硬性拒绝 (ErrMalformedMetadata)：
// 一个少算了钱的订单比没有订单更糟。
func ParseCheckoutMetadata(metadata map[string]string) (*CheckoutMetadata, error) {
	email := strings.TrimSpace(metadata[MetaKeyCustomerEmail])
	if email == "" {
		return nil, errors.Wrap(ErrMalformedMetadata, "customerEmail is missing")
	}

	rawItems := metadata[MetaKeyItemDetails]
	if strings.TrimSpace(rawItems) == "" {
		return nil, errors.Wrap(ErrMalformedMetadata, "itemDetails is missing")
	}
	var payloads []itemPayload
	if err := json.Unmarshal([]byte(rawItems), &payloads); err != nil {
		return nil, errors.Wrapf(ErrMalformedMetadata, "itemDetails is not a valid item array: %v", err)
	}
	if len(payloads) == 0 {
		return nil, errors.Wrap(ErrMalformedMetadata, "itemDetails is empty")
	}

	items := make([]LineItem, 0, len(payloads))
	for i, p := range payloads {
		price, err := parseFlexibleDecimal(p.Price)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedMetadata, "item %d has unparseable price: %v", i, err)
		}
		if p.Quantity <= 0 {
			p.Quantity = 1
		}
		items = append(items, LineItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: price,
			// 行金额永远重新计算，客户端传来的值一律忽略
			Total: price * float64(p.Quantity),
			Color: p.Color,
			Size:  p.Size,
		})
	}

	meta := &CheckoutMetadata{
		Source:           metadata[MetaKeySource],
		CustomerEmail:    email,
		CustomerName:     metadata[MetaKeyCustomerName],
		AccountID:        metadata[MetaKeyAccountID],
		CustomerID:       metadata[MetaKeyCustomerID],
		Items:            items,
		AffiliateCode:    metadata[MetaKeyAffiliateCode],
		AffiliateClickID: metadata[MetaKeyAffiliateClickID],
		DiscountCode:     metadata[MetaKeyDiscountCode],
		Shipping: ShippingInfo{
			Address:    metadata[MetaKeyShippingAddress],
			City:       metadata[MetaKeyShippingCity],
			PostalCode: metadata[MetaKeyShippingPostal],
			Country:    metadata[MetaKeyShippingCountry],
		},
		RequiresFollowup: metadata[MetaKeyRequiresFollowup] == "true",
	}

	var err error
	if meta.Subtotal, err = parseDecimalField(metadata, MetaKeySubtotal); err != nil {
		return nil, err
	}
	if meta.ShippingCost, err = parseDecimalField(metadata, MetaKeyShipping); err != nil {
		return nil, err
	}
	if meta.VAT, err = parseDecimalField(metadata, MetaKeyVAT); err != nil {
		return nil, err
	}
	if meta.DiscountAmount, err = parseDecimalField(metadata, MetaKeyDiscountAmount); err != nil {
		return nil, err
	}
	if meta.Total, err = parseDecimalField(metadata, MetaKeyTotal); err != nil {
		return nil, err
	}
	if raw := metadata[MetaKeyDiscountPercentage]; raw != "" {
		if meta.DiscountPercentage, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, errors.Wrapf(ErrMalformedMetadata, "discountPercentage %q is not a number", raw)
		}
	}

	return meta, nil
}

// parseDecimalField 解析十进制字符串字段，空值按 0 处理。
func parseDecimalField(metadata map[string]string, key string) (float64, error) {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedMetadata, "%s %q is not a decimal string", key, raw)
	}
	return v, nil
}

func parseFlexibleDecimal(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.New("empty price")
	}
	s := strings.Trim(string(raw), `"`)
	return strconv.ParseFloat(s, 64)
}

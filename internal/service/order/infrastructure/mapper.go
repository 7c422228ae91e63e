// internal/service/order/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"b8shield/internal/service/order/domain"
)

// ToOrderModel 将领域聚合转换为数据库模型。
func ToOrderModel(order *domain.Order) (*OrderModel, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, err
	}

	model := &OrderModel{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		Source:             string(order.Source),
		Status:             string(order.Status),
		CustomerEmail:      order.Customer.Email,
		CustomerName:       order.Customer.Name,
		CustomerAccountID:  order.Customer.AccountID,
		CustomerCustomerID: order.Customer.CustomerID,
		ShippingAddress:    order.Shipping.Address,
		ShippingCity:       order.Shipping.City,
		ShippingPostalCode: order.Shipping.PostalCode,
		ShippingCountry:    order.Shipping.Country,
		Items:              string(items),
		Subtotal:           order.Financials.Subtotal,
		ShippingCost:       order.Financials.Shipping,
		VAT:                order.Financials.VAT,
		DiscountAmount:     order.Financials.DiscountAmount,
		Total:              order.Financials.Total,
		PaymentMethod:      order.Payment.Method,
		ProviderRef:        order.Payment.ProviderRef,
		PaymentAmount:      order.Payment.Amount,
		PaymentCurrency:    order.Payment.Currency,
		PaymentStatus:      order.Payment.Status,
		RequiresFollowup:   order.RequiresFollowup,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	if order.Affiliate != nil {
		model.AffiliateCode = order.Affiliate.Code
		model.AffiliateClickID = order.Affiliate.ClickID
		model.AffiliateDiscount = order.Affiliate.DiscountPercentage
	}
	return model, nil
}

// ToDomainOrder 将数据库模型还原为领域聚合。
func ToDomainOrder(model *OrderModel) (*domain.Order, error) {
	var items []domain.LineItem
	if model.Items != "" {
		if err := json.Unmarshal([]byte(model.Items), &items); err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		ID:          model.ID,
		OrderNumber: model.OrderNumber,
		Source:      domain.Source(model.Source),
		Status:      domain.Status(model.Status),
		Customer: domain.CustomerInfo{
			Email:      model.CustomerEmail,
			Name:       model.CustomerName,
			AccountID:  model.CustomerAccountID,
			CustomerID: model.CustomerCustomerID,
		},
		Shipping: domain.ShippingInfo{
			Address:    model.ShippingAddress,
			City:       model.ShippingCity,
			PostalCode: model.ShippingPostalCode,
			Country:    model.ShippingCountry,
		},
		Items: items,
		Financials: domain.Financials{
			Subtotal:       model.Subtotal,
			Shipping:       model.ShippingCost,
			VAT:            model.VAT,
			DiscountAmount: model.DiscountAmount,
			Total:          model.Total,
		},
		Payment: domain.PaymentInfo{
			Method:      model.PaymentMethod,
			ProviderRef: model.ProviderRef,
			Amount:      model.PaymentAmount,
			Currency:    model.PaymentCurrency,
			Status:      model.PaymentStatus,
		},
		RequiresFollowup: model.RequiresFollowup,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
	if model.AffiliateCode != "" {
		order.Affiliate = &domain.AffiliateRef{
			Code:               model.AffiliateCode,
			ClickID:            model.AffiliateClickID,
			DiscountPercentage: model.AffiliateDiscount,
		}
	}
	return order, nil
}

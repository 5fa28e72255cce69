package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:        {OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:           {OrderStatusInProduction, OrderStatusCancelled},
		OrderStatusInProduction:   {OrderStatusShipped, OrderStatusReadyForPickup},
		OrderStatusShipped:        {OrderStatusDelivered},
		OrderStatusReadyForPickup: {OrderStatusDelivered},
		OrderStatusDelivered:      nil,
		OrderStatusCancelled:      nil,
	}
	all := []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusInProduction,
		OrderStatusShipped,
		OrderStatusReadyForPickup,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	for from, targets := range allowed {
		ok := make(map[OrderStatus]bool, len(targets))
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			assert.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.False(t, OrderStatus("refunded").CanTransitionTo(OrderStatusPaid))
	assert.False(t, OrderStatus("refunded").IsValid())
}

func TestEnumsIsValid(t *testing.T) {
	assert.True(t, PricingModePerArea.IsValid())
	assert.False(t, PricingMode("per_sheet").IsValid())
	assert.True(t, DeliveryTypeDelivery.IsValid())
	assert.False(t, DeliveryType("courier").IsValid())
	assert.True(t, ArtOptionCreateForMe.IsValid())
	assert.False(t, ArtOption("").IsValid())
	assert.True(t, PaymentMethodBoleto.IsValid())
	assert.False(t, PaymentMethod("paypal").IsValid())
}

func TestProduct_UnitPrice(t *testing.T) {
	price := decimal.RequireFromString("45.90")
	zero := decimal.Zero

	p := &Product{PricingMode: PricingModePerArea, PricePerArea: &price}
	got, ok := p.UnitPrice()
	assert.True(t, ok)
	assert.True(t, got.Equal(price))

	// A fixed price on a per-area product does not count.
	p = &Product{PricingMode: PricingModePerArea, FixedPrice: &price}
	_, ok = p.UnitPrice()
	assert.False(t, ok)

	p = &Product{PricingMode: PricingModeFixedUnit, FixedPrice: &zero}
	_, ok = p.UnitPrice()
	assert.False(t, ok)
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog entry
type Product struct {
	ID           uuid.UUID
	Name         string
	Description  string
	Category     string
	PricingMode  PricingMode
	PricePerArea *decimal.Decimal // required for per_area
	FixedPrice   *decimal.Decimal // required for fixed_unit
	MaxWidth     *decimal.Decimal
	MaxHeight    *decimal.Decimal
	ImageURLs    []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UnitPrice returns the stored price that applies to the product's pricing mode.
func (p *Product) UnitPrice() (decimal.Decimal, bool) {
	switch p.PricingMode {
	case PricingModePerArea:
		if p.PricePerArea != nil && p.PricePerArea.IsPositive() {
			return *p.PricePerArea, true
		}
	case PricingModeFixedUnit:
		if p.FixedPrice != nil && p.FixedPrice.IsPositive() {
			return *p.FixedPrice, true
		}
	}
	return decimal.Zero, false
}

// Order represents a persisted storefront order
type Order struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Status               OrderStatus
	DeliveryType         DeliveryType
	Subtotal             decimal.Decimal
	ArtCreationFee       decimal.Decimal
	ShippingCost         decimal.Decimal
	Total                decimal.Decimal
	ShippingAddress      string
	PaymentMethod        PaymentMethod
	PaymentID            *string
	ShippingCarrier      string
	ShippingService      string
	ShippingDeliveryDays int
	IdempotencyKey       *string
	RequestHash          *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderItem represents one cart line frozen at order creation
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	LineIndex      int // position in the submitted cart
	ProductID      uuid.UUID
	ProductName    string
	PricingMode    PricingMode
	UnitPrice      decimal.Decimal
	Width          *decimal.Decimal
	Height         *decimal.Decimal
	Area           *decimal.Decimal
	Quantity       *int
	LineTotal      decimal.Decimal
	ArtOption      ArtOption
	ArtFile        *string
	ArtCreationFee decimal.Decimal
	CreatedAt      time.Time
}

// ShippingOption is a quote returned by the rate resolver; never persisted on its own
type ShippingOption struct {
	ID           string          `json:"id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	DeliveryDays int             `json:"deliveryDays"`
	Price        decimal.Decimal `json:"price"`
	Discount     decimal.Decimal `json:"discount"`
	FinalPrice   decimal.Decimal `json:"finalPrice"`
}

// Setting is an admin-managed key/value entry
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// Setting keys read by the shipping resolver.
const (
	SettingShippingToken       = "melhor_envio_token"
	SettingShippingEnvironment = "melhor_envio_environment"
)

// Event types recorded for orders.
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "status_change"
	EventPaymentCreated     = "payment_created"
)

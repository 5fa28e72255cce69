package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/payments"
)

// ShippingCalculateRequest represents the shipping quote payload
type ShippingCalculateRequest struct {
	DestinationCEP string   `json:"destinationCEP" binding:"required"`
	PackageDetails *Package `json:"packageDetails,omitempty"`
}

// ShippingQuote is the resolver output
type ShippingQuote struct {
	Options        []domain.ShippingOption `json:"options"`
	OriginCEP      string                  `json:"originCEP"`
	Fallback       bool                    `json:"fallback,omitempty"`
	FallbackReason string                  `json:"fallbackReason,omitempty"`
}

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items                []CartLineInput      `json:"items" binding:"required,min=1,dive"`
	DeliveryType         domain.DeliveryType  `json:"deliveryType" binding:"required"`
	ShippingAddress      string               `json:"shippingAddress"`
	PaymentMethod        domain.PaymentMethod `json:"paymentMethod" binding:"required"`
	Subtotal             decimal.Decimal      `json:"subtotal"`
	ArtCreationFee       decimal.Decimal      `json:"artCreationFee"`
	Shipping             decimal.Decimal      `json:"shipping"`
	Total                decimal.Decimal      `json:"total"`
	ShippingCarrier      string               `json:"shippingCarrier,omitempty"`
	ShippingService      string               `json:"shippingService,omitempty"`
	ShippingDeliveryDays *int                 `json:"shippingDeliveryDays,omitempty"`
}

// CartLineInput is one client cart line. Which of the dimension or quantity
// fields apply is decided by the product, not by the client.
type CartLineInput struct {
	ProductID      uuid.UUID        `json:"productId" binding:"required"`
	Width          *decimal.Decimal `json:"width,omitempty"`
	Height         *decimal.Decimal `json:"height,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	ArtOption      domain.ArtOption `json:"artOption" binding:"required"`
	ArtFile        *string          `json:"artFile,omitempty"`
	ArtCreationFee *decimal.Decimal `json:"artCreationFee,omitempty"`
}

// OrderWithItems is an order together with its items
type OrderWithItems struct {
	Order *domain.Order
	Items []*domain.OrderItem
}

// Requester is the authenticated caller of an operation
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (r Requester) canAccess(order *domain.Order) bool {
	return r.IsAdmin || order.UserID == r.UserID
}

// CardPaymentRequest represents the synchronous card payment payload
type CardPaymentRequest struct {
	OrderID         uuid.UUID      `json:"orderId" binding:"required"`
	Token           string         `json:"token" binding:"required"`
	PaymentMethodID string         `json:"paymentMethodId"`
	Installments    int            `json:"installments"`
	Payer           payments.Payer `json:"payer"`
}

// PixPaymentRequest represents the PIX payload
type PixPaymentRequest struct {
	OrderID uuid.UUID      `json:"orderId" binding:"required"`
	Payer   payments.Payer `json:"payer"`
}

// BoletoPaymentRequest represents the boleto payload
type BoletoPaymentRequest struct {
	OrderID uuid.UUID      `json:"orderId" binding:"required"`
	Payer   payments.Payer `json:"payer"`
}

// PaymentOutcome is the gateway response plus the refreshed order
type PaymentOutcome struct {
	Payment *payments.PaymentResult
	Order   *domain.Order
}

// WebhookEvent is a gateway notification
type WebhookEvent struct {
	Type   string
	Action string
	DataID string
}

// WebhookResult reports what a notification did to its order
type WebhookResult struct {
	OrderID uuid.UUID
	Status  domain.OrderStatus
	Changed bool
	Ignored bool
}

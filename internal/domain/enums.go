package domain

// OrderStatus represents the status of a storefront order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusInProduction   OrderStatus = "in_production"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusPaid,
		OrderStatusInProduction,
		OrderStatusShipped,
		OrderStatusReadyForPickup,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusPaid ||
			newStatus == OrderStatusCancelled
	case OrderStatusPaid:
		return newStatus == OrderStatusInProduction ||
			newStatus == OrderStatusCancelled
	case OrderStatusInProduction:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusReadyForPickup
	case OrderStatusShipped, OrderStatusReadyForPickup:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PricingMode selects how a product line is priced
type PricingMode string

const (
	PricingModePerArea   PricingMode = "per_area"
	PricingModeFixedUnit PricingMode = "fixed_unit"
)

func (m PricingMode) IsValid() bool {
	return m == PricingModePerArea || m == PricingModeFixedUnit
}

// DeliveryType is how the customer receives the order
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

func (d DeliveryType) IsValid() bool {
	return d == DeliveryTypePickup || d == DeliveryTypeDelivery
}

// ArtOption is how the artwork for a line is provided
type ArtOption string

const (
	ArtOptionUpload      ArtOption = "upload"
	ArtOptionCreateForMe ArtOption = "create_for_me"
)

func (a ArtOption) IsValid() bool {
	return a == ArtOptionUpload || a == ArtOptionCreateForMe
}

// PaymentMethod is the payment flow chosen at checkout
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPix    PaymentMethod = "pix"
	PaymentMethodBoleto PaymentMethod = "boleto"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCard, PaymentMethodPix, PaymentMethodBoleto:
		return true
	default:
		return false
	}
}

// Pickup sentinels copied onto orders collected in person.
const (
	PickupCarrier = "pickup"
	PickupService = "in-person"
	PickupDays    = 0
)

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

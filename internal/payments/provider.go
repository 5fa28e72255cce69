// Package payments defines the contract between the payment dispatcher and a
// payment gateway.
package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printhouse/storefront/internal/domain"
)

// Gateway creates and looks up payments at an external provider.
type Gateway interface {
	Name() string
	Supports(method domain.PaymentMethod) bool
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	GetPayment(ctx context.Context, id string) (*PaymentResult, error)
}

// Payer identifies the customer for the gateway. Boleto requires a document.
type Payer struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
}

// PaymentRequest is the gateway-neutral payment creation input.
type PaymentRequest struct {
	Method            domain.PaymentMethod
	Amount            decimal.Decimal
	Currency          string
	Description       string
	ExternalReference string
	IdempotencyKey    string
	NotificationURL   string
	Payer             Payer

	// Card only.
	CardToken     string
	CardBrand     string
	Installments  int
	PaymentMethod string
}

// Status is the gateway-reported payment state.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusAuthorized  Status = "authorized"
	StatusPending     Status = "pending"
	StatusInProcess   Status = "in_process"
	StatusInMediation Status = "in_mediation"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusRefunded    Status = "refunded"
	StatusChargedBack Status = "charged_back"
)

// OrderStatus maps a gateway status onto the order state machine. The second
// return is false when the payment is still open and the order must not move.
func (s Status) OrderStatus() (domain.OrderStatus, bool) {
	switch s {
	case StatusApproved:
		return domain.OrderStatusPaid, true
	case StatusRejected, StatusCancelled, StatusRefunded, StatusChargedBack:
		return domain.OrderStatusCancelled, true
	default:
		return "", false
	}
}

// PaymentResult is what the gateway reported for a payment.
type PaymentResult struct {
	ID                string               `json:"id"`
	Provider          string               `json:"provider"`
	Method            domain.PaymentMethod `json:"method"`
	Status            Status               `json:"status"`
	StatusDetail      string               `json:"statusDetail,omitempty"`
	ExternalReference string               `json:"externalReference"`
	Amount            decimal.Decimal      `json:"amount"`

	PixQRCode       string `json:"pixQrCode,omitempty"`
	PixQRCodeBase64 string `json:"pixQrCodeBase64,omitempty"`
	TicketURL       string `json:"ticketUrl,omitempty"`
	BoletoURL       string `json:"boletoUrl,omitempty"`
	BarcodeContent  string `json:"barcode,omitempty"`

	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/money"
	"github.com/printhouse/storefront/internal/payments"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

// AccessTokenKey names the setting that holds the API access token.
const AccessTokenKey = "MERCADOPAGO_ACCESS_TOKEN"

const (
	providerName = "mercadopago"
	paymentsPath = "/v1/payments"

	methodPix    = "pix"
	methodBoleto = "bolbradesco"
)

// PaymentRequest is the body of POST /v1/payments
type PaymentRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description,omitempty"`
	PaymentMethodID   string  `json:"payment_method_id"`
	Token             string  `json:"token,omitempty"`
	Installments      int     `json:"installments,omitempty"`
	ExternalReference string  `json:"external_reference"`
	NotificationURL   string  `json:"notification_url,omitempty"`
	Payer             Payer   `json:"payer"`
}

type Payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// Payment is the API payment resource, trimmed to the fields used here.
type Payment struct {
	ID                 int64           `json:"id"`
	Status             string          `json:"status"`
	StatusDetail       string          `json:"status_detail"`
	ExternalReference  string          `json:"external_reference"`
	PaymentMethodID    string          `json:"payment_method_id"`
	TransactionAmount  decimal.Decimal `json:"transaction_amount"`
	DateOfExpiration   *time.Time      `json:"date_of_expiration,omitempty"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
	TransactionDetails struct {
		ExternalResourceURL string `json:"external_resource_url"`
	} `json:"transaction_details"`
	Barcode struct {
		Content string `json:"content"`
	} `json:"barcode"`
}

// CreatePayment calls POST /v1/payments
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest, idempotencyKey string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodPost, paymentsPath, req, idempotencyKey, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPayment calls GET /v1/payments/{id}
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, paymentsPath+"/"+id, nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Gateway adapts the client to payments.Gateway. It supports card, PIX and
// boleto.
type Gateway struct {
	client *Client
	logger *zap.Logger
}

func NewGateway(client *Client, logger *zap.Logger) *Gateway {
	return &Gateway{client: client, logger: logger}
}

func (g *Gateway) Name() string { return providerName }

func (g *Gateway) Supports(method domain.PaymentMethod) bool {
	return method.IsValid()
}

func (g *Gateway) CreatePayment(ctx context.Context, req payments.PaymentRequest) (*payments.PaymentResult, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}

	body := PaymentRequest{
		TransactionAmount: money.Round2(req.Amount).InexactFloat64(),
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		Payer: Payer{
			Email:     req.Payer.Email,
			FirstName: req.Payer.FirstName,
			LastName:  req.Payer.LastName,
		},
	}
	if req.Payer.DocumentNumber != "" {
		docType := strings.ToUpper(req.Payer.DocumentType)
		if docType == "" {
			docType = "CPF"
		}
		body.Payer.Identification = &Identification{Type: docType, Number: req.Payer.DocumentNumber}
	}

	switch req.Method {
	case domain.PaymentMethodPix:
		body.PaymentMethodID = methodPix
	case domain.PaymentMethodBoleto:
		body.PaymentMethodID = methodBoleto
	case domain.PaymentMethodCard:
		if req.PaymentMethod == "" {
			return nil, &apperrors.ErrValidation{Field: "paymentMethodId", Message: "card brand is required"}
		}
		body.PaymentMethodID = req.PaymentMethod
		body.Token = req.CardToken
		body.Installments = req.Installments
	default:
		return nil, &apperrors.ErrValidation{Field: "paymentMethod", Message: fmt.Sprintf("payment method not supported: %s", req.Method)}
	}

	p, err := g.client.CreatePayment(ctx, body, req.IdempotencyKey)
	if err != nil {
		return nil, g.wrap("create payment failed", err)
	}

	return toResult(p, req.Method), nil
}

func (g *Gateway) GetPayment(ctx context.Context, id string) (*payments.PaymentResult, error) {
	if err := g.checkConfigured(); err != nil {
		return nil, err
	}
	// Payment ids are numeric; anything else never reaches the URL path.
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, &apperrors.ErrValidation{Field: "data.id", Message: "payment id must be numeric"}
	}

	p, err := g.client.GetPayment(ctx, id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, &apperrors.ErrNotFound{Resource: "payment", ID: id}
		}
		return nil, g.wrap("get payment failed", err)
	}

	return toResult(p, methodFromID(p.PaymentMethodID)), nil
}

// checkConfigured fails without a network call when no access token is set.
func (g *Gateway) checkConfigured() error {
	if strings.TrimSpace(g.client.accessToken) == "" {
		g.logger.Error("Mercado Pago access token is not configured")
		return &apperrors.ErrConfiguration{Key: AccessTokenKey}
	}
	return nil
}

func (g *Gateway) wrap(msg string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &apperrors.ErrExternalService{Service: providerName, Message: apiErr.Error()}
	}
	return &apperrors.ErrExternalService{Service: providerName, Message: msg, Err: err}
}

func toResult(p *Payment, method domain.PaymentMethod) *payments.PaymentResult {
	res := &payments.PaymentResult{
		ID:                strconv.FormatInt(p.ID, 10),
		Provider:          providerName,
		Method:            method,
		Status:            payments.Status(p.Status),
		StatusDetail:      p.StatusDetail,
		ExternalReference: p.ExternalReference,
		Amount:            p.TransactionAmount,
		ExpiresAt:         p.DateOfExpiration,
	}

	switch method {
	case domain.PaymentMethodPix:
		data := p.PointOfInteraction.TransactionData
		res.PixQRCode = data.QRCode
		res.PixQRCodeBase64 = data.QRCodeBase64
		res.TicketURL = data.TicketURL
	case domain.PaymentMethodBoleto:
		res.BoletoURL = p.TransactionDetails.ExternalResourceURL
		res.BarcodeContent = p.Barcode.Content
	}
	return res
}

func methodFromID(id string) domain.PaymentMethod {
	switch id {
	case methodPix:
		return domain.PaymentMethodPix
	case methodBoleto:
		return domain.PaymentMethodBoleto
	default:
		return domain.PaymentMethodCard
	}
}

// Package stripepay is a card-only payment gateway backed by Stripe
// PaymentIntents.
package stripepay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/money"
	"github.com/printhouse/storefront/internal/payments"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

const (
	providerName = "stripe"
	metaOrderID  = "order_id"
)

type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Config configures the gateway
type Config struct {
	SecretKey string
	Currency  string
	Backends  *stripe.Backends

	intents paymentIntentAPI
}

type Gateway struct {
	intents  paymentIntentAPI
	currency string
	logger   *zap.Logger
}

// NewGateway creates a Stripe card gateway
func NewGateway(cfg Config, logger *zap.Logger) (*Gateway, error) {
	intents := cfg.intents
	if intents == nil {
		key := strings.TrimSpace(cfg.SecretKey)
		if key == "" {
			return nil, &apperrors.ErrConfiguration{Key: "STRIPE_SECRET_KEY"}
		}
		intents = client.New(key, cfg.Backends).PaymentIntents
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "brl"
	}

	return &Gateway{intents: intents, currency: currency, logger: logger}, nil
}

func (g *Gateway) Name() string { return providerName }

func (g *Gateway) Supports(method domain.PaymentMethod) bool {
	return method == domain.PaymentMethodCard
}

// CreatePayment creates and confirms a PaymentIntent for the card token.
func (g *Gateway) CreatePayment(ctx context.Context, req payments.PaymentRequest) (*payments.PaymentResult, error) {
	if !g.Supports(req.Method) {
		return nil, &apperrors.ErrValidation{Field: "paymentMethod", Message: fmt.Sprintf("payment method not supported: %s", req.Method)}
	}

	currency := g.currency
	if req.Currency != "" {
		currency = strings.ToLower(req.Currency)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(money.ToCents(req.Amount)),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(req.CardToken),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.AddMetadata(metaOrderID, req.ExternalReference)
	if req.Payer.Email != "" {
		params.ReceiptEmail = stripe.String(req.Payer.Email)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		// Declines come back as card errors carrying the failed intent.
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard && stripeErr.PaymentIntent != nil {
			result := toResult(stripeErr.PaymentIntent)
			result.Status = payments.StatusRejected
			result.StatusDetail = declineDetail(stripeErr)
			if result.ExternalReference == "" {
				result.ExternalReference = req.ExternalReference
			}
			return result, nil
		}
		return nil, &apperrors.ErrExternalService{Service: providerName, Message: "create payment intent failed", Err: err}
	}

	g.logger.Info("Stripe payment intent created",
		zap.String("payment_intent", intent.ID),
		zap.String("status", string(intent.Status)),
	)

	return toResult(intent), nil
}

func (g *Gateway) GetPayment(ctx context.Context, id string) (*payments.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := g.intents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404 {
			return nil, &apperrors.ErrNotFound{Resource: "payment", ID: id}
		}
		return nil, &apperrors.ErrExternalService{Service: providerName, Message: "get payment intent failed", Err: err}
	}
	return toResult(intent), nil
}

func toResult(intent *stripe.PaymentIntent) *payments.PaymentResult {
	return &payments.PaymentResult{
		ID:                intent.ID,
		Provider:          providerName,
		Method:            domain.PaymentMethodCard,
		Status:            mapStatus(intent.Status),
		StatusDetail:      string(intent.Status),
		ExternalReference: intent.Metadata[metaOrderID],
		Amount:            decimal.New(intent.Amount, -2),
	}
}

func mapStatus(s stripe.PaymentIntentStatus) payments.Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return payments.StatusApproved
	case stripe.PaymentIntentStatusProcessing:
		return payments.StatusInProcess
	case stripe.PaymentIntentStatusRequiresCapture:
		return payments.StatusAuthorized
	case stripe.PaymentIntentStatusCanceled:
		return payments.StatusCancelled
	default:
		return payments.StatusPending
	}
}

func declineDetail(err *stripe.Error) string {
	if err.DeclineCode != "" {
		return string(err.DeclineCode)
	}
	if err.Code != "" {
		return string(err.Code)
	}
	return err.Msg
}

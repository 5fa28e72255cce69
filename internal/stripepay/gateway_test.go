package stripepay

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/payments"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

type fakeIntents struct {
	created *stripe.PaymentIntentParams
	intent  *stripe.PaymentIntent
	newErr  error
	getErr  error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.created = params
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.intent, nil
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.intent, nil
}

func newTestGateway(t *testing.T, intents *fakeIntents) *Gateway {
	t.Helper()
	g, err := NewGateway(Config{Currency: "BRL", intents: intents}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestGateway_CreatePayment(t *testing.T) {
	intents := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:       "pi_123",
		Amount:   17213,
		Status:   stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{"order_id": "order-1"},
	}}
	g := newTestGateway(t, intents)

	res, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method:            domain.PaymentMethodCard,
		Amount:            decimal.RequireFromString("172.13"),
		Description:       "Print order order-1",
		ExternalReference: "order-1",
		IdempotencyKey:    "order-order-1-card",
		CardToken:         "pm_card_visa",
		Payer:             payments.Payer{Email: "ana@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", res.ID)
	assert.Equal(t, payments.StatusApproved, res.Status)
	assert.Equal(t, "order-1", res.ExternalReference)
	assert.Equal(t, "172.13", res.Amount.StringFixed(2))

	p := intents.created
	require.NotNil(t, p)
	assert.Equal(t, int64(17213), *p.Amount)
	assert.Equal(t, "brl", *p.Currency)
	assert.Equal(t, "pm_card_visa", *p.PaymentMethod)
	assert.True(t, *p.Confirm)
	assert.Equal(t, "order-order-1-card", *p.IdempotencyKey)
	assert.Equal(t, "order-1", p.Metadata["order_id"])
	assert.Equal(t, "ana@example.com", *p.ReceiptEmail)
}

func TestGateway_CreatePayment_Declined(t *testing.T) {
	intents := &fakeIntents{newErr: &stripe.Error{
		Type:        stripe.ErrorTypeCard,
		Code:        stripe.ErrorCodeCardDeclined,
		DeclineCode: stripe.DeclineCodeInsufficientFunds,
		PaymentIntent: &stripe.PaymentIntent{
			ID:       "pi_declined",
			Status:   stripe.PaymentIntentStatusRequiresPaymentMethod,
			Metadata: map[string]string{"order_id": "order-2"},
		},
	}}
	g := newTestGateway(t, intents)

	res, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method:            domain.PaymentMethodCard,
		Amount:            decimal.NewFromInt(10),
		ExternalReference: "order-2",
		CardToken:         "pm_card_chargeDeclined",
	})
	require.NoError(t, err)
	assert.Equal(t, payments.StatusRejected, res.Status)
	assert.Equal(t, "insufficient_funds", res.StatusDetail)
	assert.Equal(t, "order-2", res.ExternalReference)
}

func TestGateway_CreatePayment_Unsupported(t *testing.T) {
	g := newTestGateway(t, &fakeIntents{})

	for _, m := range []domain.PaymentMethod{domain.PaymentMethodPix, domain.PaymentMethodBoleto} {
		assert.False(t, g.Supports(m))
		_, err := g.CreatePayment(context.Background(), payments.PaymentRequest{Method: m})
		var vErr *apperrors.ErrValidation
		require.ErrorAs(t, err, &vErr)
	}
}

func TestGateway_GetPayment(t *testing.T) {
	intents := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:       "pi_9",
		Amount:   5000,
		Status:   stripe.PaymentIntentStatusProcessing,
		Metadata: map[string]string{"order_id": "order-9"},
	}}
	g := newTestGateway(t, intents)

	res, err := g.GetPayment(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, payments.StatusInProcess, res.Status)
	assert.Equal(t, "order-9", res.ExternalReference)

	intents.getErr = &stripe.Error{HTTPStatusCode: 404, Msg: "No such payment_intent"}
	_, err = g.GetPayment(context.Background(), "pi_missing")
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, payments.StatusApproved, mapStatus(stripe.PaymentIntentStatusSucceeded))
	assert.Equal(t, payments.StatusCancelled, mapStatus(stripe.PaymentIntentStatusCanceled))
	assert.Equal(t, payments.StatusAuthorized, mapStatus(stripe.PaymentIntentStatusRequiresCapture))
	assert.Equal(t, payments.StatusPending, mapStatus(stripe.PaymentIntentStatusRequiresAction))
}

func TestNewGateway_RequiresKey(t *testing.T) {
	_, err := NewGateway(Config{}, zap.NewNop())
	var cfgErr *apperrors.ErrConfiguration
	require.ErrorAs(t, err, &cfgErr)
}

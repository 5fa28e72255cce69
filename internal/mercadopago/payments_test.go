package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/payments"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{AccessToken: "TEST-token", BaseURL: srv.URL}, zap.NewNop())
	return NewGateway(client, zap.NewNop())
}

func TestGateway_CreatePayment_Pix(t *testing.T) {
	var got PaymentRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		assert.Equal(t, "order-abc-pix", r.Header.Get("X-Idempotency-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 1319827361,
			"status": "pending",
			"status_detail": "pending_waiting_transfer",
			"external_reference": "abc",
			"payment_method_id": "pix",
			"transaction_amount": 172.13,
			"point_of_interaction": {"transaction_data": {
				"qr_code": "00020126580014br.gov.bcb.pix",
				"qr_code_base64": "iVBORw0KGgo=",
				"ticket_url": "https://www.mercadopago.com.br/payments/1319827361/ticket"
			}}
		}`))
	})

	res, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method:            domain.PaymentMethodPix,
		Amount:            decimal.RequireFromString("172.13"),
		Description:       "Print order abc",
		ExternalReference: "abc",
		IdempotencyKey:    "order-abc-pix",
		NotificationURL:   "https://shop.example/payments/webhook",
		Payer:             payments.Payer{Email: "ana@example.com", FirstName: "Ana"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pix", got.PaymentMethodID)
	assert.Equal(t, 172.13, got.TransactionAmount)
	assert.Equal(t, "abc", got.ExternalReference)
	assert.Equal(t, "ana@example.com", got.Payer.Email)
	assert.Nil(t, got.Payer.Identification)
	assert.Equal(t, "https://shop.example/payments/webhook", got.NotificationURL)

	assert.Equal(t, "1319827361", res.ID)
	assert.Equal(t, payments.StatusPending, res.Status)
	assert.Equal(t, domain.PaymentMethodPix, res.Method)
	assert.Equal(t, "00020126580014br.gov.bcb.pix", res.PixQRCode)
	assert.Equal(t, "iVBORw0KGgo=", res.PixQRCodeBase64)
	assert.Contains(t, res.TicketURL, "ticket")
	assert.Equal(t, "172.13", res.Amount.StringFixed(2))
}

func TestGateway_CreatePayment_Boleto(t *testing.T) {
	var got PaymentRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"id": 55,
			"status": "pending",
			"external_reference": "abc",
			"payment_method_id": "bolbradesco",
			"transaction_amount": 90,
			"date_of_expiration": "2026-11-01T22:59:59.000-04:00",
			"transaction_details": {"external_resource_url": "https://www.mercadopago.com.br/payments/55/ticket"},
			"barcode": {"content": "23791234500000090003381260007827147600006330"}
		}`))
	})

	res, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method:            domain.PaymentMethodBoleto,
		Amount:            decimal.NewFromInt(90),
		ExternalReference: "abc",
		Payer:             payments.Payer{Email: "ana@example.com", DocumentNumber: "19119119100"},
	})
	require.NoError(t, err)

	assert.Equal(t, "bolbradesco", got.PaymentMethodID)
	require.NotNil(t, got.Payer.Identification)
	assert.Equal(t, "CPF", got.Payer.Identification.Type)

	assert.Equal(t, "https://www.mercadopago.com.br/payments/55/ticket", res.BoletoURL)
	assert.Equal(t, "23791234500000090003381260007827147600006330", res.BarcodeContent)
	require.NotNil(t, res.ExpiresAt)
}

func TestGateway_CreatePayment_Card(t *testing.T) {
	var got PaymentRequest
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id": 7, "status": "approved", "status_detail": "accredited", "external_reference": "abc", "payment_method_id": "visa", "transaction_amount": 10}`))
	})

	res, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method:        domain.PaymentMethodCard,
		Amount:        decimal.NewFromInt(10),
		CardToken:     "ff8080814c11e237014c1ff593b57b4d",
		PaymentMethod: "visa",
		Installments:  3,
		Payer:         payments.Payer{Email: "ana@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "visa", got.PaymentMethodID)
	assert.Equal(t, "ff8080814c11e237014c1ff593b57b4d", got.Token)
	assert.Equal(t, 3, got.Installments)
	assert.Equal(t, payments.StatusApproved, res.Status)
	assert.Equal(t, "accredited", res.StatusDetail)

	_, err = g.CreatePayment(context.Background(), payments.PaymentRequest{Method: domain.PaymentMethodCard, CardToken: "x"})
	var vErr *apperrors.ErrValidation
	require.ErrorAs(t, err, &vErr)
}

func TestGateway_CreatePayment_APIError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Invalid users involved", "error": "bad_request", "status": 400, "cause": [{"code": 2034, "description": "Invalid users involved"}]}`))
	})

	_, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method: domain.PaymentMethodPix,
		Amount: decimal.NewFromInt(10),
	})
	var ext *apperrors.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Contains(t, err.Error(), "Invalid users involved")
	assert.Contains(t, err.Error(), "status 400")
}

func TestGateway_GetPayment(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v1/payments/42":
			_, _ = w.Write([]byte(`{"id": 42, "status": "approved", "external_reference": "abc", "payment_method_id": "pix", "transaction_amount": 10}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Payment not found", "error": "not_found", "status": 404}`))
		}
	})

	res, err := g.GetPayment(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", res.ID)
	assert.Equal(t, payments.StatusApproved, res.Status)
	assert.Equal(t, "abc", res.ExternalReference)
	assert.Equal(t, domain.PaymentMethodPix, res.Method)

	_, err = g.GetPayment(context.Background(), "43")
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestGateway_MissingAccessToken(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "invalid access token", "status": 401}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{AccessToken: "  ", BaseURL: srv.URL}, zap.NewNop())
	g := NewGateway(client, zap.NewNop())

	_, err := g.CreatePayment(context.Background(), payments.PaymentRequest{
		Method: domain.PaymentMethodPix,
		Amount: decimal.NewFromInt(10),
	})
	var cfgErr *apperrors.ErrConfiguration
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, AccessTokenKey, cfgErr.Key)

	_, err = g.GetPayment(context.Background(), "42")
	require.ErrorAs(t, err, &cfgErr)

	assert.Zero(t, hits)
}

func TestGateway_GetPayment_RejectsNonNumericID(t *testing.T) {
	hits := 0
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"", "abc", "42/../../v1/users/me", "42?x=1"} {
		_, err := g.GetPayment(context.Background(), id)
		var vErr *apperrors.ErrValidation
		require.ErrorAs(t, err, &vErr, "id %q", id)
		assert.Equal(t, "data.id", vErr.Field)
	}
	assert.Zero(t, hits)
}

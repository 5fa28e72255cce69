package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/events"
	"github.com/printhouse/storefront/internal/payments"
	"github.com/printhouse/storefront/internal/repository"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

// PaymentServiceConfig holds the gateway call settings
type PaymentServiceConfig struct {
	NotificationURL string
	Currency        string
	StoreName       string
}

// PaymentService dispatches payments for pending orders and applies gateway
// outcomes to the order state machine.
type PaymentService struct {
	repos   *repository.Repositories
	orders  *OrderService
	gateway payments.Gateway
	cfg     PaymentServiceConfig
	logger  *zap.Logger
}

// NewPaymentService creates a new payment dispatcher
func NewPaymentService(
	repos *repository.Repositories,
	orders *OrderService,
	gateway payments.Gateway,
	cfg PaymentServiceConfig,
	logger *zap.Logger,
) *PaymentService {
	if cfg.StoreName == "" {
		cfg.StoreName = "Print order"
	}
	return &PaymentService{
		repos:   repos,
		orders:  orders,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// ProcessCard charges a card synchronously and applies the result.
func (s *PaymentService) ProcessCard(ctx context.Context, requester Requester, req CardPaymentRequest) (*PaymentOutcome, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, &apperrors.ErrValidation{Field: "token", Message: "card token is required"}
	}
	installments := req.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 {
		return nil, &apperrors.ErrValidation{Field: "installments", Message: "must be at least 1"}
	}

	return s.dispatch(ctx, requester, req.OrderID, domain.PaymentMethodCard, func(pr *payments.PaymentRequest) {
		pr.CardToken = req.Token
		pr.PaymentMethod = req.PaymentMethodID
		pr.Installments = installments
		pr.Payer = req.Payer
	})
}

// CreatePix creates a PIX charge. The order stays pending until the gateway
// reports the payment.
func (s *PaymentService) CreatePix(ctx context.Context, requester Requester, req PixPaymentRequest) (*PaymentOutcome, error) {
	return s.dispatch(ctx, requester, req.OrderID, domain.PaymentMethodPix, func(pr *payments.PaymentRequest) {
		pr.Payer = req.Payer
	})
}

// CreateBoleto issues a boleto. The order stays pending until it is paid.
func (s *PaymentService) CreateBoleto(ctx context.Context, requester Requester, req BoletoPaymentRequest) (*PaymentOutcome, error) {
	if strings.TrimSpace(req.Payer.DocumentNumber) == "" {
		return nil, &apperrors.ErrValidation{Field: "payer.documentNumber", Message: "CPF or CNPJ is required for boleto"}
	}
	return s.dispatch(ctx, requester, req.OrderID, domain.PaymentMethodBoleto, func(pr *payments.PaymentRequest) {
		pr.Payer = req.Payer
	})
}

func (s *PaymentService) dispatch(
	ctx context.Context,
	requester Requester,
	orderID uuid.UUID,
	method domain.PaymentMethod,
	fill func(*payments.PaymentRequest),
) (*PaymentOutcome, error) {
	if !s.gateway.Supports(method) {
		return nil, &apperrors.ErrValidation{Field: "paymentMethod", Message: fmt.Sprintf("payment method not supported: %s", method)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.canAccess(order) {
		return nil, &apperrors.ErrForbidden{Message: "access denied"}
	}
	if order.Status != domain.OrderStatusPending {
		return nil, &apperrors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusPaid}
	}

	req := payments.PaymentRequest{
		Method:            method,
		Amount:            order.Total,
		Currency:          s.cfg.Currency,
		Description:       fmt.Sprintf("%s %s", s.cfg.StoreName, order.ID),
		ExternalReference: order.ID.String(),
		IdempotencyKey:    fmt.Sprintf("order-%s-%s", order.ID, method),
		NotificationURL:   s.cfg.NotificationURL,
	}
	fill(&req)

	result, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		s.logger.Error("Payment gateway call failed",
			zap.String("order_id", order.ID.String()),
			zap.String("method", string(method)),
			zap.Error(err),
		)
		var extErr *apperrors.ErrExternalService
		if errors.As(err, &extErr) {
			return nil, err
		}
		if isPassThrough(err) {
			return nil, err
		}
		return nil, &apperrors.ErrExternalService{Service: s.gateway.Name(), Message: "payment failed", Err: err}
	}

	if err := s.repos.Order.UpdatePaymentID(ctx, order.ID, result.ID); err != nil {
		return nil, err
	}
	order.PaymentID = &result.ID

	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: domain.EventPaymentCreated,
		EventData: map[string]interface{}{
			"payment_id": result.ID,
			"provider":   s.gateway.Name(),
			"method":     method,
			"status":     result.Status,
		},
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record payment event", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	s.orders.publish(ctx, events.OrderEvent{
		Type:    events.TypePaymentCreated,
		OrderID: order.ID.String(),
		UserID:  order.UserID.String(),
		Status:  string(order.Status),
		Data: map[string]interface{}{
			"paymentId": result.ID,
			"method":    method,
		},
	})

	s.logger.Info("Payment created",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_id", result.ID),
		zap.String("method", string(method)),
		zap.String("status", string(result.Status)),
	)

	if method == domain.PaymentMethodCard {
		order, _, err = s.applyGatewayStatus(ctx, order, result, "card")
		if err != nil {
			return nil, err
		}
	}

	return &PaymentOutcome{Payment: result, Order: order}, nil
}

// HandleWebhook resolves a gateway notification to its order and applies the
// payment status. Repeated deliveries are no-ops.
func (s *PaymentService) HandleWebhook(ctx context.Context, event WebhookEvent) (*WebhookResult, error) {
	if !isPaymentNotification(event) {
		s.logger.Debug("Ignoring webhook", zap.String("type", event.Type), zap.String("action", event.Action))
		return &WebhookResult{Ignored: true}, nil
	}
	if strings.TrimSpace(event.DataID) == "" {
		return nil, &apperrors.ErrValidation{Field: "data.id", Message: "payment id is required"}
	}

	result, err := s.gateway.GetPayment(ctx, event.DataID)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) || isPassThrough(err) {
			return nil, err
		}
		return nil, &apperrors.ErrExternalService{Service: s.gateway.Name(), Message: "failed to fetch payment", Err: err}
	}

	orderID, err := uuid.Parse(result.ExternalReference)
	if err != nil {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: result.ExternalReference}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentID == nil || *order.PaymentID != result.ID {
		if err := s.repos.Order.UpdatePaymentID(ctx, order.ID, result.ID); err != nil {
			return nil, err
		}
		order.PaymentID = &result.ID
	}

	order, changed, err := s.applyGatewayStatus(ctx, order, result, "webhook")
	if err != nil {
		return nil, err
	}

	return &WebhookResult{OrderID: order.ID, Status: order.Status, Changed: changed}, nil
}

// isPassThrough reports gateway errors that keep their own classification.
func isPassThrough(err error) bool {
	var (
		vErr   *apperrors.ErrValidation
		cfgErr *apperrors.ErrConfiguration
	)
	return errors.As(err, &vErr) || errors.As(err, &cfgErr)
}

func isPaymentNotification(event WebhookEvent) bool {
	if event.Type == "payment" {
		return true
	}
	return strings.HasPrefix(event.Action, "payment.")
}

// applyGatewayStatus moves the order to the status the payment implies. An
// order already there, an open payment or a transition the state machine
// forbids leaves the order as it is.
func (s *PaymentService) applyGatewayStatus(
	ctx context.Context,
	order *domain.Order,
	result *payments.PaymentResult,
	source string,
) (*domain.Order, bool, error) {
	target, ok := result.Status.OrderStatus()
	if !ok || order.Status == target {
		return order, false, nil
	}

	if !order.Status.CanTransitionTo(target) {
		s.logger.Warn("Ignoring payment status for order",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_id", result.ID),
			zap.String("order_status", string(order.Status)),
			zap.String("payment_status", string(result.Status)),
		)
		return order, false, nil
	}

	changed, err := s.orders.TransitionStatus(ctx, order, target, map[string]interface{}{
		"source":         source,
		"payment_id":     result.ID,
		"payment_status": result.Status,
	})
	if err != nil {
		return nil, false, err
	}
	if changed {
		return order, true, nil
	}

	// Another writer moved the order first; report what is stored now.
	current, err := s.repos.Order.GetByID(ctx, order.ID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

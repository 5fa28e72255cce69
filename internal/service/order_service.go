package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/events"
	"github.com/printhouse/storefront/internal/repository"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// OrderServiceConfig holds the order assembly settings
type OrderServiceConfig struct {
	PickupAddress string
}

type OrderService struct {
	repos         *repository.Repositories
	pricing       *PricingValidator
	publisher     events.Publisher
	pickupAddress string
	logger        *zap.Logger
	now           func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	repos *repository.Repositories,
	pricing *PricingValidator,
	publisher events.Publisher,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		repos:         repos,
		pricing:       pricing,
		publisher:     publisher,
		pickupAddress: cfg.PickupAddress,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateOrder validates the cart and persists the order with its items in one
// transaction. When idempotencyKey repeats a previous checkout of the same
// user, the stored order is returned and replayed is true.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	userID uuid.UUID,
	req CreateOrderRequest,
	idempotencyKey string,
	requestHash string,
) (*OrderWithItems, bool, error) {
	if idempotencyKey != "" {
		existing, err := s.findReplay(ctx, userID, idempotencyKey, requestHash)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	if !req.PaymentMethod.IsValid() {
		return nil, false, &apperrors.ErrValidation{Field: "paymentMethod", Message: "must be card, pix or boleto"}
	}

	priced, err := s.pricing.Validate(ctx, PricingInput{
		Lines:          req.Items,
		DeliveryType:   req.DeliveryType,
		Subtotal:       req.Subtotal,
		ArtCreationFee: req.ArtCreationFee,
		Shipping:       req.Shipping,
		Total:          req.Total,
	})
	if err != nil {
		return nil, false, err
	}

	order := &domain.Order{
		UserID:         userID,
		Status:         domain.OrderStatusPending,
		DeliveryType:   req.DeliveryType,
		Subtotal:       priced.Subtotal,
		ArtCreationFee: priced.ArtFeeTotal,
		ShippingCost:   priced.Shipping,
		Total:          priced.Total,
		PaymentMethod:  req.PaymentMethod,
	}

	switch req.DeliveryType {
	case domain.DeliveryTypePickup:
		order.ShippingAddress = s.pickupAddress
		order.ShippingCarrier = domain.PickupCarrier
		order.ShippingService = domain.PickupService
		order.ShippingDeliveryDays = domain.PickupDays
	case domain.DeliveryTypeDelivery:
		address := strings.TrimSpace(req.ShippingAddress)
		if address == "" {
			return nil, false, &apperrors.ErrValidation{Field: "shippingAddress", Message: "shipping address is required for delivery"}
		}
		order.ShippingAddress = address
		order.ShippingCarrier = strings.TrimSpace(req.ShippingCarrier)
		order.ShippingService = strings.TrimSpace(req.ShippingService)
		if req.ShippingDeliveryDays != nil {
			if *req.ShippingDeliveryDays < 0 {
				return nil, false, &apperrors.ErrValidation{Field: "shippingDeliveryDays", Message: "must not be negative"}
			}
			order.ShippingDeliveryDays = *req.ShippingDeliveryDays
		}
	}

	if idempotencyKey != "" {
		key, hash := idempotencyKey, requestHash
		order.IdempotencyKey = &key
		order.RequestHash = &hash
	}

	items := make([]*domain.OrderItem, 0, len(priced.Lines))
	for _, pl := range priced.Lines {
		items = append(items, orderItemFromLine(pl))
	}

	event := &domain.OrderEvent{
		EventType: domain.EventOrderCreated,
		EventData: map[string]interface{}{
			"status":        order.Status,
			"total":         order.Total.StringFixed(2),
			"delivery_type": order.DeliveryType,
			"items":         len(items),
		},
	}

	if err := s.repos.Order.CreateWithItems(ctx, order, items, event); err != nil {
		var conflict *apperrors.ErrConflict
		if idempotencyKey != "" && errors.As(err, &conflict) {
			// Lost a race with a concurrent submission of the same key.
			existing, findErr := s.findReplay(ctx, userID, idempotencyKey, requestHash)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(items)),
	)

	s.publish(ctx, events.OrderEvent{
		Type:    events.TypeOrderCreated,
		OrderID: order.ID.String(),
		UserID:  userID.String(),
		Status:  string(order.Status),
		Data: map[string]interface{}{
			"total":        order.Total.StringFixed(2),
			"deliveryType": order.DeliveryType,
		},
	})

	return &OrderWithItems{Order: order, Items: items}, false, nil
}

// findReplay returns the order previously stored under key, nil when there is
// none, or ErrConflict when the key was used for a different request body.
func (s *OrderService) findReplay(ctx context.Context, userID uuid.UUID, key, requestHash string) (*OrderWithItems, error) {
	existing, err := s.repos.Order.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		var notFound *apperrors.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	if existing.RequestHash != nil && requestHash != "" && *existing.RequestHash != requestHash {
		return nil, &apperrors.ErrConflict{Message: "idempotency key was already used with a different request"}
	}

	items, err := s.repos.OrderItem.GetByOrderID(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Replaying idempotent order",
		zap.String("order_id", existing.ID.String()),
		zap.String("idempotency_key", key),
	)
	return &OrderWithItems{Order: existing, Items: items}, nil
}

func orderItemFromLine(pl PricedLine) *domain.OrderItem {
	common := pl.Line.line()
	item := &domain.OrderItem{
		LineIndex:      common.Index,
		ProductID:      common.Product.ID,
		ProductName:    common.Product.Name,
		PricingMode:    common.Product.PricingMode,
		UnitPrice:      pl.UnitPrice,
		Area:           pl.Area,
		LineTotal:      pl.LineTotal,
		ArtOption:      common.ArtOption,
		ArtFile:        common.ArtFile,
		ArtCreationFee: common.ArtFee,
	}

	switch l := pl.Line.(type) {
	case *AreaLine:
		w, h := l.Width, l.Height
		item.Width = &w
		item.Height = &h
	case *UnitLine:
		q := l.Quantity
		item.Quantity = &q
	}
	return item
}

// GetOrder returns an order with its items if the requester may see it.
func (s *OrderService) GetOrder(ctx context.Context, requester Requester, orderID uuid.UUID) (*OrderWithItems, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.canAccess(order) {
		return nil, &apperrors.ErrForbidden{Message: "access denied"}
	}

	items, err := s.repos.OrderItem.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderWithItems{Order: order, Items: items}, nil
}

// ListMyOrders lists the caller's own orders, newest first
func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.repos.Order.ListByUserID(ctx, userID, limit, offset)
}

// ListOrders lists every order, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string, limit, offset int) ([]*domain.Order, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	if status == "" {
		return s.repos.Order.List(ctx, limit, offset)
	}

	st := domain.OrderStatus(status)
	if !st.IsValid() {
		return nil, &apperrors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown order status %q", status)}
	}
	return s.repos.Order.ListByStatus(ctx, st, limit, offset)
}

func normalizePage(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return 0, 0, &apperrors.ErrValidation{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxListLimit)}
	}
	if offset < 0 {
		return 0, 0, &apperrors.ErrValidation{Field: "offset", Message: "must not be negative"}
	}
	return limit, offset, nil
}

// UpdateStatus applies an admin status change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, reason string) (*domain.Order, error) {
	if !to.IsValid() {
		return nil, &apperrors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown order status %q", to)}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{"source": "admin"}
	if reason != "" {
		data["reason"] = reason
	}

	changed, err := s.TransitionStatus(ctx, order, to, data)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, &apperrors.ErrConflict{Message: "order status changed concurrently, reload and retry"}
	}
	return order, nil
}

// TransitionStatus moves order to the target status if the state machine
// allows it and the stored status still matches order.Status. On success the
// order is updated in place, an audit event is recorded and published.
// It reports false when another writer changed the status first.
func (s *OrderService) TransitionStatus(ctx context.Context, order *domain.Order, to domain.OrderStatus, data map[string]interface{}) (bool, error) {
	from := order.Status
	if !from.CanTransitionTo(to) {
		return false, &apperrors.ErrInvalidStateTransition{From: from, To: to}
	}

	ok, err := s.repos.Order.CompareAndSetStatus(ctx, order.ID, from, to)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	order.Status = to
	order.UpdatedAt = s.now()

	eventData := map[string]interface{}{
		"from": from,
		"to":   to,
	}
	for k, v := range data {
		eventData[k] = v
	}

	event := &domain.OrderEvent{
		OrderID:   order.ID,
		EventType: domain.EventOrderStatusChanged,
		EventData: eventData,
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		// The status change is committed; the audit row is best effort.
		s.logger.Error("Failed to record status event",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	s.publish(ctx, events.OrderEvent{
		Type:    events.TypeOrderStatusChanged,
		OrderID: order.ID.String(),
		UserID:  order.UserID.String(),
		Status:  string(to),
		Data:    eventData,
	})

	return true, nil
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

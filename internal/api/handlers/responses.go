package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/api/middleware"
	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/service"
	apperrors "github.com/printhouse/storefront/pkg/errors"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"userId"`
	Status               domain.OrderStatus   `json:"status"`
	DeliveryType         domain.DeliveryType  `json:"deliveryType"`
	Subtotal             decimal.Decimal      `json:"subtotal"`
	ArtCreationFee       decimal.Decimal      `json:"artCreationFee"`
	Shipping             decimal.Decimal      `json:"shipping"`
	Total                decimal.Decimal      `json:"total"`
	ShippingAddress      string               `json:"shippingAddress"`
	PaymentMethod        domain.PaymentMethod `json:"paymentMethod"`
	PaymentID            *string              `json:"paymentId,omitempty"`
	ShippingCarrier      string               `json:"shippingCarrier,omitempty"`
	ShippingService      string               `json:"shippingService,omitempty"`
	ShippingDeliveryDays int                  `json:"shippingDeliveryDays"`
	CreatedAt            string               `json:"createdAt"`
	UpdatedAt            string               `json:"updatedAt"`
}

type OrderItemResponse struct {
	ID             string             `json:"id"`
	ProductID      string             `json:"productId"`
	ProductName    string             `json:"productName"`
	PricingMode    domain.PricingMode `json:"pricingMode"`
	UnitPrice      decimal.Decimal    `json:"unitPrice"`
	Width          *decimal.Decimal   `json:"width,omitempty"`
	Height         *decimal.Decimal   `json:"height,omitempty"`
	Area           *decimal.Decimal   `json:"area,omitempty"`
	Quantity       *int               `json:"quantity,omitempty"`
	LineTotal      decimal.Decimal    `json:"lineTotal"`
	ArtOption      domain.ArtOption   `json:"artOption"`
	ArtFile        *string            `json:"artFile,omitempty"`
	ArtCreationFee decimal.Decimal    `json:"artCreationFee"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:                   o.ID.String(),
		UserID:               o.UserID.String(),
		Status:               o.Status,
		DeliveryType:         o.DeliveryType,
		Subtotal:             o.Subtotal,
		ArtCreationFee:       o.ArtCreationFee,
		Shipping:             o.ShippingCost,
		Total:                o.Total,
		ShippingAddress:      o.ShippingAddress,
		PaymentMethod:        o.PaymentMethod,
		PaymentID:            o.PaymentID,
		ShippingCarrier:      o.ShippingCarrier,
		ShippingService:      o.ShippingService,
		ShippingDeliveryDays: o.ShippingDeliveryDays,
		CreatedAt:            o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            o.UpdatedAt.Format(time.RFC3339),
	}
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

func toItemResponses(items []*domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, OrderItemResponse{
			ID:             item.ID.String(),
			ProductID:      item.ProductID.String(),
			ProductName:    item.ProductName,
			PricingMode:    item.PricingMode,
			UnitPrice:      item.UnitPrice,
			Width:          item.Width,
			Height:         item.Height,
			Area:           item.Area,
			Quantity:       item.Quantity,
			LineTotal:      item.LineTotal,
			ArtOption:      item.ArtOption,
			ArtFile:        item.ArtFile,
			ArtCreationFee: item.ArtCreationFee,
		})
	}
	return out
}

// respondError maps the error taxonomy onto HTTP status codes. Causes of
// unexpected errors are logged and never sent to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation *apperrors.ErrValidation
		notFound   *apperrors.ErrNotFound
		trust      *apperrors.ErrTrustViolation
		transition *apperrors.ErrInvalidStateTransition
		config     *apperrors.ErrConfiguration
		external   *apperrors.ErrExternalService
		unauth     *apperrors.ErrUnauthorized
		forbidden  *apperrors.ErrForbidden
		conflict   *apperrors.ErrConflict
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &trust):
		c.JSON(http.StatusBadRequest, gin.H{"error": trust.Error(), "code": "price_mismatch", "field": trust.Field})
	case errors.As(err, &transition):
		c.JSON(http.StatusBadRequest, gin.H{"error": transition.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &unauth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauth.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.As(err, &external):
		logger.Warn("External service error", zap.String("service", external.Service), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": external.Message})
	case errors.As(err, &config):
		logger.Error("Configuration error", zap.String("key", config.Key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not configured"})
	default:
		logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requester(c *gin.Context) (service.Requester, bool) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		return service.Requester{}, false
	}
	return service.Requester{UserID: user.ID, IsAdmin: user.IsAdmin()}, true
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

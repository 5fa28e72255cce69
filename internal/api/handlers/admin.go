package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/domain"
	"github.com/printhouse/storefront/internal/repository"
	"github.com/printhouse/storefront/internal/service"
)

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason"`
}

// PutSettingRequest represents a setting update
type PutSettingRequest struct {
	Value string `json:"value"`
}

// HandleListOrders handles GET /admin/orders
func HandleListOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset")
		if !ok {
			return
		}

		list, err := orders.ListOrders(c.Request.Context(), c.Query("status"), limit, offset)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": toOrderResponses(list),
			"limit":  effectiveLimit(limit),
			"offset": offset,
		})
	}
}

// HandleUpdateOrderStatus handles PATCH /admin/orders/:id/status
func HandleUpdateOrderStatus(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), orderID, req.Status, strings.TrimSpace(req.Reason))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		logger.Info("Order status updated by admin",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)),
		)
		c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
	}
}

var adminSettingKeys = map[string]bool{
	domain.SettingShippingToken:       true,
	domain.SettingShippingEnvironment: true,
}

var shippingEnvironments = map[string]bool{
	"sandbox":    true,
	"production": true,
}

// HandleGetSetting handles GET /admin/settings/:key. The token is masked.
func HandleGetSetting(settings repository.SettingRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if !adminSettingKeys[key] {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
			return
		}

		setting, err := settings.Get(c.Request.Context(), key)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		value := setting.Value
		if key == domain.SettingShippingToken {
			value = maskSecret(value)
		}
		c.JSON(http.StatusOK, gin.H{
			"key":       setting.Key,
			"value":     value,
			"updatedAt": setting.UpdatedAt.Format(time.RFC3339),
		})
	}
}

// HandlePutSetting handles PUT /admin/settings/:key
func HandlePutSetting(settings repository.SettingRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if !adminSettingKeys[key] {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
			return
		}

		var req PutSettingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
		value := strings.TrimSpace(req.Value)
		if value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "value is required", "field": "value"})
			return
		}
		if key == domain.SettingShippingEnvironment {
			value = strings.ToLower(value)
			if !shippingEnvironments[value] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "environment must be sandbox or production", "field": "value"})
				return
			}
		}

		if err := settings.Set(c.Request.Context(), key, value); err != nil {
			respondError(c, logger, err)
			return
		}

		logger.Info("Setting updated", zap.String("key", key))
		c.JSON(http.StatusOK, gin.H{"key": key, "updated": true})
	}
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

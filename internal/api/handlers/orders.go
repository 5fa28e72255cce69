package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/api/middleware"
	"github.com/printhouse/storefront/internal/service"
)

// HandleCreateOrder handles POST /orders
func HandleCreateOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		key, hash := middleware.GetIdempotencyInfo(c)

		result, replayed, err := orders.CreateOrder(c.Request.Context(), user.ID, req, key, hash)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		status := http.StatusCreated
		if replayed {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{
			"order": toOrderResponse(result.Order),
			"items": toItemResponses(result.Items),
		})
	}
}

// HandleGetOrder handles GET /orders/:id
func HandleGetOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := requester(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, ok := parseIDParam(c)
		if !ok {
			return
		}

		result, err := orders.GetOrder(c.Request.Context(), who, orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order": toOrderResponse(result.Order),
			"items": toItemResponses(result.Items),
		})
	}
}

// HandleListMyOrders handles GET /orders
func HandleListMyOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset")
		if !ok {
			return
		}

		list, err := orders.ListMyOrders(c.Request.Context(), user.ID, limit, offset)
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

func effectiveLimit(limit int) int {
	if limit == 0 {
		return service.DefaultListLimit
	}
	return limit
}

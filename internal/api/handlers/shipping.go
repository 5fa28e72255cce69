package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/service"
)

// HandleCalculateShipping handles POST /shipping/calculate
func HandleCalculateShipping(shipping *service.ShippingService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ShippingCalculateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		quote, err := shipping.Calculate(c.Request.Context(), req.DestinationCEP, req.PackageDetails)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}

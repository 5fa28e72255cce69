package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printhouse/storefront/internal/service"
)

// HandleProcessCardPayment handles POST /payments/process
func HandleProcessCardPayment(payments *service.PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := requester(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CardPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		out, err := payments.ProcessCard(c.Request.Context(), who, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respondPayment(c, out)
	}
}

// HandleCreatePixPayment handles POST /payments/pix
func HandleCreatePixPayment(payments *service.PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := requester(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.PixPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		out, err := payments.CreatePix(c.Request.Context(), who, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respondPayment(c, out)
	}
}

// HandleCreateBoletoPayment handles POST /payments/boleto
func HandleCreateBoletoPayment(payments *service.PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := requester(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.BoletoPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}

		out, err := payments.CreateBoleto(c.Request.Context(), who, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respondPayment(c, out)
	}
}

func respondPayment(c *gin.Context, out *service.PaymentOutcome) {
	c.JSON(http.StatusOK, gin.H{
		"payment": out.Payment,
		"order":   toOrderResponse(out.Order),
	})
}

// WebhookRequest is the notification body. Older notifications carry the
// topic and id in the query string instead.
type WebhookRequest struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID flexibleID `json:"id"`
	} `json:"data"`
}

// flexibleID accepts both "123" and 123.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// HandlePaymentWebhook handles POST /payments/webhook
func HandlePaymentWebhook(payments *service.PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var req WebhookRequest
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
				return
			}
		}

		event := service.WebhookEvent{
			Type:   req.Type,
			Action: req.Action,
			DataID: string(req.Data.ID),
		}
		if event.Type == "" {
			event.Type = c.Query("type")
		}
		if event.Type == "" {
			event.Type = c.Query("topic")
		}
		if event.DataID == "" {
			event.DataID = c.Query("data.id")
		}
		if event.DataID == "" {
			event.DataID = c.Query("id")
		}

		result, err := payments.HandleWebhook(c.Request.Context(), event)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		logger.Info("Payment webhook processed",
			zap.String("type", event.Type),
			zap.String("payment_id", event.DataID),
			zap.Bool("ignored", result.Ignored),
			zap.Bool("changed", result.Changed),
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

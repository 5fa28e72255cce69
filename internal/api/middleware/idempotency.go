package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	idempotencyKeyContextKey  = "idempotency_key"
	requestHashContextKey     = "request_hash"
	maxIdempotencyKeyLength   = 255
	maxIdempotentRequestBytes = 1 << 20
)

// IdempotencyMiddleware reads the Idempotency-Key header and hashes the
// request body so a replay can be told apart from a reused key. The body is
// restored for the handler.
func IdempotencyMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key is too long"})
			c.Abort()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotentRequestBytes+1))
		if err != nil {
			logger.Error("Failed to read request body", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			c.Abort()
			return
		}
		if len(body) > maxIdempotentRequestBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		c.Set(idempotencyKeyContextKey, key)
		c.Set(requestHashContextKey, hex.EncodeToString(sum[:]))
		c.Next()
	}
}

// GetIdempotencyInfo returns the key and request hash, empty when the client
// sent no key.
func GetIdempotencyInfo(c *gin.Context) (key, requestHash string) {
	return c.GetString(idempotencyKeyContextKey), c.GetString(requestHashContextKey)
}

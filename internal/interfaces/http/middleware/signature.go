package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body
const SignatureHeader = "X-Webhook-Signature"

// WebhookSignature authenticates inbound platform webhooks. The tenant and
// platform are taken from the route params, the shared secret from the
// tenant's stored credentials. Tenants without a configured webhook secret
// are let through unverified.
func WebhookSignature(store integration.CredentialStore, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.Param("tenant_id"))
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "invalid tenant ID"))
			return
		}
		service := strings.ToLower(c.Param("platform"))

		creds, err := store.Get(c.Request.Context(), tenantID, service)
		if err != nil {
			if errors.Is(err, integration.ErrCredentialsNotConfigured) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					dto.NewErrorResponse(dto.ErrCodeUnauthorized, "unknown tenant or platform"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrCodeInternal, "credential lookup failed"))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "unreadable request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if creds.WebhookSecret == "" {
			logger.Warn("webhook accepted without signature verification",
				zap.String("tenant_id", tenantID.String()),
				zap.String("service", service))
			c.Set(TenantIDKey, tenantID)
			c.Next()
			return
		}

		if !verifySignature(creds.WebhookSecret, body, c.GetHeader(SignatureHeader)) {
			logger.Warn("webhook signature mismatch",
				zap.String("tenant_id", tenantID.String()),
				zap.String("service", service))
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "invalid webhook signature"))
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

func verifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/possync/backend/internal/application/integration"
	"github.com/possync/backend/internal/domain/integration"
)

// WebhookHandler receives order webhooks pushed by the delivery platforms
type WebhookHandler struct {
	BaseHandler
	orders *integrationapp.OrderService
	verify gin.HandlerFunc
}

// NewWebhookHandler creates a new WebhookHandler. verify authenticates the
// webhook before the order is processed.
func NewWebhookHandler(orders *integrationapp.OrderService, verify gin.HandlerFunc) *WebhookHandler {
	return &WebhookHandler{orders: orders, verify: verify}
}

// RegisterRoutes registers the webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/:tenant_id/:platform/orders", h.verify, h.ReceiveOrder)
}

// ReceiveOrder transforms an inbound platform order into a POS receipt.
// Every attempt leaves a sync log entry, so a processing failure is reported
// but never retried by the platform alone.
func (h *WebhookHandler) ReceiveOrder(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	code := integration.PlatformCode(strings.ToUpper(c.Param("platform")))
	if code != integration.PlatformCodeCareem && code != integration.PlatformCodeTalabat {
		h.BadRequest(c, "unknown platform")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "unreadable request body")
		return
	}

	result, err := h.orders.ProcessOrder(c.Request.Context(), tenantID, code, payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

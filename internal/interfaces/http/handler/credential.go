package handler

import (
	"github.com/gin-gonic/gin"

	integrationapp "github.com/possync/backend/internal/application/integration"
	"github.com/possync/backend/internal/interfaces/http/middleware"
)

// CredentialHandler handles platform credential API endpoints
type CredentialHandler struct {
	BaseHandler
	credentials *integrationapp.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler
func NewCredentialHandler(credentials *integrationapp.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

// RegisterRoutes registers all credential routes
func (h *CredentialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integration/credentials")
	g.Use(middleware.RequireTenant())
	g.GET("", h.Status)
	g.PUT("", h.Upsert)
	g.POST("/:service/test", h.TestConnection)
}

// Status reports which services the tenant has configured. Secrets are
// never returned.
func (h *CredentialHandler) Status(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	statuses, err := h.credentials.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, statuses)
}

// Upsert stores credentials for one service
func (h *CredentialHandler) Upsert(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req integrationapp.UpsertCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.credentials.Upsert(c.Request.Context(), tenantID, &req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// TestConnectionResponse reports the outcome of a connectivity probe
type TestConnectionResponse struct {
	Service   string `json:"service"`
	Connected bool   `json:"connected"`
}

// TestConnection probes the service with the stored credentials
func (h *CredentialHandler) TestConnection(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	service := c.Param("service")
	connected, err := h.credentials.TestConnection(c.Request.Context(), tenantID, service)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TestConnectionResponse{Service: service, Connected: connected})
}

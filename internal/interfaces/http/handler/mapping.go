package handler

import (
	"github.com/gin-gonic/gin"

	integrationapp "github.com/possync/backend/internal/application/integration"
	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/interfaces/http/dto"
	"github.com/possync/backend/internal/interfaces/http/middleware"
)

// MappingHandler handles product mapping API endpoints
type MappingHandler struct {
	BaseHandler
	mappings *integrationapp.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappings *integrationapp.MappingService) *MappingHandler {
	return &MappingHandler{mappings: mappings}
}

// RegisterRoutes registers all product mapping routes
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integration/mappings")
	g.Use(middleware.RequireTenant())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/export", h.ExportCSV)
	g.POST("/import", h.ImportCSV)
	g.POST("/automap", h.AutoMap)
	g.POST("/cache/clear", h.ClearCache)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/active", h.SetActive)
}

// ListMappingsRequest carries the list filters for product mappings
type ListMappingsRequest struct {
	dto.ListRequest
	PlatformCode string `form:"platform_code" binding:"omitempty,oneof=CAREEM TALABAT"`
	IsActive     *bool  `form:"is_active"`
}

// List returns the tenant's product mappings
func (h *MappingHandler) List(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	req := ListMappingsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := integration.ProductMappingFilter{
		SearchKeyword: req.Search,
		IsActive:      req.IsActive,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if req.PlatformCode != "" {
		code := integration.PlatformCode(req.PlatformCode)
		filter.PlatformCode = &code
	}

	mappings, total, err := h.mappings.ListMappings(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, integrationapp.ToProductMappingResponses(mappings), total, req.Page, req.PageSize)
}

// Create creates a new product mapping
func (h *MappingHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req integrationapp.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	mapping, err := h.mappings.CreateMapping(c.Request.Context(), tenantID, integrationapp.CreateMappingInput{
		PlatformCode:      integration.PlatformCode(req.PlatformCode),
		PlatformProductID: req.PlatformProductID,
		PlatformSKU:       req.PlatformSKU,
		PlatformName:      req.PlatformName,
		POSItemID:         req.POSItemID,
		POSVariantID:      req.POSVariantID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, integrationapp.ToProductMappingResponse(mapping))
}

// GetByID returns a single product mapping
func (h *MappingHandler) GetByID(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping ID")
		return
	}

	mapping, err := h.mappings.GetMapping(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToProductMappingResponse(mapping))
}

// Update applies field updates to a mapping
func (h *MappingHandler) Update(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping ID")
		return
	}

	var req integrationapp.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	mapping, err := h.mappings.UpdateMapping(c.Request.Context(), tenantID, id, integrationapp.UpdateMappingInput{
		PlatformSKU:  req.PlatformSKU,
		PlatformName: req.PlatformName,
		POSItemID:    req.POSItemID,
		POSVariantID: req.POSVariantID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToProductMappingResponse(mapping))
}

// SetActive toggles a mapping's active flag
func (h *MappingHandler) SetActive(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping ID")
		return
	}

	var req integrationapp.SetMappingActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	mapping, err := h.mappings.SetActive(c.Request.Context(), tenantID, id, *req.IsActive)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToProductMappingResponse(mapping))
}

// Delete removes a mapping
func (h *MappingHandler) Delete(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid mapping ID")
		return
	}

	if err := h.mappings.DeleteMapping(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AutoMap creates mappings by exact SKU match against the POS catalog
func (h *MappingHandler) AutoMap(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req integrationapp.AutoMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.mappings.AutoMap(c.Request.Context(), tenantID,
		integration.PlatformCode(req.PlatformCode), req.Products)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ImportCSV bulk-imports mappings from an uploaded CSV file
func (h *MappingHandler) ImportCSV(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "missing file upload field 'file'")
		return
	}
	defer file.Close()

	result, err := h.mappings.ImportCSV(c.Request.Context(), tenantID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ExportCSV streams the tenant's mappings as a CSV download
func (h *MappingHandler) ExportCSV(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="product_mappings.csv"`)

	if err := h.mappings.ExportCSV(c.Request.Context(), tenantID, c.Writer); err != nil {
		// headers are already out; the truncated payload signals the failure
		_ = c.Error(err)
	}
}

// ClearCache flushes the tenant's mapping cache entries
func (h *MappingHandler) ClearCache(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	h.mappings.ClearCache(c.Request.Context(), tenantID)
	h.NoContent(c)
}

package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/possync/backend/internal/application/integration"
	menuapp "github.com/possync/backend/internal/application/menu"
	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/interfaces/http/dto"
	"github.com/possync/backend/internal/interfaces/http/middleware"
)

// MenuHandler handles menu API endpoints, including catalog publication
type MenuHandler struct {
	BaseHandler
	menus   *menuapp.MenuService
	catalog *integrationapp.CatalogService
}

// NewMenuHandler creates a new MenuHandler
func NewMenuHandler(menus *menuapp.MenuService, catalog *integrationapp.CatalogService) *MenuHandler {
	return &MenuHandler{menus: menus, catalog: catalog}
}

// RegisterRoutes registers all menu routes
func (h *MenuHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/menus")
	g.Use(middleware.RequireTenant())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/import-logs/talabat/:importId", h.TalabatImportLog)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/duplicate", h.Duplicate)
	g.POST("/:id/publish", h.Publish)
	g.POST("/:id/unpublish", h.Unpublish)
	g.PUT("/:id/items/:itemId/availability", h.SetItemAvailability)
}

// ListMenusRequest carries the list filters for menus
type ListMenusRequest struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

// List returns the tenant's menus
func (h *MenuHandler) List(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	req := ListMenusRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := menu.MenuFilter{
		SearchKeyword: req.Search,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if req.Status != "" {
		status := menu.MenuStatus(req.Status)
		filter.Status = &status
	}

	menus, total, err := h.menus.ListMenus(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, menuapp.ToMenuResponses(menus), total, req.Page, req.PageSize)
}

// Create creates a new draft menu with its full item/modifier graph
func (h *MenuHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req menuapp.CreateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	m, err := h.menus.CreateMenu(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, menuapp.ToMenuResponse(m))
}

// GetByID returns a single menu
func (h *MenuHandler) GetByID(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	m, err := h.menus.GetMenu(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, menuapp.ToMenuResponse(m))
}

// Update applies changes to a menu
func (h *MenuHandler) Update(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	var req menuapp.UpdateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	m, err := h.menus.UpdateMenu(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, menuapp.ToMenuResponse(m))
}

// Delete removes a menu
func (h *MenuHandler) Delete(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	if err := h.menus.DeleteMenu(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Duplicate deep-copies a menu into a new draft
func (h *MenuHandler) Duplicate(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	// the body is optional; an empty one means "use the default copy name"
	var req menuapp.DuplicateMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}

	m, err := h.menus.DuplicateMenu(c.Request.Context(), tenantID, id, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, menuapp.ToMenuResponse(m))
}

// SetItemAvailability toggles one item without touching the rest of the menu
func (h *MenuHandler) SetItemAvailability(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "invalid item ID")
		return
	}

	var req menuapp.SetItemAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	m, err := h.menus.SetItemAvailability(c.Request.Context(), tenantID, id, itemID, *req.IsAvailable)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, menuapp.ToMenuResponse(m))
}

// Publish transforms the menu and submits it to every assigned platform
func (h *MenuHandler) Publish(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	result, err := h.catalog.PublishMenu(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Unpublish reverts a menu to draft
func (h *MenuHandler) Unpublish(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid menu ID")
		return
	}

	m, err := h.catalog.UnpublishMenu(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, menuapp.ToMenuResponse(m))
}

// TalabatImportLog fetches the processing report for a Talabat catalog import
func (h *MenuHandler) TalabatImportLog(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	entries, err := h.catalog.FetchTalabatImportLog(c.Request.Context(), tenantID, c.Param("importId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

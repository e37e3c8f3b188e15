package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	locationapp "github.com/possync/backend/internal/application/location"
	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/interfaces/http/middleware"
)

// LocationHandler handles location and Careem directory API endpoints
type LocationHandler struct {
	BaseHandler
	locations *locationapp.LocationService
	directory *locationapp.CareemDirectoryService
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(locations *locationapp.LocationService, directory *locationapp.CareemDirectoryService) *LocationHandler {
	return &LocationHandler{locations: locations, directory: directory}
}

// RegisterRoutes registers all location routes
func (h *LocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/locations")
	g.Use(middleware.RequireTenant())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/sync", h.SyncAll)
	g.POST("/:id/sync/:platform", h.SyncPlatform)

	d := rg.Group("/careem-directory")
	d.Use(middleware.RequireTenant())
	d.GET("/brands", h.ListBrands)
	d.GET("/branches", h.ListBranches)
	d.POST("/branches/:branchId/link", h.LinkBranch)
	d.POST("/branches/:branchId/unlink", h.UnlinkBranch)
}

// List returns the tenant's locations
func (h *LocationHandler) List(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	locations, err := h.locations.ListLocations(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToLocationResponses(locations))
}

// Create creates a new location
func (h *LocationHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req locationapp.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.locations.CreateLocation(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, locationapp.ToLocationResponse(l))
}

// GetByID returns a single location
func (h *LocationHandler) GetByID(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid location ID")
		return
	}

	l, err := h.locations.GetLocation(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToLocationResponse(l))
}

// Update applies changes to a location
func (h *LocationHandler) Update(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid location ID")
		return
	}

	var req locationapp.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	l, err := h.locations.UpdateLocation(c.Request.Context(), tenantID, id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToLocationResponse(l))
}

// Delete removes a location
func (h *LocationHandler) Delete(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid location ID")
		return
	}

	if err := h.locations.DeleteLocation(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SyncAll pushes store status and hours to every configured platform
func (h *LocationHandler) SyncAll(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid location ID")
		return
	}

	l, err := h.locations.SyncAllPlatforms(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToLocationResponse(l))
}

// SyncPlatform pushes store status and hours to one platform
func (h *LocationHandler) SyncPlatform(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid location ID")
		return
	}

	code := integration.PlatformCode(strings.ToUpper(c.Param("platform")))
	if code != integration.PlatformCodeCareem && code != integration.PlatformCodeTalabat {
		h.BadRequest(c, "unknown platform")
		return
	}

	l, err := h.locations.SyncPlatform(c.Request.Context(), tenantID, id, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToLocationResponse(l))
}

// ListBrands returns the cached Careem brand directory
func (h *LocationHandler) ListBrands(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	brands, err := h.directory.ListBrands(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToCareemBrandResponses(brands))
}

// ListBranches returns the cached Careem branch directory, optionally
// filtered by brand
func (h *LocationHandler) ListBranches(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	branches, err := h.directory.ListBranches(c.Request.Context(), tenantID, c.Query("brand_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToCareemBranchResponses(branches))
}

// LinkBranch attaches a Careem branch to one of the tenant's locations
func (h *LocationHandler) LinkBranch(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req locationapp.LinkCareemBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		h.BadRequest(c, "invalid location ID")
		return
	}

	branch, err := h.directory.LinkBranch(c.Request.Context(), tenantID, c.Param("branchId"), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToCareemBranchResponse(branch))
}

// UnlinkBranch detaches a Careem branch from its location
func (h *LocationHandler) UnlinkBranch(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	branch, err := h.directory.UnlinkBranch(c.Request.Context(), tenantID, c.Param("branchId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, locationapp.ToCareemBranchResponse(branch))
}

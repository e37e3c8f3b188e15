package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/possync/backend/internal/application/integration"
	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/interfaces/http/dto"
	"github.com/possync/backend/internal/interfaces/http/middleware"
)

// SyncLogHandler handles sync log API endpoints
type SyncLogHandler struct {
	BaseHandler
	logs   *integrationapp.SyncLogService
	orders *integrationapp.OrderService
}

// NewSyncLogHandler creates a new SyncLogHandler
func NewSyncLogHandler(logs *integrationapp.SyncLogService, orders *integrationapp.OrderService) *SyncLogHandler {
	return &SyncLogHandler{logs: logs, orders: orders}
}

// RegisterRoutes registers all sync log routes
func (h *SyncLogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/integration/sync-logs")
	g.Use(middleware.RequireTenant())
	g.GET("", h.List)
	g.GET("/retryable", h.ListRetryable)
	g.GET("/subject/:type/:id", h.SubjectHistory)
	g.GET("/:id", h.GetByID)
	g.POST("/retry", h.RetryOrder)
}

// ListSyncLogsRequest carries the list filters for sync log entries
type ListSyncLogsRequest struct {
	dto.ListRequest
	SubjectType  string `form:"subject_type" binding:"omitempty,oneof=ORDER MENU"`
	PlatformCode string `form:"platform_code" binding:"omitempty,oneof=CAREEM TALABAT"`
	Status       string `form:"status" binding:"omitempty,oneof=SUCCESS FAILED WARNING"`
	Action       string `form:"action"`
	Since        string `form:"since" binding:"omitempty"`
}

// List returns the tenant's sync log entries, newest first
func (h *SyncLogHandler) List(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	req := ListSyncLogsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := integration.SyncLogFilter{
		Action:   req.Action,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.SubjectType != "" {
		subject := integration.SyncSubjectType(req.SubjectType)
		filter.SubjectType = &subject
	}
	if req.PlatformCode != "" {
		code := integration.PlatformCode(req.PlatformCode)
		filter.PlatformCode = &code
	}
	if req.Status != "" {
		status := integration.SyncStatus(req.Status)
		filter.Status = &status
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			h.BadRequest(c, "since must be RFC3339")
			return
		}
		filter.Since = &since
	}

	entries, total, err := h.logs.ListEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, integrationapp.ToSyncLogResponses(entries), total, req.Page, req.PageSize)
}

// ListRetryable returns failed order entries that can be replayed
func (h *SyncLogHandler) ListRetryable(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	entries, err := h.logs.ListRetryable(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToSyncLogResponses(entries))
}

// GetByID returns a single sync log entry
func (h *SyncLogHandler) GetByID(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid sync log ID")
		return
	}

	entry, err := h.logs.GetEntry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToSyncLogResponse(entry))
}

// SubjectHistory returns all entries for one subject, e.g. one order
func (h *SyncLogHandler) SubjectHistory(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	subjectType := integration.SyncSubjectType(c.Param("type"))
	if subjectType != integration.SyncSubjectOrder && subjectType != integration.SyncSubjectMenu {
		h.BadRequest(c, "subject type must be ORDER or MENU")
		return
	}

	entries, err := h.logs.SubjectHistory(c.Request.Context(), tenantID, subjectType, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToSyncLogResponses(entries))
}

// RetryOrder replays a failed, retryable order attempt
func (h *SyncLogHandler) RetryOrder(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.Unauthorized(c, "tenant not resolved")
		return
	}

	var req integrationapp.RetryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	syncLogID, err := uuid.Parse(req.SyncLogID)
	if err != nil {
		h.BadRequest(c, "invalid sync log ID")
		return
	}

	result, err := h.orders.RetryOrder(c.Request.Context(), tenantID, syncLogID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

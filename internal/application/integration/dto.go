package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// CreateMappingRequest is the payload for creating a product mapping
type CreateMappingRequest struct {
	PlatformCode      string `json:"platform_code" binding:"required,oneof=CAREEM TALABAT"`
	PlatformProductID string `json:"platform_product_id" binding:"required"`
	PlatformSKU       string `json:"platform_sku"`
	PlatformName      string `json:"platform_name" binding:"required"`
	POSItemID         string `json:"pos_item_id" binding:"required"`
	POSVariantID      string `json:"pos_variant_id"`
}

// UpdateMappingRequest is the payload for updating a product mapping.
// Omitted fields keep their current value.
type UpdateMappingRequest struct {
	PlatformSKU  *string `json:"platform_sku"`
	PlatformName *string `json:"platform_name"`
	POSItemID    *string `json:"pos_item_id"`
	POSVariantID *string `json:"pos_variant_id"`
}

// SetMappingActiveRequest is the payload for toggling a mapping
type SetMappingActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AutoMapRequest is the payload for SKU-based auto-mapping
type AutoMapRequest struct {
	PlatformCode string           `json:"platform_code" binding:"required,oneof=CAREEM TALABAT"`
	Products     []AutoMapProduct `json:"products" binding:"required,min=1,dive"`
}

// RetryOrderRequest identifies the failed attempt to replay
type RetryOrderRequest struct {
	SyncLogID string `json:"sync_log_id" binding:"required,uuid"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// ProductMappingResponse is the API representation of a product mapping
type ProductMappingResponse struct {
	ID                uuid.UUID `json:"id"`
	PlatformCode      string    `json:"platform_code"`
	PlatformProductID string    `json:"platform_product_id"`
	PlatformSKU       string    `json:"platform_sku,omitempty"`
	PlatformName      string    `json:"platform_name"`
	POSItemID         string    `json:"pos_item_id"`
	POSVariantID      string    `json:"pos_variant_id,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ToProductMappingResponse converts a domain mapping to a response DTO
func ToProductMappingResponse(m *integration.ProductMapping) *ProductMappingResponse {
	return &ProductMappingResponse{
		ID:                m.ID,
		PlatformCode:      string(m.PlatformCode),
		PlatformProductID: m.PlatformProductID,
		PlatformSKU:       m.PlatformSKU,
		PlatformName:      m.PlatformName,
		POSItemID:         m.POSItemID,
		POSVariantID:      m.POSVariantID,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ToProductMappingResponses converts a slice of domain mappings
func ToProductMappingResponses(mappings []integration.ProductMapping) []ProductMappingResponse {
	responses := make([]ProductMappingResponse, len(mappings))
	for i := range mappings {
		responses[i] = *ToProductMappingResponse(&mappings[i])
	}
	return responses
}

// SyncLogResponse is the API representation of a sync log entry
type SyncLogResponse struct {
	ID           uuid.UUID              `json:"id"`
	SubjectType  string                 `json:"subject_type"`
	SubjectID    string                 `json:"subject_id"`
	PlatformCode string                 `json:"platform_code,omitempty"`
	Action       string                 `json:"action"`
	Status       string                 `json:"status"`
	Message      string                 `json:"message"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Retryable    bool                   `json:"retryable"`
	CreatedAt    time.Time              `json:"created_at"`
}

// ToSyncLogResponse converts a domain sync log entry to a response DTO
func ToSyncLogResponse(l *integration.SyncLog) *SyncLogResponse {
	return &SyncLogResponse{
		ID:           l.ID,
		SubjectType:  l.SubjectType.String(),
		SubjectID:    l.SubjectID,
		PlatformCode: string(l.PlatformCode),
		Action:       l.Action,
		Status:       l.Status.String(),
		Message:      l.Message,
		Metadata:     l.Metadata,
		Retryable:    l.IsRetryable(),
		CreatedAt:    l.CreatedAt,
	}
}

// ToSyncLogResponses converts a slice of domain sync log entries
func ToSyncLogResponses(entries []integration.SyncLog) []SyncLogResponse {
	responses := make([]SyncLogResponse, len(entries))
	for i := range entries {
		responses[i] = *ToSyncLogResponse(&entries[i])
	}
	return responses
}

// PagedResponse wraps a paginated list
type PagedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

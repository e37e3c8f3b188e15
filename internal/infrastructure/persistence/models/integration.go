package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// ProductMapping
// ---------------------------------------------------------------------------

// ProductMappingModel is the persistence model for the ProductMapping domain entity.
type ProductMappingModel struct {
	ID                uuid.UUID                `gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID                `gorm:"type:uuid;not null;index:idx_product_mapping_tenant,priority:1;uniqueIndex:uq_product_mapping_active,priority:1"`
	PlatformCode      integration.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:uq_product_mapping_active,priority:2"`
	PlatformProductID string                   `gorm:"type:varchar(100);not null;uniqueIndex:uq_product_mapping_active,priority:3"`
	PlatformSKU       string                   `gorm:"type:varchar(100);index:idx_product_mapping_sku"`
	PlatformName      string                   `gorm:"type:varchar(255);not null"`
	POSItemID         string                   `gorm:"type:varchar(100);not null"`
	POSVariantID      string                   `gorm:"type:varchar(100)"`
	// IsActiveKey backs the partial uniqueness of active mappings: true for
	// active rows, NULL for inactive ones so they never collide.
	IsActiveKey *bool     `gorm:"uniqueIndex:uq_product_mapping_active,priority:4;column:is_active_key"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping entity.
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	return &integration.ProductMapping{
		ID:                m.ID,
		TenantID:          m.TenantID,
		PlatformCode:      m.PlatformCode,
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

// FromDomain populates the persistence model from a domain ProductMapping entity.
func (m *ProductMappingModel) FromDomain(pm *integration.ProductMapping) {
	m.ID = pm.ID
	m.TenantID = pm.TenantID
	m.PlatformCode = pm.PlatformCode
	m.PlatformProductID = pm.PlatformProductID
	m.PlatformSKU = pm.PlatformSKU
	m.PlatformName = pm.PlatformName
	m.POSItemID = pm.POSItemID
	m.POSVariantID = pm.POSVariantID
	m.IsActive = pm.IsActive
	if pm.IsActive {
		active := true
		m.IsActiveKey = &active
	} else {
		m.IsActiveKey = nil
	}
	m.CreatedAt = pm.CreatedAt
	m.UpdatedAt = pm.UpdatedAt
}

// ProductMappingModelFromDomain creates a new persistence model from a domain entity.
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	m := &ProductMappingModel{}
	m.FromDomain(pm)
	return m
}

// ---------------------------------------------------------------------------
// SyncLog
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for the SyncLog domain entity.
type SyncLogModel struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID                   `gorm:"type:uuid;not null;index:idx_sync_log_tenant,priority:1"`
	SubjectType  integration.SyncSubjectType `gorm:"type:varchar(20);not null;index:idx_sync_log_subject,priority:1"`
	SubjectID    string                      `gorm:"type:varchar(100);not null;index:idx_sync_log_subject,priority:2"`
	PlatformCode integration.PlatformCode    `gorm:"type:varchar(20)"`
	Action       string                      `gorm:"type:varchar(100);not null"`
	Status       integration.SyncStatus      `gorm:"type:varchar(20);not null;index"`
	Message      string                      `gorm:"type:text"`
	MetadataJSON string                      `gorm:"type:jsonb;column:metadata"`
	CreatedAt    time.Time                   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog entity.
func (m *SyncLogModel) ToDomain() *integration.SyncLog {
	entry := &integration.SyncLog{
		ID:           m.ID,
		TenantID:     m.TenantID,
		SubjectType:  m.SubjectType,
		SubjectID:    m.SubjectID,
		PlatformCode: m.PlatformCode,
		Action:       m.Action,
		Status:       m.Status,
		Message:      m.Message,
		Metadata:     make(map[string]interface{}),
		CreatedAt:    m.CreatedAt,
	}

	if m.MetadataJSON != "" {
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(m.MetadataJSON), &metadata); err == nil {
			entry.Metadata = metadata
		}
	}

	return entry
}

// FromDomain populates the persistence model from a domain SyncLog entity.
func (m *SyncLogModel) FromDomain(entry *integration.SyncLog) {
	m.ID = entry.ID
	m.TenantID = entry.TenantID
	m.SubjectType = entry.SubjectType
	m.SubjectID = entry.SubjectID
	m.PlatformCode = entry.PlatformCode
	m.Action = entry.Action
	m.Status = entry.Status
	m.Message = entry.Message
	m.CreatedAt = entry.CreatedAt

	if len(entry.Metadata) > 0 {
		if jsonBytes, err := json.Marshal(entry.Metadata); err == nil {
			m.MetadataJSON = string(jsonBytes)
		}
	} else {
		m.MetadataJSON = "{}"
	}
}

// SyncLogModelFromDomain creates a new persistence model from a domain entity.
func SyncLogModelFromDomain(entry *integration.SyncLog) *SyncLogModel {
	m := &SyncLogModel{}
	m.FromDomain(entry)
	return m
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// CredentialModel is the persistence model for per-tenant service credentials.
type CredentialModel struct {
	TenantID      uuid.UUID `gorm:"type:uuid;primary_key"`
	Service       string    `gorm:"type:varchar(50);primary_key"`
	ClientID      string    `gorm:"type:varchar(255)"`
	ClientSecret  string    `gorm:"type:varchar(255)"`
	Scope         string    `gorm:"type:varchar(255)"`
	ChainCode     string    `gorm:"type:varchar(100)"`
	APIToken      string    `gorm:"type:varchar(255)"`
	BaseURL       string    `gorm:"type:varchar(255)"`
	TokenURL      string    `gorm:"type:varchar(255)"`
	WebhookSecret string    `gorm:"type:varchar(255)"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "service_credentials"
}

// ToDomain converts the persistence model to domain Credentials.
func (m *CredentialModel) ToDomain() *integration.Credentials {
	return &integration.Credentials{
		TenantID:      m.TenantID,
		Service:       m.Service,
		ClientID:      m.ClientID,
		ClientSecret:  m.ClientSecret,
		Scope:         m.Scope,
		ChainCode:     m.ChainCode,
		APIToken:      m.APIToken,
		BaseURL:       m.BaseURL,
		TokenURL:      m.TokenURL,
		WebhookSecret: m.WebhookSecret,
	}
}

// FromDomain populates the persistence model from domain Credentials.
func (m *CredentialModel) FromDomain(c *integration.Credentials) {
	m.TenantID = c.TenantID
	m.Service = c.Service
	m.ClientID = c.ClientID
	m.ClientSecret = c.ClientSecret
	m.Scope = c.Scope
	m.ChainCode = c.ChainCode
	m.APIToken = c.APIToken
	m.BaseURL = c.BaseURL
	m.TokenURL = c.TokenURL
	m.WebhookSecret = c.WebhookSecret
}

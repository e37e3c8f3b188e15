package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
)

// LocationModel is the persistence model for the Location entity.
type LocationModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index:idx_location_tenant"`
	Name             string    `gorm:"type:varchar(255);not null"`
	IsOpen           bool      `gorm:"not null;default:true"`
	IsBusy           bool      `gorm:"not null;default:false"`
	WeeklyHoursJSON  string    `gorm:"type:jsonb;column:weekly_hours"`
	CareemStoreID    string    `gorm:"type:varchar(100)"`
	TalabatVendorID  string    `gorm:"type:varchar(100)"`
	SyncStatusesJSON string    `gorm:"type:jsonb;column:platform_sync_statuses"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "locations"
}

// ToDomain converts the persistence model to a domain Location entity.
func (m *LocationModel) ToDomain() *location.Location {
	out := &location.Location{
		ID:                   m.ID,
		TenantID:             m.TenantID,
		Name:                 m.Name,
		IsOpen:               m.IsOpen,
		IsBusy:               m.IsBusy,
		WeeklyHours:          make([]integration.DayHours, 0),
		CareemStoreID:        m.CareemStoreID,
		TalabatVendorID:      m.TalabatVendorID,
		PlatformSyncStatuses: make(map[integration.PlatformCode]location.PlatformSyncStatus),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}

	if m.WeeklyHoursJSON != "" {
		var hours []integration.DayHours
		if err := json.Unmarshal([]byte(m.WeeklyHoursJSON), &hours); err == nil {
			out.WeeklyHours = hours
		}
	}
	if m.SyncStatusesJSON != "" {
		var statuses map[integration.PlatformCode]location.PlatformSyncStatus
		if err := json.Unmarshal([]byte(m.SyncStatusesJSON), &statuses); err == nil {
			out.PlatformSyncStatuses = statuses
		}
	}

	return out
}

// FromDomain populates the persistence model from a domain Location entity.
func (m *LocationModel) FromDomain(l *location.Location) {
	m.ID = l.ID
	m.TenantID = l.TenantID
	m.Name = l.Name
	m.IsOpen = l.IsOpen
	m.IsBusy = l.IsBusy
	m.CareemStoreID = l.CareemStoreID
	m.TalabatVendorID = l.TalabatVendorID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt

	m.WeeklyHoursJSON = marshalOrEmptyArray(l.WeeklyHours)
	if statusBytes, err := json.Marshal(l.PlatformSyncStatuses); err == nil {
		m.SyncStatusesJSON = string(statusBytes)
	} else {
		m.SyncStatusesJSON = "{}"
	}
}

// LocationModelFromDomain creates a new persistence model from a domain Location.
func LocationModelFromDomain(l *location.Location) *LocationModel {
	m := &LocationModel{}
	m.FromDomain(l)
	return m
}

// ---------------------------------------------------------------------------
// Careem Directory
// ---------------------------------------------------------------------------

// CareemBrandModel is the persistence model for Careem brand records.
type CareemBrandModel struct {
	ID        uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:uq_careem_brand,priority:1"`
	BrandID   string                `gorm:"type:varchar(100);not null;uniqueIndex:uq_careem_brand,priority:2"`
	Name      string                `gorm:"type:varchar(255)"`
	State     location.MappingState `gorm:"type:varchar(20);not null;default:'UNMAPPED'"`
	SyncedAt  time.Time             `gorm:"not null"`
	CreatedAt time.Time             `gorm:"not null"`
	UpdatedAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CareemBrandModel) TableName() string {
	return "careem_brands"
}

// ToDomain converts the persistence model to a domain CareemBrand.
func (m *CareemBrandModel) ToDomain() *location.CareemBrand {
	return &location.CareemBrand{
		ID:        m.ID,
		TenantID:  m.TenantID,
		BrandID:   m.BrandID,
		Name:      m.Name,
		State:     m.State,
		SyncedAt:  m.SyncedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CareemBrand.
func (m *CareemBrandModel) FromDomain(b *location.CareemBrand) {
	m.ID = b.ID
	m.TenantID = b.TenantID
	m.BrandID = b.BrandID
	m.Name = b.Name
	m.State = b.State
	m.SyncedAt = b.SyncedAt
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
}

// CareemBranchModel is the persistence model for Careem branch records.
type CareemBranchModel struct {
	ID                    uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID              uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:uq_careem_branch,priority:1"`
	BrandID               string                `gorm:"type:varchar(100);not null;index"`
	BranchID              string                `gorm:"type:varchar(100);not null;uniqueIndex:uq_careem_branch,priority:2"`
	Name                  string                `gorm:"type:varchar(255)"`
	LocationID            *uuid.UUID            `gorm:"type:uuid;index"`
	State                 location.MappingState `gorm:"type:varchar(20);not null;default:'UNMAPPED'"`
	POSIntegrationEnabled bool                  `gorm:"not null;default:false"`
	IsVisible             bool                  `gorm:"not null;default:true"`
	ClosedUntil           *time.Time
	SyncedAt              time.Time `gorm:"not null"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CareemBranchModel) TableName() string {
	return "careem_branches"
}

// ToDomain converts the persistence model to a domain CareemBranch.
func (m *CareemBranchModel) ToDomain() *location.CareemBranch {
	return &location.CareemBranch{
		ID:                    m.ID,
		TenantID:              m.TenantID,
		BrandID:               m.BrandID,
		BranchID:              m.BranchID,
		Name:                  m.Name,
		LocationID:            m.LocationID,
		State:                 m.State,
		POSIntegrationEnabled: m.POSIntegrationEnabled,
		IsVisible:             m.IsVisible,
		ClosedUntil:           m.ClosedUntil,
		SyncedAt:              m.SyncedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CareemBranch.
func (m *CareemBranchModel) FromDomain(b *location.CareemBranch) {
	m.ID = b.ID
	m.TenantID = b.TenantID
	m.BrandID = b.BrandID
	m.BranchID = b.BranchID
	m.Name = b.Name
	m.LocationID = b.LocationID
	m.State = b.State
	m.POSIntegrationEnabled = b.POSIntegrationEnabled
	m.IsVisible = b.IsVisible
	m.ClosedUntil = b.ClosedUntil
	m.SyncedAt = b.SyncedAt
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/menu"
)

// MenuModel is the persistence model for the Menu aggregate. The item and
// modifier-group graph is stored as JSONB; the aggregate is always loaded and
// saved whole.
type MenuModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_menu_tenant"`
	Name               string          `gorm:"type:varchar(255);not null"`
	Status             menu.MenuStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ItemsJSON          string          `gorm:"type:jsonb;column:items"`
	ModifierGroupsJSON string          `gorm:"type:jsonb;column:modifier_groups"`
	PlatformCodesJSON  string          `gorm:"type:jsonb;column:platform_codes"`
	LocationIDsJSON    string          `gorm:"type:jsonb;column:location_ids"`
	PublishedAt        *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MenuModel) TableName() string {
	return "menus"
}

// ToDomain converts the persistence model to a domain Menu aggregate.
func (m *MenuModel) ToDomain() *menu.Menu {
	out := &menu.Menu{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Name:           m.Name,
		Status:         m.Status,
		Items:          make([]menu.MenuItem, 0),
		ModifierGroups: make([]menu.ModifierGroup, 0),
		PlatformCodes:  make([]integration.PlatformCode, 0),
		LocationIDs:    make([]uuid.UUID, 0),
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if m.ItemsJSON != "" {
		var items []menu.MenuItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			out.Items = items
		}
	}
	if m.ModifierGroupsJSON != "" {
		var groups []menu.ModifierGroup
		if err := json.Unmarshal([]byte(m.ModifierGroupsJSON), &groups); err == nil {
			out.ModifierGroups = groups
		}
	}
	if m.PlatformCodesJSON != "" {
		var codes []integration.PlatformCode
		if err := json.Unmarshal([]byte(m.PlatformCodesJSON), &codes); err == nil {
			out.PlatformCodes = codes
		}
	}
	if m.LocationIDsJSON != "" {
		var ids []uuid.UUID
		if err := json.Unmarshal([]byte(m.LocationIDsJSON), &ids); err == nil {
			out.LocationIDs = ids
		}
	}

	return out
}

// FromDomain populates the persistence model from a domain Menu aggregate.
func (m *MenuModel) FromDomain(d *menu.Menu) {
	m.ID = d.ID
	m.TenantID = d.TenantID
	m.Name = d.Name
	m.Status = d.Status
	m.PublishedAt = d.PublishedAt
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	m.ItemsJSON = marshalOrEmptyArray(d.Items)
	m.ModifierGroupsJSON = marshalOrEmptyArray(d.ModifierGroups)
	m.PlatformCodesJSON = marshalOrEmptyArray(d.PlatformCodes)
	m.LocationIDsJSON = marshalOrEmptyArray(d.LocationIDs)
}

// MenuModelFromDomain creates a new persistence model from a domain Menu.
func MenuModelFromDomain(d *menu.Menu) *MenuModel {
	m := &MenuModel{}
	m.FromDomain(d)
	return m
}

func marshalOrEmptyArray(v interface{}) string {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(jsonBytes)
}

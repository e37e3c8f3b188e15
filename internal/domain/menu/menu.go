package menu

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/possync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Menu Errors
// ---------------------------------------------------------------------------

var (
	ErrMenuInvalidTenantID    = errors.New("menu: invalid tenant ID")
	ErrMenuInvalidName        = errors.New("menu: menu name is required")
	ErrMenuNotFound           = errors.New("menu: menu not found")
	ErrMenuItemNotFound       = errors.New("menu: menu item not found")
	ErrMenuGroupNotFound      = errors.New("menu: modifier group not found")
	ErrMenuAlreadyPublished   = errors.New("menu: menu is already published")
	ErrMenuNotPublished       = errors.New("menu: menu is not published")
	ErrMenuNoPlatforms        = errors.New("menu: at least one target platform is required to publish")
	ErrMenuNoLocations        = errors.New("menu: at least one location is required to publish")
	ErrMenuNoItems            = errors.New("menu: at least one item is required to publish")
	ErrMenuInvalidItemPrice   = errors.New("menu: item price must not be negative")
	ErrMenuInvalidSelection   = errors.New("menu: invalid modifier group selection bounds")
	ErrMenuInvalidGroupName   = errors.New("menu: modifier group name is required")
	ErrMenuInvalidItemName    = errors.New("menu: item name is required")
	ErrMenuInvalidModLink     = errors.New("menu: item references an unknown modifier group")
	ErrMenuInvalidPlatform    = errors.New("menu: invalid target platform")
	ErrMenuInvalidModName     = errors.New("menu: modifier name is required")
	ErrMenuDuplicatePlatform  = errors.New("menu: platform already assigned")
	ErrMenuDuplicateLocation  = errors.New("menu: location already assigned")
)

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

// MenuStatus represents the publication status of a menu
type MenuStatus string

const (
	// MenuStatusDraft indicates the menu is editable and unpublished
	MenuStatusDraft MenuStatus = "DRAFT"
	// MenuStatusPublished indicates the menu has been published to platforms
	MenuStatusPublished MenuStatus = "PUBLISHED"
)

// IsValid returns true if the status is valid
func (s MenuStatus) IsValid() bool {
	return s == MenuStatusDraft || s == MenuStatusPublished
}

// String returns the string representation of MenuStatus
func (s MenuStatus) String() string {
	return string(s)
}

// SelectionType represents how many modifiers a group allows
type SelectionType string

const (
	// SelectionSingle allows exactly one modifier choice
	SelectionSingle SelectionType = "SINGLE"
	// SelectionMultiple allows several modifier choices
	SelectionMultiple SelectionType = "MULTIPLE"
)

// IsValid returns true if the selection type is valid
func (t SelectionType) IsValid() bool {
	return t == SelectionSingle || t == SelectionMultiple
}

// String returns the string representation of SelectionType
func (t SelectionType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Modifier / ModifierGroup
// ---------------------------------------------------------------------------

// Modifier is one selectable option inside a modifier group
type Modifier struct {
	// ID is the unique identifier of this modifier
	ID uuid.UUID
	// Name is the modifier display name
	Name string
	// PriceDelta is added to the item price when selected
	PriceDelta decimal.Decimal
	// POSItemID links this modifier to a POS item when set
	POSItemID string
	// IsAvailable indicates if the modifier is currently offered
	IsAvailable bool
	// Position orders modifiers within their group
	Position int
}

// ModifierGroup is an ordered set of modifiers with selection rules
type ModifierGroup struct {
	// ID is the unique identifier of this group
	ID uuid.UUID
	// Name is the group display name
	Name string
	// SelectionType says whether one or several modifiers may be chosen
	SelectionType SelectionType
	// MinSelections is the minimum number of choices
	MinSelections int
	// MaxSelections is the maximum number of choices
	MaxSelections int
	// Required indicates the customer must choose from this group
	Required bool
	// Position orders groups within an item
	Position int
	// Modifiers are the choices, ordered by Position
	Modifiers []Modifier
}

// Validate validates the modifier group
func (g *ModifierGroup) Validate() error {
	if g.Name == "" {
		return ErrMenuInvalidGroupName
	}
	if !g.SelectionType.IsValid() {
		return ErrMenuInvalidSelection
	}
	if g.MinSelections < 0 || g.MaxSelections < 0 {
		return ErrMenuInvalidSelection
	}
	if g.MaxSelections > 0 && g.MinSelections > g.MaxSelections {
		return ErrMenuInvalidSelection
	}
	if g.SelectionType == SelectionSingle && g.MaxSelections > 1 {
		return ErrMenuInvalidSelection
	}
	for _, mod := range g.Modifiers {
		if mod.Name == "" {
			return ErrMenuInvalidModName
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// MenuItem
// ---------------------------------------------------------------------------

// MenuItem is one sellable item of a menu
type MenuItem struct {
	// ID is the unique identifier of this item
	ID uuid.UUID
	// Name is the item display name
	Name string
	// Description is the item description
	Description string
	// Price is the base selling price
	Price decimal.Decimal
	// TaxRate is the applicable tax rate in percent
	TaxRate decimal.Decimal
	// IsAvailable indicates if the item is currently offered
	IsAvailable bool
	// Category groups items on the published catalog
	Category string
	// POSItemID links this item to a POS item when set
	POSItemID string
	// POSVariantID links this item to a POS variant when set
	POSVariantID string
	// ImagePath is a relative or absolute image reference
	ImagePath string
	// Position orders items within the menu
	Position int
	// ModifierGroupIDs references the menu's modifier groups, ordered
	ModifierGroupIDs []uuid.UUID
}

// Validate validates the menu item
func (i *MenuItem) Validate() error {
	if i.Name == "" {
		return ErrMenuInvalidItemName
	}
	if i.Price.IsNegative() {
		return ErrMenuInvalidItemPrice
	}
	return nil
}

// ---------------------------------------------------------------------------
// Menu Aggregate
// ---------------------------------------------------------------------------

// Menu is the internally authored catalog. It owns its items and modifier
// groups; items reference groups by ID so a group shared by several items
// exists once.
type Menu struct {
	// ID is the unique identifier of this menu
	ID uuid.UUID
	// TenantID is the tenant this menu belongs to
	TenantID uuid.UUID
	// Name is the menu display name
	Name string
	// Status is the publication status
	Status MenuStatus
	// Items are the menu items, ordered by Position
	Items []MenuItem
	// ModifierGroups are the groups referenced by items
	ModifierGroups []ModifierGroup
	// PlatformCodes are the target platforms for publication
	PlatformCodes []integration.PlatformCode
	// LocationIDs are the physical locations this menu serves
	LocationIDs []uuid.UUID
	// PublishedAt is when the menu was last published
	PublishedAt *time.Time
	// CreatedAt is when the menu was created
	CreatedAt time.Time
	// UpdatedAt is when the menu was last updated
	UpdatedAt time.Time
}

// NewMenu creates a new draft menu
func NewMenu(tenantID uuid.UUID, name string) (*Menu, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMenuInvalidTenantID
	}
	if name == "" {
		return nil, ErrMenuInvalidName
	}

	now := time.Now()
	return &Menu{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Name:           name,
		Status:         MenuStatusDraft,
		Items:          make([]MenuItem, 0),
		ModifierGroups: make([]ModifierGroup, 0),
		PlatformCodes:  make([]integration.PlatformCode, 0),
		LocationIDs:    make([]uuid.UUID, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AddModifierGroup adds a modifier group to the menu
func (m *Menu) AddModifierGroup(group ModifierGroup) error {
	if err := group.Validate(); err != nil {
		return err
	}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	m.ModifierGroups = append(m.ModifierGroups, group)
	m.UpdatedAt = time.Now()
	return nil
}

// AddItem adds an item to the menu. Every referenced modifier group must
// already exist on the menu.
func (m *Menu) AddItem(item MenuItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	for _, groupID := range item.ModifierGroupIDs {
		if m.FindModifierGroup(groupID) == nil {
			return ErrMenuInvalidModLink
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.Items = append(m.Items, item)
	m.UpdatedAt = time.Now()
	return nil
}

// FindItem returns the item with the given ID, nil when absent
func (m *Menu) FindItem(id uuid.UUID) *MenuItem {
	for i := range m.Items {
		if m.Items[i].ID == id {
			return &m.Items[i]
		}
	}
	return nil
}

// FindModifierGroup returns the group with the given ID, nil when absent
func (m *Menu) FindModifierGroup(id uuid.UUID) *ModifierGroup {
	for i := range m.ModifierGroups {
		if m.ModifierGroups[i].ID == id {
			return &m.ModifierGroups[i]
		}
	}
	return nil
}

// SetItemAvailability toggles whether an item is offered
func (m *Menu) SetItemAvailability(itemID uuid.UUID, available bool) error {
	item := m.FindItem(itemID)
	if item == nil {
		return ErrMenuItemNotFound
	}
	item.IsAvailable = available
	m.UpdatedAt = time.Now()
	return nil
}

// AssignPlatform adds a target platform
func (m *Menu) AssignPlatform(code integration.PlatformCode) error {
	if !code.IsValid() {
		return ErrMenuInvalidPlatform
	}
	for _, existing := range m.PlatformCodes {
		if existing == code {
			return ErrMenuDuplicatePlatform
		}
	}
	m.PlatformCodes = append(m.PlatformCodes, code)
	m.UpdatedAt = time.Now()
	return nil
}

// UnassignPlatform removes a target platform
func (m *Menu) UnassignPlatform(code integration.PlatformCode) {
	for i, existing := range m.PlatformCodes {
		if existing == code {
			m.PlatformCodes = append(m.PlatformCodes[:i], m.PlatformCodes[i+1:]...)
			m.UpdatedAt = time.Now()
			return
		}
	}
}

// AssignLocation adds a serviced location
func (m *Menu) AssignLocation(locationID uuid.UUID) error {
	for _, existing := range m.LocationIDs {
		if existing == locationID {
			return ErrMenuDuplicateLocation
		}
	}
	m.LocationIDs = append(m.LocationIDs, locationID)
	m.UpdatedAt = time.Now()
	return nil
}

// CanPublish validates the publication preconditions without changing state
func (m *Menu) CanPublish() error {
	if len(m.PlatformCodes) == 0 {
		return ErrMenuNoPlatforms
	}
	if len(m.LocationIDs) == 0 {
		return ErrMenuNoLocations
	}
	if len(m.Items) == 0 {
		return ErrMenuNoItems
	}
	return nil
}

// Publish transitions the menu to published. Requires at least one target
// platform, one location and one item.
func (m *Menu) Publish() error {
	if err := m.CanPublish(); err != nil {
		return err
	}
	now := time.Now()
	m.Status = MenuStatusPublished
	m.PublishedAt = &now
	m.UpdatedAt = now
	return nil
}

// Unpublish transitions the menu back to draft
func (m *Menu) Unpublish() error {
	if m.Status != MenuStatusPublished {
		return ErrMenuNotPublished
	}
	m.Status = MenuStatusDraft
	m.UpdatedAt = time.Now()
	return nil
}

// Duplicate creates a full deep copy of the menu as a new draft. Items,
// modifier groups and modifiers receive fresh IDs; item group references are
// remapped onto the copied groups. Platform and location associations carry
// over.
func (m *Menu) Duplicate(name string) (*Menu, error) {
	if name == "" {
		name = m.Name + " (copy)"
	}
	copied, err := NewMenu(m.TenantID, name)
	if err != nil {
		return nil, err
	}

	groupIDMap := make(map[uuid.UUID]uuid.UUID, len(m.ModifierGroups))
	for _, group := range m.ModifierGroups {
		newGroup := group
		newGroup.ID = uuid.New()
		newGroup.Modifiers = make([]Modifier, len(group.Modifiers))
		for i, mod := range group.Modifiers {
			newMod := mod
			newMod.ID = uuid.New()
			newGroup.Modifiers[i] = newMod
		}
		groupIDMap[group.ID] = newGroup.ID
		copied.ModifierGroups = append(copied.ModifierGroups, newGroup)
	}

	for _, item := range m.Items {
		newItem := item
		newItem.ID = uuid.New()
		newItem.ModifierGroupIDs = make([]uuid.UUID, 0, len(item.ModifierGroupIDs))
		for _, groupID := range item.ModifierGroupIDs {
			if mapped, ok := groupIDMap[groupID]; ok {
				newItem.ModifierGroupIDs = append(newItem.ModifierGroupIDs, mapped)
			}
		}
		copied.Items = append(copied.Items, newItem)
	}

	copied.PlatformCodes = append([]integration.PlatformCode(nil), m.PlatformCodes...)
	copied.LocationIDs = append([]uuid.UUID(nil), m.LocationIDs...)
	return copied, nil
}

// ---------------------------------------------------------------------------
// MenuRepository Interface
// ---------------------------------------------------------------------------

// MenuFilter defines filter criteria for menus
type MenuFilter struct {
	// Status filters by publication status (optional)
	Status *MenuStatus
	// SearchKeyword searches menu names (optional)
	SearchKeyword string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// MenuRepository persists menus with their full item/modifier graph
type MenuRepository interface {
	// FindByID loads a menu with its full graph
	FindByID(ctx context.Context, id uuid.UUID) (*Menu, error)

	// FindAll finds menus for a tenant with optional filters
	FindAll(ctx context.Context, tenantID uuid.UUID, filter MenuFilter) ([]Menu, error)

	// Count counts menus matching the filter
	Count(ctx context.Context, tenantID uuid.UUID, filter MenuFilter) (int64, error)

	// Save creates or updates a menu and its graph
	Save(ctx context.Context, m *Menu) error

	// Delete removes a menu and its graph
	Delete(ctx context.Context, id uuid.UUID) error
}

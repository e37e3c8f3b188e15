package menu

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/menu"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// ModifierRequest is one modifier within a group request
type ModifierRequest struct {
	Name        string          `json:"name" binding:"required"`
	PriceDelta  decimal.Decimal `json:"price_delta"`
	POSItemID   string          `json:"pos_item_id"`
	IsAvailable *bool           `json:"is_available"`
}

// ModifierGroupRequest is one modifier group within a menu request. Key is a
// request-local handle items use to reference the group; the server assigns
// the persistent ID.
type ModifierGroupRequest struct {
	Key           string            `json:"key" binding:"required"`
	Name          string            `json:"name" binding:"required"`
	SelectionType string            `json:"selection_type" binding:"required,oneof=SINGLE MULTIPLE"`
	MinSelections int               `json:"min_selections"`
	MaxSelections int               `json:"max_selections"`
	Required      bool              `json:"required"`
	Modifiers     []ModifierRequest `json:"modifiers" binding:"dive"`
}

func (r *ModifierGroupRequest) toDomain(position int) menu.ModifierGroup {
	modifiers := make([]menu.Modifier, len(r.Modifiers))
	for i, mod := range r.Modifiers {
		available := true
		if mod.IsAvailable != nil {
			available = *mod.IsAvailable
		}
		modifiers[i] = menu.Modifier{
			Name:        mod.Name,
			PriceDelta:  mod.PriceDelta,
			POSItemID:   mod.POSItemID,
			IsAvailable: available,
			Position:    i,
		}
	}
	return menu.ModifierGroup{
		Name:          r.Name,
		SelectionType: menu.SelectionType(r.SelectionType),
		MinSelections: r.MinSelections,
		MaxSelections: r.MaxSelections,
		Required:      r.Required,
		Position:      position,
		Modifiers:     modifiers,
	}
}

// MenuItemRequest is one item within a menu request
type MenuItemRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	IsAvailable    *bool           `json:"is_available"`
	Category       string          `json:"category"`
	POSItemID      string          `json:"pos_item_id"`
	POSVariantID   string          `json:"pos_variant_id"`
	ImagePath      string          `json:"image_path"`
	ModifierGroups []string        `json:"modifier_groups"`
}

func (r *MenuItemRequest) toDomain(position int, groupIDs map[string]uuid.UUID) (menu.MenuItem, error) {
	refs := make([]uuid.UUID, 0, len(r.ModifierGroups))
	for _, key := range r.ModifierGroups {
		id, ok := groupIDs[key]
		if !ok {
			return menu.MenuItem{}, menu.ErrMenuInvalidModLink
		}
		refs = append(refs, id)
	}

	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return menu.MenuItem{
		Name:             r.Name,
		Description:      r.Description,
		Price:            r.Price,
		TaxRate:          r.TaxRate,
		IsAvailable:      available,
		Category:         r.Category,
		POSItemID:        r.POSItemID,
		POSVariantID:     r.POSVariantID,
		ImagePath:        r.ImagePath,
		Position:         position,
		ModifierGroupIDs: refs,
	}, nil
}

// CreateMenuRequest is the payload for creating a menu
type CreateMenuRequest struct {
	Name           string                 `json:"name" binding:"required"`
	ModifierGroups []ModifierGroupRequest `json:"modifier_groups" binding:"dive"`
	Items          []MenuItemRequest      `json:"items" binding:"dive"`
	Platforms      []string               `json:"platforms" binding:"dive,oneof=CAREEM TALABAT"`
	LocationIDs    []string               `json:"location_ids" binding:"dive,uuid"`
}

// PlatformCodes parses the request's platform strings
func (r *CreateMenuRequest) PlatformCodes() []integration.PlatformCode {
	return toPlatformCodes(r.Platforms)
}

// LocationUUIDs parses the request's location ID strings
func (r *CreateMenuRequest) LocationUUIDs() []uuid.UUID {
	return toUUIDs(r.LocationIDs)
}

// UpdateMenuRequest is the payload for updating a menu. Nil slices leave
// the corresponding section untouched.
type UpdateMenuRequest struct {
	Name           string                 `json:"name"`
	ModifierGroups []ModifierGroupRequest `json:"modifier_groups" binding:"dive"`
	Items          []MenuItemRequest      `json:"items" binding:"dive"`
	Platforms      []string               `json:"platforms" binding:"dive,oneof=CAREEM TALABAT"`
	LocationIDs    []string               `json:"location_ids" binding:"dive,uuid"`
}

// PlatformCodes parses the request's platform strings
func (r *UpdateMenuRequest) PlatformCodes() []integration.PlatformCode {
	return toPlatformCodes(r.Platforms)
}

// LocationUUIDs parses the request's location ID strings
func (r *UpdateMenuRequest) LocationUUIDs() []uuid.UUID {
	return toUUIDs(r.LocationIDs)
}

// DuplicateMenuRequest is the payload for duplicating a menu
type DuplicateMenuRequest struct {
	Name string `json:"name"`
}

// SetItemAvailabilityRequest is the payload for toggling one item
type SetItemAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

func toPlatformCodes(values []string) []integration.PlatformCode {
	codes := make([]integration.PlatformCode, len(values))
	for i, v := range values {
		codes[i] = integration.PlatformCode(v)
	}
	return codes
}

func toUUIDs(values []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// ModifierResponse is the API representation of a modifier
type ModifierResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	PriceDelta  decimal.Decimal `json:"price_delta"`
	POSItemID   string          `json:"pos_item_id,omitempty"`
	IsAvailable bool            `json:"is_available"`
	Position    int             `json:"position"`
}

// ModifierGroupResponse is the API representation of a modifier group
type ModifierGroupResponse struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	SelectionType string             `json:"selection_type"`
	MinSelections int                `json:"min_selections"`
	MaxSelections int                `json:"max_selections"`
	Required      bool               `json:"required"`
	Position      int                `json:"position"`
	Modifiers     []ModifierResponse `json:"modifiers"`
}

// MenuItemResponse is the API representation of a menu item
type MenuItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Price            decimal.Decimal `json:"price"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	IsAvailable      bool            `json:"is_available"`
	Category         string          `json:"category,omitempty"`
	POSItemID        string          `json:"pos_item_id,omitempty"`
	POSVariantID     string          `json:"pos_variant_id,omitempty"`
	ImagePath        string          `json:"image_path,omitempty"`
	Position         int             `json:"position"`
	ModifierGroupIDs []uuid.UUID     `json:"modifier_group_ids,omitempty"`
}

// MenuResponse is the API representation of a menu
type MenuResponse struct {
	ID             uuid.UUID               `json:"id"`
	Name           string                  `json:"name"`
	Status         string                  `json:"status"`
	Items          []MenuItemResponse      `json:"items"`
	ModifierGroups []ModifierGroupResponse `json:"modifier_groups"`
	Platforms      []string                `json:"platforms"`
	LocationIDs    []uuid.UUID             `json:"location_ids"`
	PublishedAt    *time.Time              `json:"published_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ToMenuResponse converts a domain menu to a response DTO
func ToMenuResponse(m *menu.Menu) *MenuResponse {
	items := make([]MenuItemResponse, len(m.Items))
	for i, item := range m.Items {
		items[i] = MenuItemResponse{
			ID:               item.ID,
			Name:             item.Name,
			Description:      item.Description,
			Price:            item.Price,
			TaxRate:          item.TaxRate,
			IsAvailable:      item.IsAvailable,
			Category:         item.Category,
			POSItemID:        item.POSItemID,
			POSVariantID:     item.POSVariantID,
			ImagePath:        item.ImagePath,
			Position:         item.Position,
			ModifierGroupIDs: item.ModifierGroupIDs,
		}
	}

	groups := make([]ModifierGroupResponse, len(m.ModifierGroups))
	for i, group := range m.ModifierGroups {
		modifiers := make([]ModifierResponse, len(group.Modifiers))
		for j, mod := range group.Modifiers {
			modifiers[j] = ModifierResponse{
				ID:          mod.ID,
				Name:        mod.Name,
				PriceDelta:  mod.PriceDelta,
				POSItemID:   mod.POSItemID,
				IsAvailable: mod.IsAvailable,
				Position:    mod.Position,
			}
		}
		groups[i] = ModifierGroupResponse{
			ID:            group.ID,
			Name:          group.Name,
			SelectionType: group.SelectionType.String(),
			MinSelections: group.MinSelections,
			MaxSelections: group.MaxSelections,
			Required:      group.Required,
			Position:      group.Position,
			Modifiers:     modifiers,
		}
	}

	platforms := make([]string, len(m.PlatformCodes))
	for i, code := range m.PlatformCodes {
		platforms[i] = string(code)
	}

	return &MenuResponse{
		ID:             m.ID,
		Name:           m.Name,
		Status:         m.Status.String(),
		Items:          items,
		ModifierGroups: groups,
		Platforms:      platforms,
		LocationIDs:    m.LocationIDs,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToMenuResponses converts a slice of domain menus
func ToMenuResponses(menus []menu.Menu) []MenuResponse {
	responses := make([]MenuResponse, len(menus))
	for i := range menus {
		responses[i] = *ToMenuResponse(&menus[i])
	}
	return responses
}

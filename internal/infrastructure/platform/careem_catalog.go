package platform

import (
	"encoding/json"
	"strings"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/menu"
)

// defaultCategoryName is synthesized when menu items carry no category.
// Careem's schema requires every item to belong to a category.
const defaultCategoryName = "Menu"

// ---------------------------------------------------------------------------
// Careem catalog wire format
// ---------------------------------------------------------------------------

// CareemCatalogDocument is the nested catalog shape Careem accepts:
// top-level categories, items and modifier groups arrays.
type CareemCatalogDocument struct {
	Categories     []CareemCategory      `json:"categories"`
	Items          []CareemItem          `json:"items"`
	ModifierGroups []CareemModifierGroup `json:"modifier_groups"`
}

// CareemCategory is one catalog category
type CareemCategory struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	ItemIDs []string `json:"item_ids"`
}

// CareemItem is one catalog item
type CareemItem struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Price            string   `json:"price"`
	TaxRate          string   `json:"tax_rate,omitempty"`
	Available        bool     `json:"available"`
	ImageURL         string   `json:"image_url,omitempty"`
	ModifierGroupIDs []string `json:"modifier_group_ids,omitempty"`
}

// CareemModifierGroup is one catalog modifier group
type CareemModifierGroup struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	SelectionType string           `json:"selection_type"`
	MinSelections int              `json:"min_selections"`
	MaxSelections int              `json:"max_selections"`
	Required      bool             `json:"required"`
	Modifiers     []CareemModifier `json:"modifiers"`
}

// CareemModifier is one selectable option
type CareemModifier struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

// PlatformCode returns the platform this document is shaped for
func (d *CareemCatalogDocument) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeCareem
}

// MarshalBody serializes the document into Careem's wire format
func (d *CareemCatalogDocument) MarshalBody() ([]byte, error) {
	return json.Marshal(d)
}

// Ensure CareemCatalogDocument implements CatalogDocument
var _ integration.CatalogDocument = (*CareemCatalogDocument)(nil)

// ---------------------------------------------------------------------------
// Careem catalog builder
// ---------------------------------------------------------------------------

// CareemCatalogBuilder transforms menus into Careem catalog documents.
// Pure mapping, no network I/O.
type CareemCatalogBuilder struct {
	cdnBaseURL string
}

// NewCareemCatalogBuilder creates a builder resolving relative image paths
// against cdnBaseURL
func NewCareemCatalogBuilder(cdnBaseURL string) *CareemCatalogBuilder {
	return &CareemCatalogBuilder{cdnBaseURL: cdnBaseURL}
}

// PlatformCode returns the platform this transformer targets
func (b *CareemCatalogBuilder) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeCareem
}

// Transform builds a Careem catalog document from the menu. Items are grouped
// by category (a default category is synthesized for uncategorized items) and
// each modifier group referenced by any item appears exactly once, however
// many items share it.
func (b *CareemCatalogBuilder) Transform(m *menu.Menu) (integration.CatalogDocument, error) {
	doc := &CareemCatalogDocument{
		Categories:     make([]CareemCategory, 0),
		Items:          make([]CareemItem, 0, len(m.Items)),
		ModifierGroups: make([]CareemModifierGroup, 0),
	}

	categoryItems := make(map[string][]string)
	categoryOrder := make([]string, 0)
	usedGroups := make(map[string]bool)

	for _, item := range m.Items {
		groupIDs := make([]string, 0, len(item.ModifierGroupIDs))
		for _, groupID := range item.ModifierGroupIDs {
			group := m.FindModifierGroup(groupID)
			if group == nil {
				continue
			}
			groupIDs = append(groupIDs, group.ID.String())
			if !usedGroups[group.ID.String()] {
				usedGroups[group.ID.String()] = true
				doc.ModifierGroups = append(doc.ModifierGroups, buildCareemModifierGroup(group))
			}
		}

		doc.Items = append(doc.Items, CareemItem{
			ID:               item.ID.String(),
			Name:             item.Name,
			Description:      item.Description,
			Price:            item.Price.StringFixed(2),
			TaxRate:          item.TaxRate.String(),
			Available:        item.IsAvailable,
			ImageURL:         ResolveImageURL(b.cdnBaseURL, item.ImagePath),
			ModifierGroupIDs: groupIDs,
		})

		category := item.Category
		if category == "" {
			category = defaultCategoryName
		}
		if _, seen := categoryItems[category]; !seen {
			categoryOrder = append(categoryOrder, category)
		}
		categoryItems[category] = append(categoryItems[category], item.ID.String())
	}

	for _, name := range categoryOrder {
		doc.Categories = append(doc.Categories, CareemCategory{
			ID:      categorySlug(name),
			Name:    name,
			ItemIDs: categoryItems[name],
		})
	}

	return doc, nil
}

func buildCareemModifierGroup(group *menu.ModifierGroup) CareemModifierGroup {
	out := CareemModifierGroup{
		ID:            group.ID.String(),
		Name:          group.Name,
		SelectionType: strings.ToLower(group.SelectionType.String()),
		MinSelections: group.MinSelections,
		MaxSelections: group.MaxSelections,
		Required:      group.Required,
		Modifiers:     make([]CareemModifier, 0, len(group.Modifiers)),
	}
	for _, mod := range group.Modifiers {
		out.Modifiers = append(out.Modifiers, CareemModifier{
			ID:        mod.ID.String(),
			Name:      mod.Name,
			Price:     mod.PriceDelta.StringFixed(2),
			Available: mod.IsAvailable,
		})
	}
	return out
}

// categorySlug derives a stable category identifier from its name
func categorySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return "cat-" + slug
}

// ResolveImageURL resolves a menu item image reference against the CDN base.
// Absolute URLs pass through untouched; empty paths stay empty.
func ResolveImageURL(cdnBaseURL, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
		return imagePath
	}
	if cdnBaseURL == "" {
		return imagePath
	}
	return strings.TrimSuffix(cdnBaseURL, "/") + "/" + strings.TrimPrefix(imagePath, "/")
}

// Ensure CareemCatalogBuilder implements CatalogTransformer
var _ menu.CatalogTransformer = (*CareemCatalogBuilder)(nil)

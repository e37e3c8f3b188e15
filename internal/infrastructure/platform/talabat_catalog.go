package platform

import (
	"encoding/json"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/menu"
)

// Talabat record types. The import body is one flat dictionary of typed
// records rather than nested arrays; each record names its own type.
const (
	talabatTypeCategory        = "Category"
	talabatTypeProduct         = "Product"
	talabatTypeToppingTemplate = "ToppingTemplate"
	talabatTypeTopping         = "Topping"
)

// ---------------------------------------------------------------------------
// Talabat catalog wire format
// ---------------------------------------------------------------------------

// TalabatCatalogDocument is the flat catalog shape Talabat accepts: the
// vendor list, a dictionary of typed records keyed by record id, and an
// optional callback URL for the asynchronous import result.
type TalabatCatalogDocument struct {
	Vendors     []string                 `json:"vendors"`
	Items       map[string]TalabatRecord `json:"items"`
	CallbackURL string                   `json:"callbackUrl,omitempty"`
}

// TalabatRecord is one entry of the flat items dictionary. Fields are
// populated according to Type; the zero values of unused fields are omitted.
type TalabatRecord struct {
	Type        string            `json:"type"`
	Name        map[string]string `json:"name"`
	Description map[string]string `json:"description,omitempty"`
	Price       string            `json:"price,omitempty"`
	Active      bool              `json:"active"`
	Image       string            `json:"image,omitempty"`
	// Products lists the product ids of a category
	Products []string `json:"products,omitempty"`
	// Toppings lists topping ids of a topping template
	Toppings []string `json:"toppings,omitempty"`
	// ToppingTemplates lists template ids attached to a product
	ToppingTemplates []string `json:"toppingTemplates,omitempty"`
	// Quantity bounds selections on a topping template
	Quantity *TalabatQuantity `json:"quantity,omitempty"`
}

// TalabatQuantity bounds how many toppings may be chosen from a template
type TalabatQuantity struct {
	Minimum int `json:"minimum"`
	Maximum int `json:"maximum"`
}

// PlatformCode returns the platform this document is shaped for
func (d *TalabatCatalogDocument) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeTalabat
}

// MarshalBody serializes the document into Talabat's wire format
func (d *TalabatCatalogDocument) MarshalBody() ([]byte, error) {
	return json.Marshal(d)
}

// Ensure TalabatCatalogDocument implements CatalogDocument
var _ integration.CatalogDocument = (*TalabatCatalogDocument)(nil)

// ---------------------------------------------------------------------------
// Talabat catalog builder
// ---------------------------------------------------------------------------

// TalabatCatalogBuilder transforms menus into Talabat catalog documents.
// Pure mapping, no network I/O.
type TalabatCatalogBuilder struct {
	cdnBaseURL  string
	callbackURL string
}

// NewTalabatCatalogBuilder creates a builder resolving relative image paths
// against cdnBaseURL. callbackURL, when set, is carried on every document so
// Talabat can deliver asynchronous import results.
func NewTalabatCatalogBuilder(cdnBaseURL, callbackURL string) *TalabatCatalogBuilder {
	return &TalabatCatalogBuilder{cdnBaseURL: cdnBaseURL, callbackURL: callbackURL}
}

// PlatformCode returns the platform this transformer targets
func (b *TalabatCatalogBuilder) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeTalabat
}

// Transform builds a Talabat catalog document from the menu. The nested menu
// graph is flattened into one typed dictionary: categories reference their
// products, products reference their topping templates, templates reference
// toppings. A shared modifier group becomes a single template record however
// many products attach it. Items without a category fall into a synthesized
// default category.
func (b *TalabatCatalogBuilder) Transform(m *menu.Menu) (integration.CatalogDocument, error) {
	doc := &TalabatCatalogDocument{
		Vendors:     make([]string, 0),
		Items:       make(map[string]TalabatRecord),
		CallbackURL: b.callbackURL,
	}

	categoryProducts := make(map[string][]string)
	categoryOrder := make([]string, 0)

	for _, item := range m.Items {
		templateIDs := make([]string, 0, len(item.ModifierGroupIDs))
		for _, groupID := range item.ModifierGroupIDs {
			group := m.FindModifierGroup(groupID)
			if group == nil {
				continue
			}
			templateID := group.ID.String()
			templateIDs = append(templateIDs, templateID)
			if _, seen := doc.Items[templateID]; !seen {
				b.addToppingTemplate(doc, group)
			}
		}

		productID := item.ID.String()
		doc.Items[productID] = TalabatRecord{
			Type:             talabatTypeProduct,
			Name:             talabatText(item.Name),
			Description:      talabatOptionalText(item.Description),
			Price:            item.Price.StringFixed(2),
			Active:           item.IsAvailable,
			Image:            ResolveImageURL(b.cdnBaseURL, item.ImagePath),
			ToppingTemplates: templateIDs,
		}

		category := item.Category
		if category == "" {
			category = defaultCategoryName
		}
		if _, seen := categoryProducts[category]; !seen {
			categoryOrder = append(categoryOrder, category)
		}
		categoryProducts[category] = append(categoryProducts[category], productID)
	}

	for _, name := range categoryOrder {
		doc.Items[categorySlug(name)] = TalabatRecord{
			Type:     talabatTypeCategory,
			Name:     talabatText(name),
			Active:   true,
			Products: categoryProducts[name],
		}
	}

	return doc, nil
}

func (b *TalabatCatalogBuilder) addToppingTemplate(doc *TalabatCatalogDocument, group *menu.ModifierGroup) {
	toppingIDs := make([]string, 0, len(group.Modifiers))
	for _, mod := range group.Modifiers {
		toppingID := mod.ID.String()
		toppingIDs = append(toppingIDs, toppingID)
		doc.Items[toppingID] = TalabatRecord{
			Type:   talabatTypeTopping,
			Name:   talabatText(mod.Name),
			Price:  mod.PriceDelta.StringFixed(2),
			Active: mod.IsAvailable,
		}
	}

	minimum := group.MinSelections
	maximum := group.MaxSelections
	if group.SelectionType == menu.SelectionSingle {
		maximum = 1
	}

	doc.Items[group.ID.String()] = TalabatRecord{
		Type:     talabatTypeToppingTemplate,
		Name:     talabatText(group.Name),
		Active:   true,
		Toppings: toppingIDs,
		Quantity: &TalabatQuantity{Minimum: minimum, Maximum: maximum},
	}
}

// talabatText wraps a display string in Talabat's localized-text shape
func talabatText(s string) map[string]string {
	return map[string]string{"default": s}
}

func talabatOptionalText(s string) map[string]string {
	if s == "" {
		return nil
	}
	return talabatText(s)
}

// Ensure TalabatCatalogBuilder implements CatalogTransformer
var _ menu.CatalogTransformer = (*TalabatCatalogBuilder)(nil)

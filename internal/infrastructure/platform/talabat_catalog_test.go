package platform

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/menu"
)

func TestTalabatCatalogBuilder_Transform(t *testing.T) {
	builder := NewTalabatCatalogBuilder("https://cdn.example.com", "https://api.example.com/callbacks/talabat")

	transform := func(t *testing.T, m *menu.Menu) *TalabatCatalogDocument {
		t.Helper()
		result, err := builder.Transform(m)
		require.NoError(t, err)
		doc, ok := result.(*TalabatCatalogDocument)
		require.True(t, ok)
		return doc
	}

	t.Run("flattens the menu graph into typed records", func(t *testing.T) {
		m, groupID := buildTestMenu(t)
		doc := transform(t, m)

		// 3 products + 2 categories + 1 template + 2 toppings
		assert.Len(t, doc.Items, 8)

		product := doc.Items[m.Items[0].ID.String()]
		assert.Equal(t, talabatTypeProduct, product.Type)
		assert.Equal(t, "Shawarma", product.Name["default"])
		assert.Equal(t, "18.00", product.Price)
		assert.Equal(t, []string{groupID.String()}, product.ToppingTemplates)

		category := doc.Items["cat-wraps"]
		assert.Equal(t, talabatTypeCategory, category.Type)
		assert.Len(t, category.Products, 2)
	})

	t.Run("shared modifier group becomes one template record", func(t *testing.T) {
		m, groupID := buildTestMenu(t)
		doc := transform(t, m)

		templates := 0
		for _, record := range doc.Items {
			if record.Type == talabatTypeToppingTemplate {
				templates++
			}
		}
		assert.Equal(t, 1, templates)

		template := doc.Items[groupID.String()]
		assert.Equal(t, talabatTypeToppingTemplate, template.Type)
		assert.Len(t, template.Toppings, 2)
	})

	t.Run("single selection caps the quantity maximum at one", func(t *testing.T) {
		m, groupID := buildTestMenu(t)
		doc := transform(t, m)

		template := doc.Items[groupID.String()]
		require.NotNil(t, template.Quantity)
		assert.Equal(t, 1, template.Quantity.Minimum)
		assert.Equal(t, 1, template.Quantity.Maximum)
	})

	t.Run("uncategorized items fall into a default category", func(t *testing.T) {
		m, _ := buildTestMenu(t)
		doc := transform(t, m)

		category, ok := doc.Items["cat-menu"]
		require.True(t, ok)
		assert.Equal(t, talabatTypeCategory, category.Type)
		assert.Equal(t, defaultCategoryName, category.Name["default"])
		assert.Equal(t, []string{m.Items[2].ID.String()}, category.Products)
	})

	t.Run("callback URL and empty vendor list are carried", func(t *testing.T) {
		m, _ := buildTestMenu(t)
		doc := transform(t, m)

		assert.Equal(t, "https://api.example.com/callbacks/talabat", doc.CallbackURL)
		assert.Empty(t, doc.Vendors)
	})

	t.Run("references to unknown modifier groups are dropped", func(t *testing.T) {
		m, _ := buildTestMenu(t)
		m.Items[2].ModifierGroupIDs = []uuid.UUID{uuid.New()}
		doc := transform(t, m)

		product := doc.Items[m.Items[2].ID.String()]
		assert.Empty(t, product.ToppingTemplates)
	})

	t.Run("document reports the right platform", func(t *testing.T) {
		m, _ := buildTestMenu(t)
		doc := transform(t, m)

		assert.Equal(t, integration.PlatformCodeTalabat, doc.PlatformCode())
	})
}

package menu

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/possync/backend/internal/domain/integration"
)

func buildMenu(t *testing.T) *Menu {
	t.Helper()
	m, err := NewMenu(uuid.New(), "Lunch")
	require.NoError(t, err)
	return m
}

func TestNewMenu(t *testing.T) {
	t.Run("Valid menu", func(t *testing.T) {
		m, err := NewMenu(uuid.New(), "Lunch")
		require.NoError(t, err)
		assert.Equal(t, MenuStatusDraft, m.Status)
		assert.Empty(t, m.Items)
	})

	t.Run("Invalid tenant", func(t *testing.T) {
		_, err := NewMenu(uuid.Nil, "Lunch")
		assert.ErrorIs(t, err, ErrMenuInvalidTenantID)
	})

	t.Run("Empty name", func(t *testing.T) {
		_, err := NewMenu(uuid.New(), "")
		assert.ErrorIs(t, err, ErrMenuInvalidName)
	})
}

func TestMenu_AddItem(t *testing.T) {
	m := buildMenu(t)

	t.Run("Valid item", func(t *testing.T) {
		err := m.AddItem(MenuItem{Name: "Falafel Wrap", Price: decimal.NewFromFloat(3.5), IsAvailable: true})
		require.NoError(t, err)
		assert.Len(t, m.Items, 1)
		assert.NotEqual(t, uuid.Nil, m.Items[0].ID)
	})

	t.Run("Negative price rejected", func(t *testing.T) {
		err := m.AddItem(MenuItem{Name: "Bad", Price: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, ErrMenuInvalidItemPrice)
	})

	t.Run("Unknown modifier group rejected", func(t *testing.T) {
		err := m.AddItem(MenuItem{
			Name:             "Wrap",
			Price:            decimal.NewFromInt(4),
			ModifierGroupIDs: []uuid.UUID{uuid.New()},
		})
		assert.ErrorIs(t, err, ErrMenuInvalidModLink)
	})
}

func TestModifierGroup_Validate(t *testing.T) {
	t.Run("Single selection with max above one", func(t *testing.T) {
		g := ModifierGroup{Name: "Size", SelectionType: SelectionSingle, MaxSelections: 3}
		assert.ErrorIs(t, g.Validate(), ErrMenuInvalidSelection)
	})

	t.Run("Min above max", func(t *testing.T) {
		g := ModifierGroup{Name: "Extras", SelectionType: SelectionMultiple, MinSelections: 4, MaxSelections: 2}
		assert.ErrorIs(t, g.Validate(), ErrMenuInvalidSelection)
	})

	t.Run("Valid multiple group", func(t *testing.T) {
		g := ModifierGroup{
			Name:          "Extras",
			SelectionType: SelectionMultiple,
			MinSelections: 0,
			MaxSelections: 3,
			Modifiers:     []Modifier{{Name: "Cheese", PriceDelta: decimal.NewFromFloat(0.5)}},
		}
		assert.NoError(t, g.Validate())
	})
}

func TestMenu_Publish(t *testing.T) {
	t.Run("No platforms rejected", func(t *testing.T) {
		m := buildMenu(t)
		require.NoError(t, m.AddItem(MenuItem{Name: "Item", Price: decimal.NewFromInt(1)}))
		require.NoError(t, m.AssignLocation(uuid.New()))
		assert.ErrorIs(t, m.Publish(), ErrMenuNoPlatforms)
		assert.Equal(t, MenuStatusDraft, m.Status)
	})

	t.Run("No locations rejected", func(t *testing.T) {
		m := buildMenu(t)
		require.NoError(t, m.AddItem(MenuItem{Name: "Item", Price: decimal.NewFromInt(1)}))
		require.NoError(t, m.AssignPlatform(integration.PlatformCodeCareem))
		assert.ErrorIs(t, m.Publish(), ErrMenuNoLocations)
	})

	t.Run("No items rejected", func(t *testing.T) {
		m := buildMenu(t)
		require.NoError(t, m.AssignPlatform(integration.PlatformCodeCareem))
		require.NoError(t, m.AssignLocation(uuid.New()))
		assert.ErrorIs(t, m.Publish(), ErrMenuNoItems)
	})

	t.Run("Publish then unpublish", func(t *testing.T) {
		m := buildMenu(t)
		require.NoError(t, m.AddItem(MenuItem{Name: "Item", Price: decimal.NewFromInt(1)}))
		require.NoError(t, m.AssignPlatform(integration.PlatformCodeTalabat))
		require.NoError(t, m.AssignLocation(uuid.New()))

		require.NoError(t, m.Publish())
		assert.Equal(t, MenuStatusPublished, m.Status)
		assert.NotNil(t, m.PublishedAt)

		require.NoError(t, m.Unpublish())
		assert.Equal(t, MenuStatusDraft, m.Status)
	})

	t.Run("Unpublish draft rejected", func(t *testing.T) {
		m := buildMenu(t)
		assert.ErrorIs(t, m.Unpublish(), ErrMenuNotPublished)
	})
}

func TestMenu_Duplicate(t *testing.T) {
	m := buildMenu(t)

	group := ModifierGroup{
		Name:          "Extras",
		SelectionType: SelectionMultiple,
		MaxSelections: 2,
		Modifiers:     []Modifier{{Name: "Cheese", PriceDelta: decimal.NewFromFloat(0.5)}},
	}
	require.NoError(t, m.AddModifierGroup(group))
	groupID := m.ModifierGroups[0].ID

	require.NoError(t, m.AddItem(MenuItem{
		Name:             "Wrap",
		Price:            decimal.NewFromFloat(3.5),
		ModifierGroupIDs: []uuid.UUID{groupID},
	}))
	require.NoError(t, m.AssignPlatform(integration.PlatformCodeCareem))
	require.NoError(t, m.AssignLocation(uuid.New()))

	copied, err := m.Duplicate("Lunch v2")
	require.NoError(t, err)

	assert.Equal(t, "Lunch v2", copied.Name)
	assert.Equal(t, MenuStatusDraft, copied.Status)
	assert.NotEqual(t, m.ID, copied.ID)

	// Graph copied with fresh IDs and remapped references.
	require.Len(t, copied.ModifierGroups, 1)
	require.Len(t, copied.Items, 1)
	assert.NotEqual(t, groupID, copied.ModifierGroups[0].ID)
	assert.Equal(t, copied.ModifierGroups[0].ID, copied.Items[0].ModifierGroupIDs[0])
	assert.NotEqual(t, m.Items[0].ID, copied.Items[0].ID)

	// Associations carry over.
	assert.Equal(t, m.PlatformCodes, copied.PlatformCodes)
	assert.Equal(t, m.LocationIDs, copied.LocationIDs)

	// Copy is independent of the original.
	copied.ModifierGroups[0].Modifiers[0].Name = "Changed"
	assert.Equal(t, "Cheese", m.ModifierGroups[0].Modifiers[0].Name)
}

func TestMenu_SetItemAvailability(t *testing.T) {
	m := buildMenu(t)
	require.NoError(t, m.AddItem(MenuItem{Name: "Wrap", Price: decimal.NewFromInt(3), IsAvailable: true}))

	require.NoError(t, m.SetItemAvailability(m.Items[0].ID, false))
	assert.False(t, m.Items[0].IsAvailable)

	assert.ErrorIs(t, m.SetItemAvailability(uuid.New(), true), ErrMenuItemNotFound)
}

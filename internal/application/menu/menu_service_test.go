package menu

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/possync/backend/internal/domain/menu"
)

type stubMenuRepo struct {
	mu    sync.Mutex
	menus map[uuid.UUID]*menu.Menu
}

func newStubMenuRepo() *stubMenuRepo {
	return &stubMenuRepo{menus: make(map[uuid.UUID]*menu.Menu)}
}

func (r *stubMenuRepo) FindByID(ctx context.Context, id uuid.UUID) (*menu.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.menus[id]; ok {
		return m, nil
	}
	return nil, menu.ErrMenuNotFound
}

func (r *stubMenuRepo) FindAll(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) ([]menu.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]menu.Menu, 0, len(r.menus))
	for _, m := range r.menus {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMenuRepo) Count(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) (int64, error) {
	all, _ := r.FindAll(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *stubMenuRepo) Save(ctx context.Context, m *menu.Menu) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus[m.ID] = m
	return nil
}

func (r *stubMenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.menus, id)
	return nil
}

func fullMenuRequest() *CreateMenuRequest {
	return &CreateMenuRequest{
		Name: "Lunch Menu",
		ModifierGroups: []ModifierGroupRequest{
			{
				Key:           "size",
				Name:          "Size",
				SelectionType: "SINGLE",
				MinSelections: 1,
				MaxSelections: 1,
				Required:      true,
				Modifiers: []ModifierRequest{
					{Name: "Small"},
					{Name: "Large", PriceDelta: decimal.NewFromFloat(3.5)},
				},
			},
		},
		Items: []MenuItemRequest{
			{
				Name:           "Shawarma",
				Price:          decimal.NewFromInt(18),
				TaxRate:        decimal.NewFromInt(5),
				Category:       "Wraps",
				ModifierGroups: []string{"size"},
			},
			{
				Name:  "Water",
				Price: decimal.NewFromInt(2),
			},
		},
		Platforms:   []string{"CAREEM"},
		LocationIDs: []string{uuid.NewString()},
	}
}

func TestMenuService_CreateMenu(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates a draft with the full graph", func(t *testing.T) {
		svc := NewMenuService(newStubMenuRepo(), nil)

		m, err := svc.CreateMenu(ctx, tenantID, fullMenuRequest())
		require.NoError(t, err)
		assert.Equal(t, menu.MenuStatusDraft, m.Status)
		require.Len(t, m.Items, 2)
		require.Len(t, m.ModifierGroups, 1)

		// the item's group reference resolved to the generated group ID
		require.Len(t, m.Items[0].ModifierGroupIDs, 1)
		assert.Equal(t, m.ModifierGroups[0].ID, m.Items[0].ModifierGroupIDs[0])
		assert.Equal(t, []string{"CAREEM"}, []string{string(m.PlatformCodes[0])})
	})

	t.Run("rejects items referencing unknown group keys", func(t *testing.T) {
		svc := NewMenuService(newStubMenuRepo(), nil)

		req := fullMenuRequest()
		req.Items[0].ModifierGroups = []string{"missing-key"}
		_, err := svc.CreateMenu(ctx, tenantID, req)
		assert.ErrorIs(t, err, menu.ErrMenuInvalidModLink)
	})

	t.Run("rejects invalid modifier groups", func(t *testing.T) {
		svc := NewMenuService(newStubMenuRepo(), nil)

		req := fullMenuRequest()
		req.ModifierGroups[0].MaxSelections = 5 // SINGLE with max > 1
		_, err := svc.CreateMenu(ctx, tenantID, req)
		assert.ErrorIs(t, err, menu.ErrMenuInvalidSelection)
	})
}

func TestMenuService_UpdateMenu(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := newStubMenuRepo()
	svc := NewMenuService(repo, nil)

	m, err := svc.CreateMenu(ctx, tenantID, fullMenuRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateMenu(ctx, tenantID, m.ID, &UpdateMenuRequest{
		Name: "Dinner Menu",
		Items: []MenuItemRequest{
			{Name: "Falafel Platter", Price: decimal.NewFromInt(22)},
		},
		ModifierGroups: []ModifierGroupRequest{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner Menu", updated.Name)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Falafel Platter", updated.Items[0].Name)
	assert.Empty(t, updated.ModifierGroups)
	// untouched sections survive
	assert.Len(t, updated.PlatformCodes, 1)
	assert.Len(t, updated.LocationIDs, 1)
}

func TestMenuService_DuplicateMenu(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	svc := NewMenuService(newStubMenuRepo(), nil)
	m, err := svc.CreateMenu(ctx, tenantID, fullMenuRequest())
	require.NoError(t, err)

	copied, err := svc.DuplicateMenu(ctx, tenantID, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Lunch Menu (copy)", copied.Name)
	assert.NotEqual(t, m.ID, copied.ID)
	assert.Equal(t, menu.MenuStatusDraft, copied.Status)
	require.Len(t, copied.Items, 2)

	// group references remap onto the copied groups
	require.Len(t, copied.ModifierGroups, 1)
	assert.NotEqual(t, m.ModifierGroups[0].ID, copied.ModifierGroups[0].ID)
	assert.Equal(t, copied.ModifierGroups[0].ID, copied.Items[0].ModifierGroupIDs[0])
}

func TestMenuService_SetItemAvailability(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	svc := NewMenuService(newStubMenuRepo(), nil)
	m, err := svc.CreateMenu(ctx, tenantID, fullMenuRequest())
	require.NoError(t, err)

	updated, err := svc.SetItemAvailability(ctx, tenantID, m.ID, m.Items[0].ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Items[0].IsAvailable)
	assert.True(t, updated.Items[1].IsAvailable)

	_, err = svc.SetItemAvailability(ctx, tenantID, m.ID, uuid.New(), false)
	assert.ErrorIs(t, err, menu.ErrMenuItemNotFound)
}

func TestMenuService_TenantIsolation(t *testing.T) {
	ctx := context.Background()

	svc := NewMenuService(newStubMenuRepo(), nil)
	m, err := svc.CreateMenu(ctx, uuid.New(), fullMenuRequest())
	require.NoError(t, err)

	_, err = svc.GetMenu(ctx, uuid.New(), m.ID)
	assert.ErrorIs(t, err, menu.ErrMenuNotFound)

	err = svc.DeleteMenu(ctx, uuid.New(), m.ID)
	assert.ErrorIs(t, err, menu.ErrMenuNotFound)
}

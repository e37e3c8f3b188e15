package menu

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/menu"
)

// MenuService manages menu authoring: the draft lifecycle, item and
// modifier group composition, and platform/location assignment. Publishing
// lives in the catalog service.
type MenuService struct {
	repo   menu.MenuRepository
	logger *zap.Logger
}

// NewMenuService creates a menu service
func NewMenuService(repo menu.MenuRepository, logger *zap.Logger) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{repo: repo, logger: logger}
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// CreateMenu creates a draft menu with its full item and modifier graph
func (s *MenuService) CreateMenu(ctx context.Context, tenantID uuid.UUID, req *CreateMenuRequest) (*menu.Menu, error) {
	m, err := menu.NewMenu(tenantID, req.Name)
	if err != nil {
		return nil, err
	}

	groupIDs, err := applyModifierGroups(m, req.ModifierGroups)
	if err != nil {
		return nil, err
	}
	if err := applyItems(m, req.Items, groupIDs); err != nil {
		return nil, err
	}
	for _, code := range req.PlatformCodes() {
		if err := m.AssignPlatform(code); err != nil {
			return nil, err
		}
	}
	for _, locationID := range req.LocationUUIDs() {
		if err := m.AssignLocation(locationID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("menu created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("menu_id", m.ID.String()),
		zap.Int("items", len(m.Items)))
	return m, nil
}

// GetMenu retrieves a menu with its full graph
func (s *MenuService) GetMenu(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*menu.Menu, error) {
	return s.getOwned(ctx, tenantID, id)
}

// ListMenus lists menus with filtering and pagination
func (s *MenuService) ListMenus(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) ([]menu.Menu, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	menus, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return menus, count, nil
}

// UpdateMenu replaces a menu's name, graph and assignments. The publication
// status is untouched; a published menu stays published until the next
// publish run picks up the new content.
func (s *MenuService) UpdateMenu(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req *UpdateMenuRequest) (*menu.Menu, error) {
	m, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.ModifierGroups != nil || req.Items != nil {
		m.ModifierGroups = m.ModifierGroups[:0]
		m.Items = m.Items[:0]
		groupIDs, err := applyModifierGroups(m, req.ModifierGroups)
		if err != nil {
			return nil, err
		}
		if err := applyItems(m, req.Items, groupIDs); err != nil {
			return nil, err
		}
	}
	if req.Platforms != nil {
		m.PlatformCodes = m.PlatformCodes[:0]
		for _, code := range req.PlatformCodes() {
			if err := m.AssignPlatform(code); err != nil {
				return nil, err
			}
		}
	}
	if req.LocationIDs != nil {
		m.LocationIDs = m.LocationIDs[:0]
		for _, locationID := range req.LocationUUIDs() {
			if err := m.AssignLocation(locationID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMenu removes a menu and its graph
func (s *MenuService) DeleteMenu(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DuplicateMenu creates a deep copy of a menu as a new draft
func (s *MenuService) DuplicateMenu(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, name string) (*menu.Menu, error) {
	m, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	copied, err := m.Duplicate(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, copied); err != nil {
		return nil, err
	}

	s.logger.Info("menu duplicated",
		zap.String("source_menu_id", m.ID.String()),
		zap.String("menu_id", copied.ID.String()))
	return copied, nil
}

// SetItemAvailability toggles one item without touching the rest of the menu
func (s *MenuService) SetItemAvailability(ctx context.Context, tenantID uuid.UUID, menuID, itemID uuid.UUID, available bool) (*menu.Menu, error) {
	m, err := s.getOwned(ctx, tenantID, menuID)
	if err != nil {
		return nil, err
	}
	if err := m.SetItemAvailability(itemID, available); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MenuService) getOwned(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*menu.Menu, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.TenantID != tenantID {
		return nil, menu.ErrMenuNotFound
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Graph assembly
// ---------------------------------------------------------------------------

// applyModifierGroups adds the requested groups to the menu and returns the
// request-key → generated-ID map items use to reference them
func applyModifierGroups(m *menu.Menu, groups []ModifierGroupRequest) (map[string]uuid.UUID, error) {
	groupIDs := make(map[string]uuid.UUID, len(groups))
	for i, groupReq := range groups {
		group := groupReq.toDomain(i)
		if err := m.AddModifierGroup(group); err != nil {
			return nil, err
		}
		// AddModifierGroup assigns the ID, read it back from the menu
		added := m.ModifierGroups[len(m.ModifierGroups)-1]
		groupIDs[groupReq.Key] = added.ID
	}
	return groupIDs, nil
}

func applyItems(m *menu.Menu, items []MenuItemRequest, groupIDs map[string]uuid.UUID) error {
	for i, itemReq := range items {
		item, err := itemReq.toDomain(i, groupIDs)
		if err != nil {
			return err
		}
		if err := m.AddItem(item); err != nil {
			return err
		}
	}
	return nil
}

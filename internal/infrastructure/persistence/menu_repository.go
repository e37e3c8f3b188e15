package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// GormMenuRepository implements MenuRepository using GORM. The item and
// modifier-group graph is stored denormalized as JSONB on the menu row, so a
// single read loads the whole aggregate.
type GormMenuRepository struct {
	db *gorm.DB
}

// NewGormMenuRepository creates a new GormMenuRepository
func NewGormMenuRepository(db *gorm.DB) *GormMenuRepository {
	return &GormMenuRepository{db: db}
}

// FindByID loads a menu with its full graph
func (r *GormMenuRepository) FindByID(ctx context.Context, id uuid.UUID) (*menu.Menu, error) {
	var model models.MenuModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, menu.ErrMenuNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds menus for a tenant with optional filters
func (r *GormMenuRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) ([]menu.Menu, error) {
	var menuModels []models.MenuModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MenuModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&menuModels).Error; err != nil {
		return nil, err
	}

	menus := make([]menu.Menu, len(menuModels))
	for i, model := range menuModels {
		menus[i] = *model.ToDomain()
	}
	return menus, nil
}

// Count counts menus matching the filter
func (r *GormMenuRepository) Count(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.MenuModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a menu and its graph
func (r *GormMenuRepository) Save(ctx context.Context, m *menu.Menu) error {
	model := models.MenuModelFromDomain(m)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a menu and its graph
func (r *GormMenuRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return menu.ErrMenuNotFound
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormMenuRepository) applyFilter(query *gorm.DB, filter menu.MenuFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query.Order("created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormMenuRepository) applyFilterWithoutPagination(query *gorm.DB, filter menu.MenuFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SearchKeyword != "" {
		pattern := "%" + escapeLikePattern(filter.SearchKeyword) + "%"
		query = query.Where("name ILIKE ?", pattern)
	}
	return query
}

// Ensure GormMenuRepository implements MenuRepository
var _ menu.MenuRepository = (*GormMenuRepository)(nil)

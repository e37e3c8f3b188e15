package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// ---------------------------------------------------------------------------
// ProductMappingReader implementation
// ---------------------------------------------------------------------------

// FindByID finds a mapping by its ID regardless of active state
func (r *GormProductMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByPlatformProduct finds the active mapping for a platform product ID
func (r *GormProductMappingRepository) FindActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_code = ? AND platform_product_id = ? AND is_active = ?",
			tenantID, platformCode, platformProductID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByPlatformSKU finds the active mapping for a platform SKU
func (r *GormProductMappingRepository) FindActiveByPlatformSKU(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformSKU string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_code = ? AND platform_sku = ? AND is_active = ?",
			tenantID, platformCode, platformSKU, true).
		Order("updated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlatformProduct finds the mapping for a platform product ID regardless
// of active state, preferring the most recently updated
func (r *GormProductMappingRepository) FindByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (*integration.ProductMapping, error) {
	var model models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_code = ? AND platform_product_id = ?",
			tenantID, platformCode, platformProductID).
		Order("is_active DESC, updated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// ProductMappingFinder implementation
// ---------------------------------------------------------------------------

// FindAll finds all mappings for a tenant with optional filters
func (r *GormProductMappingRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, error) {
	var mappingModels []models.ProductMappingModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// FindAllActive finds every active mapping for a platform
func (r *GormProductMappingRepository) FindAllActive(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode) ([]integration.ProductMapping, error) {
	var mappingModels []models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_code = ? AND is_active = ?", tenantID, platformCode, true).
		Order("created_at DESC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]integration.ProductMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Count counts mappings matching the filter
func (r *GormProductMappingRepository) Count(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ProductMappingModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsActiveByPlatformProduct checks the active-uniqueness invariant
func (r *GormProductMappingRepository) ExistsActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductMappingModel{}).
		Where("tenant_id = ? AND platform_code = ? AND platform_product_id = ? AND is_active = ?",
			tenantID, platformCode, platformProductID, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ---------------------------------------------------------------------------
// ProductMappingWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates a mapping
func (r *GormProductMappingRepository) Save(ctx context.Context, mapping *integration.ProductMapping) error {
	model := models.ProductMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates multiple mappings
func (r *GormProductMappingRepository) SaveBatch(ctx context.Context, mappings []*integration.ProductMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	mappingModels := make([]*models.ProductMappingModel, len(mappings))
	for i, m := range mappings {
		mappingModels[i] = models.ProductMappingModelFromDomain(m)
	}

	return r.db.WithContext(ctx).Save(mappingModels).Error
}

// Delete deletes a mapping
func (r *GormProductMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Filter helpers
// ---------------------------------------------------------------------------

// applyFilter applies filter options to the query
func (r *GormProductMappingRepository) applyFilter(query *gorm.DB, filter integration.ProductMappingFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query.Order("created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductMappingRepository) applyFilterWithoutPagination(query *gorm.DB, filter integration.ProductMappingFilter) *gorm.DB {
	if filter.PlatformCode != nil && filter.PlatformCode.IsValid() {
		query = query.Where("platform_code = ?", *filter.PlatformCode)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.SearchKeyword != "" {
		pattern := "%" + escapeLikePattern(filter.SearchKeyword) + "%"
		query = query.Where("platform_name ILIKE ? OR platform_product_id ILIKE ? OR platform_sku ILIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

// Ensure GormProductMappingRepository implements ProductMappingRepository
var _ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// Careem brands
// ---------------------------------------------------------------------------

// GormCareemBrandRepository implements CareemBrandRepository using GORM
type GormCareemBrandRepository struct {
	db *gorm.DB
}

// NewGormCareemBrandRepository creates a new GormCareemBrandRepository
func NewGormCareemBrandRepository(db *gorm.DB) *GormCareemBrandRepository {
	return &GormCareemBrandRepository{db: db}
}

// FindByBrandID finds a brand by its Careem identifier
func (r *GormCareemBrandRepository) FindByBrandID(ctx context.Context, tenantID uuid.UUID, brandID string) (*location.CareemBrand, error) {
	var model models.CareemBrandModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND brand_id = ?", tenantID, brandID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, location.ErrCareemBrandNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all brands for a tenant
func (r *GormCareemBrandRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.CareemBrand, error) {
	var brandModels []models.CareemBrandModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&brandModels).Error; err != nil {
		return nil, err
	}

	brands := make([]location.CareemBrand, len(brandModels))
	for i, model := range brandModels {
		brands[i] = *model.ToDomain()
	}
	return brands, nil
}

// Save creates or updates a brand
func (r *GormCareemBrandRepository) Save(ctx context.Context, b *location.CareemBrand) error {
	var model models.CareemBrandModel
	model.FromDomain(b)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Ensure GormCareemBrandRepository implements CareemBrandRepository
var _ location.CareemBrandRepository = (*GormCareemBrandRepository)(nil)

// ---------------------------------------------------------------------------
// Careem branches
// ---------------------------------------------------------------------------

// GormCareemBranchRepository implements CareemBranchRepository using GORM
type GormCareemBranchRepository struct {
	db *gorm.DB
}

// NewGormCareemBranchRepository creates a new GormCareemBranchRepository
func NewGormCareemBranchRepository(db *gorm.DB) *GormCareemBranchRepository {
	return &GormCareemBranchRepository{db: db}
}

// FindByBranchID finds a branch by its Careem identifier
func (r *GormCareemBranchRepository) FindByBranchID(ctx context.Context, tenantID uuid.UUID, branchID string) (*location.CareemBranch, error) {
	var model models.CareemBranchModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, location.ErrCareemBranchNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBrand finds all branches of a brand
func (r *GormCareemBranchRepository) FindByBrand(ctx context.Context, tenantID uuid.UUID, brandID string) ([]location.CareemBranch, error) {
	var branchModels []models.CareemBranchModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND brand_id = ?", tenantID, brandID).
		Order("name ASC").
		Find(&branchModels).Error; err != nil {
		return nil, err
	}

	branches := make([]location.CareemBranch, len(branchModels))
	for i, model := range branchModels {
		branches[i] = *model.ToDomain()
	}
	return branches, nil
}

// FindAll finds all branches for a tenant
func (r *GormCareemBranchRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.CareemBranch, error) {
	var branchModels []models.CareemBranchModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&branchModels).Error; err != nil {
		return nil, err
	}

	branches := make([]location.CareemBranch, len(branchModels))
	for i, model := range branchModels {
		branches[i] = *model.ToDomain()
	}
	return branches, nil
}

// Save creates or updates a branch
func (r *GormCareemBranchRepository) Save(ctx context.Context, b *location.CareemBranch) error {
	var model models.CareemBranchModel
	model.FromDomain(b)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Ensure GormCareemBranchRepository implements CareemBranchRepository
var _ location.CareemBranchRepository = (*GormCareemBranchRepository)(nil)

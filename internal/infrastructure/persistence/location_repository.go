package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*location.Location, error) {
	var model models.LocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, location.ErrLocationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all locations for a tenant
func (r *GormLocationRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.Location, error) {
	var locationModels []models.LocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&locationModels).Error; err != nil {
		return nil, err
	}

	locations := make([]location.Location, len(locationModels))
	for i, model := range locationModels {
		locations[i] = *model.ToDomain()
	}
	return locations, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, l *location.Location) error {
	model := models.LocationModelFromDomain(l)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a location
func (r *GormLocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LocationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return location.ErrLocationNotFound
	}
	return nil
}

// Ensure GormLocationRepository implements LocationRepository
var _ location.LocationRepository = (*GormLocationRepository)(nil)

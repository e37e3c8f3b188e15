package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// GormCredentialStore implements CredentialStore using GORM. Secrets live in
// the database row as-is; encryption at rest is the database's concern.
type GormCredentialStore struct {
	db *gorm.DB
}

// NewGormCredentialStore creates a new GormCredentialStore
func NewGormCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

// Get returns the credentials for a tenant and service
func (r *GormCredentialStore) Get(ctx context.Context, tenantID uuid.UUID, service string) (*integration.Credentials, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND service = ?", tenantID, service).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCredentialsNotConfigured
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or replaces credentials for a tenant and service
func (r *GormCredentialStore) Save(ctx context.Context, creds *integration.Credentials) error {
	var model models.CredentialModel
	model.FromDomain(creds)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Ensure GormCredentialStore implements CredentialStore
var _ integration.CredentialStore = (*GormCredentialStore)(nil)

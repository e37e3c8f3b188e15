package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM. Entries are
// append-only; the repository exposes no update or delete.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append stores a new entry
func (r *GormSyncLogRepository) Append(ctx context.Context, entry *integration.SyncLog) error {
	model := models.SyncLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds an entry by ID
func (r *GormSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncLogNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds entries for a tenant with optional filters, newest first
func (r *GormSyncLogRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.SyncLogFilter) ([]integration.SyncLog, error) {
	var logModels []models.SyncLogModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SyncLogModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.SyncLog, len(logModels))
	for i, model := range logModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindBySubject finds all entries about one subject, newest first
func (r *GormSyncLogRepository) FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectType integration.SyncSubjectType, subjectID string) ([]integration.SyncLog, error) {
	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subject_type = ? AND subject_id = ?", tenantID, subjectType, subjectID).
		Order("created_at DESC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.SyncLog, len(logModels))
	for i, model := range logModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindRetryable finds failed order entries flagged retryable, newest first
func (r *GormSyncLogRepository) FindRetryable(ctx context.Context, tenantID uuid.UUID) ([]integration.SyncLog, error) {
	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND subject_type = ? AND status = ?",
			tenantID, integration.SyncSubjectOrder, integration.SyncStatusFailed).
		Where("metadata ->> 'retryable' = 'true'").
		Order("created_at DESC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.SyncLog, len(logModels))
	for i, model := range logModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Count counts entries matching the filter
func (r *GormSyncLogRepository) Count(ctx context.Context, tenantID uuid.UUID, filter integration.SyncLogFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SyncLogModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormSyncLogRepository) applyFilter(query *gorm.DB, filter integration.SyncLogFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query.Order("created_at DESC")
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSyncLogRepository) applyFilterWithoutPagination(query *gorm.DB, filter integration.SyncLogFilter) *gorm.DB {
	if filter.SubjectType != nil {
		query = query.Where("subject_type = ?", *filter.SubjectType)
	}
	if filter.PlatformCode != nil && filter.PlatformCode.IsValid() {
		query = query.Where("platform_code = ?", *filter.PlatformCode)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	return query
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)

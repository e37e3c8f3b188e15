package integration

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

// SyncLogService reads the synchronization audit trail
type SyncLogService struct {
	repo   integration.SyncLogRepository
	logger *zap.Logger
}

// NewSyncLogService creates a sync log service
func NewSyncLogService(repo integration.SyncLogRepository, logger *zap.Logger) *SyncLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncLogService{repo: repo, logger: logger}
}

// GetEntry retrieves one sync log entry
func (s *SyncLogService) GetEntry(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.SyncLog, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, integration.ErrSyncLogNotFound
	}
	return entry, nil
}

// ListEntries lists sync log entries with filtering and pagination,
// newest first
func (s *SyncLogService) ListEntries(ctx context.Context, tenantID uuid.UUID, filter integration.SyncLogFilter) ([]integration.SyncLog, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	entries, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

// ListRetryable lists failed order entries that qualify for a retry,
// newest first
func (s *SyncLogService) ListRetryable(ctx context.Context, tenantID uuid.UUID) ([]integration.SyncLog, error) {
	return s.repo.FindRetryable(ctx, tenantID)
}

// SubjectHistory returns every attempt recorded for one subject, newest
// first. Useful for tracing how an order or menu fared over retries.
func (s *SyncLogService) SubjectHistory(ctx context.Context, tenantID uuid.UUID, subjectType integration.SyncSubjectType, subjectID string) ([]integration.SyncLog, error) {
	return s.repo.FindBySubject(ctx, tenantID, subjectType, subjectID)
}

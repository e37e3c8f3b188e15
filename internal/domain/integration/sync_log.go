package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncLog Entity
// ---------------------------------------------------------------------------

// SyncSubjectType identifies what a sync log entry is about
type SyncSubjectType string

const (
	// SyncSubjectOrder marks entries about order processing
	SyncSubjectOrder SyncSubjectType = "ORDER"
	// SyncSubjectMenu marks entries about catalog publication
	SyncSubjectMenu SyncSubjectType = "MENU"
)

// IsValid returns true if the subject type is valid
func (t SyncSubjectType) IsValid() bool {
	return t == SyncSubjectOrder || t == SyncSubjectMenu
}

// String returns the string representation of SyncSubjectType
func (t SyncSubjectType) String() string {
	return string(t)
}

// SyncLog is an immutable record of one synchronization attempt. Entries are
// never updated after creation; a retry appends a new entry.
type SyncLog struct {
	// ID is the unique identifier of this entry
	ID uuid.UUID
	// TenantID is the tenant this entry belongs to
	TenantID uuid.UUID
	// SubjectType says whether this entry concerns an order or a menu
	SubjectType SyncSubjectType
	// SubjectID is the order ID or menu ID the attempt was about
	SubjectID string
	// PlatformCode is the platform involved, empty for platform-neutral actions
	PlatformCode PlatformCode
	// Action names the operation attempted (e.g. "order.transform", "catalog.publish")
	Action string
	// Status is the attempt outcome
	Status SyncStatus
	// Message is a human-readable summary
	Message string
	// Metadata carries structured detail (counts, unmapped products, errors)
	Metadata map[string]interface{}
	// CreatedAt is when the attempt was recorded
	CreatedAt time.Time
}

// NewSyncLog creates a sync log entry
func NewSyncLog(
	tenantID uuid.UUID,
	subjectType SyncSubjectType,
	subjectID string,
	platformCode PlatformCode,
	action string,
	status SyncStatus,
	message string,
) (*SyncLog, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMappingInvalidTenantID
	}
	if !subjectType.IsValid() {
		return nil, errors.New("integration: invalid sync subject type")
	}
	if subjectID == "" {
		return nil, errors.New("integration: sync subject ID is required")
	}
	if action == "" {
		return nil, errors.New("integration: sync action is required")
	}
	if !status.IsValid() {
		return nil, errors.New("integration: invalid sync status")
	}

	return &SyncLog{
		ID:           uuid.New(),
		TenantID:     tenantID,
		SubjectType:  subjectType,
		SubjectID:    subjectID,
		PlatformCode: platformCode,
		Action:       action,
		Status:       status,
		Message:      message,
		Metadata:     make(map[string]interface{}),
		CreatedAt:    time.Now(),
	}, nil
}

// WithMetadata attaches one structured metadata field, chainable during
// construction only
func (l *SyncLog) WithMetadata(key string, value interface{}) *SyncLog {
	if l.Metadata == nil {
		l.Metadata = make(map[string]interface{})
	}
	l.Metadata[key] = value
	return l
}

// IsRetryable reports whether this entry marks a failure worth retrying.
// Failures recorded with retryable=true metadata (5xx, timeouts) qualify;
// mapping and payload failures need operator intervention first.
func (l *SyncLog) IsRetryable() bool {
	if l.Status != SyncStatusFailed {
		return false
	}
	v, ok := l.Metadata["retryable"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

var (
	// ErrSyncLogNotFound is returned when a sync log entry does not exist
	ErrSyncLogNotFound = errors.New("integration: sync log entry not found")
	// ErrSyncLogNotRetryable is returned when a retry targets an entry that
	// does not qualify for one
	ErrSyncLogNotRetryable = errors.New("integration: sync log entry is not retryable")
)

// ---------------------------------------------------------------------------
// SyncLogRepository Interface
// ---------------------------------------------------------------------------

// SyncLogFilter defines filter criteria for sync log queries
type SyncLogFilter struct {
	// SubjectType filters by subject type (optional)
	SubjectType *SyncSubjectType
	// PlatformCode filters by platform (optional)
	PlatformCode *PlatformCode
	// Status filters by outcome (optional)
	Status *SyncStatus
	// Action filters by action name (optional)
	Action string
	// Since restricts to entries created after this time (optional)
	Since *time.Time
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// SyncLogRepository persists sync log entries. Append-only: there is no
// update or delete.
type SyncLogRepository interface {
	// Append stores a new entry
	Append(ctx context.Context, entry *SyncLog) error

	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncLog, error)

	// FindAll finds entries for a tenant with optional filters
	FindAll(ctx context.Context, tenantID uuid.UUID, filter SyncLogFilter) ([]SyncLog, error)

	// FindBySubject finds all entries about one subject, newest first
	FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectType SyncSubjectType, subjectID string) ([]SyncLog, error)

	// FindRetryable finds failed order entries eligible for retry, newest first
	FindRetryable(ctx context.Context, tenantID uuid.UUID) ([]SyncLog, error)

	// Count counts entries matching the filter
	Count(ctx context.Context, tenantID uuid.UUID, filter SyncLogFilter) (int64, error)
}

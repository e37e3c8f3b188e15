package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Location Errors
// ---------------------------------------------------------------------------

var (
	ErrLocationInvalidTenantID = errors.New("location: invalid tenant ID")
	ErrLocationInvalidName     = errors.New("location: location name is required")
	ErrLocationNotFound        = errors.New("location: location not found")
	ErrLocationNotConfigured   = errors.New("location: location not configured for platform")
)

// ---------------------------------------------------------------------------
// Location Entity
// ---------------------------------------------------------------------------

// PlatformSyncStatus records the outcome of the last push to one platform
type PlatformSyncStatus struct {
	// Status is the outcome of the last sync attempt
	Status integration.SyncStatus `json:"status"`
	// LastSyncAt is when the last attempt happened
	LastSyncAt time.Time `json:"last_sync_at"`
	// Error carries the failure detail, empty on success
	Error string `json:"error,omitempty"`
}

// Location is a physical outlet whose operational state is pushed to the
// delivery platforms it is configured for.
type Location struct {
	// ID is the unique identifier of this location
	ID uuid.UUID
	// TenantID is the tenant this location belongs to
	TenantID uuid.UUID
	// Name is the location display name
	Name string
	// IsOpen indicates the location accepts orders
	IsOpen bool
	// IsBusy indicates the location is temporarily overloaded
	IsBusy bool
	// WeeklyHours are the regular opening hours
	WeeklyHours []integration.DayHours
	// CareemStoreID is this location's store ID on Careem, empty when unconfigured
	CareemStoreID string
	// TalabatVendorID is this location's vendor ID on Talabat, empty when unconfigured
	TalabatVendorID string
	// PlatformSyncStatuses holds the last sync outcome per platform. Updates
	// merge per platform so one platform's push never clobbers another's entry.
	PlatformSyncStatuses map[integration.PlatformCode]PlatformSyncStatus
	// CreatedAt is when the location was created
	CreatedAt time.Time
	// UpdatedAt is when the location was last updated
	UpdatedAt time.Time
}

// NewLocation creates a new open location
func NewLocation(tenantID uuid.UUID, name string) (*Location, error) {
	if tenantID == uuid.Nil {
		return nil, ErrLocationInvalidTenantID
	}
	if name == "" {
		return nil, ErrLocationInvalidName
	}

	now := time.Now()
	return &Location{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		Name:                 name,
		IsOpen:               true,
		WeeklyHours:          make([]integration.DayHours, 0),
		PlatformSyncStatuses: make(map[integration.PlatformCode]PlatformSyncStatus),
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// PlatformStoreID returns this location's identifier on a platform,
// ok=false when the location is not configured for it
func (l *Location) PlatformStoreID(code integration.PlatformCode) (string, bool) {
	switch code {
	case integration.PlatformCodeCareem:
		return l.CareemStoreID, l.CareemStoreID != ""
	case integration.PlatformCodeTalabat:
		return l.TalabatVendorID, l.TalabatVendorID != ""
	default:
		return "", false
	}
}

// ConfiguredPlatforms returns the platforms this location can sync to
func (l *Location) ConfiguredPlatforms() []integration.PlatformCode {
	configured := make([]integration.PlatformCode, 0, 2)
	for _, code := range integration.AllPlatformCodes() {
		if _, ok := l.PlatformStoreID(code); ok {
			configured = append(configured, code)
		}
	}
	return configured
}

// MergeSyncStatus records one platform's sync outcome, preserving the
// entries of every other platform
func (l *Location) MergeSyncStatus(code integration.PlatformCode, status PlatformSyncStatus) {
	if l.PlatformSyncStatuses == nil {
		l.PlatformSyncStatuses = make(map[integration.PlatformCode]PlatformSyncStatus)
	}
	l.PlatformSyncStatuses[code] = status
	l.UpdatedAt = time.Now()
}

// SetOpen toggles whether the location accepts orders
func (l *Location) SetOpen(open bool) {
	l.IsOpen = open
	l.UpdatedAt = time.Now()
}

// SetBusy toggles the temporary overload flag
func (l *Location) SetBusy(busy bool) {
	l.IsBusy = busy
	l.UpdatedAt = time.Now()
}

// SetWeeklyHours replaces the regular opening hours
func (l *Location) SetWeeklyHours(hours []integration.DayHours) {
	l.WeeklyHours = hours
	l.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// LocationRepository Interface
// ---------------------------------------------------------------------------

// LocationRepository persists locations
type LocationRepository interface {
	// FindByID finds a location by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)

	// FindAll finds all locations for a tenant
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]Location, error)

	// Save creates or updates a location
	Save(ctx context.Context, l *Location) error

	// Delete removes a location
	Delete(ctx context.Context, id uuid.UUID) error
}

package location

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Careem Brand / Branch Hierarchy
// ---------------------------------------------------------------------------

var (
	ErrCareemInvalidBrandID  = errors.New("location: Careem brand ID is required")
	ErrCareemInvalidBranchID = errors.New("location: Careem branch ID is required")
	ErrCareemBrandNotFound   = errors.New("location: Careem brand not found")
	ErrCareemBranchNotFound  = errors.New("location: Careem branch not found")
)

// Staleness windows. Advisory only, no background refresh is triggered.
const (
	BrandStalenessWindow  = 24 * time.Hour
	BranchStalenessWindow = 6 * time.Hour
)

// MappingState says whether the platform has linked an entity to a real outlet
type MappingState string

const (
	// MappingStateUnmapped means the platform has not linked the entity yet
	MappingStateUnmapped MappingState = "UNMAPPED"
	// MappingStateMapped means the platform linked the entity to an outlet
	MappingStateMapped MappingState = "MAPPED"
)

// IsValid returns true if the mapping state is valid
func (s MappingState) IsValid() bool {
	return s == MappingStateUnmapped || s == MappingStateMapped
}

// String returns the string representation of MappingState
func (s MappingState) String() string {
	return string(s)
}

// CareemBrand is a restaurant concept on Careem owning many branches
type CareemBrand struct {
	// ID is the unique identifier of this record
	ID uuid.UUID
	// TenantID is the tenant this brand belongs to
	TenantID uuid.UUID
	// BrandID is the brand's identifier on Careem
	BrandID string
	// Name is the brand display name
	Name string
	// State reflects whether Careem has linked this brand
	State MappingState
	// SyncedAt is when this record was last refreshed from Careem
	SyncedAt time.Time
	// CreatedAt is when this record was created
	CreatedAt time.Time
	// UpdatedAt is when this record was last updated
	UpdatedAt time.Time
}

// NewCareemBrand creates an unmapped brand record
func NewCareemBrand(tenantID uuid.UUID, brandID, name string) (*CareemBrand, error) {
	if tenantID == uuid.Nil {
		return nil, ErrLocationInvalidTenantID
	}
	if brandID == "" {
		return nil, ErrCareemInvalidBrandID
	}

	now := time.Now()
	return &CareemBrand{
		ID:        uuid.New(),
		TenantID:  tenantID,
		BrandID:   brandID,
		Name:      name,
		State:     MappingStateUnmapped,
		SyncedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkMapped records that Careem linked this brand
func (b *CareemBrand) MarkMapped() {
	b.State = MappingStateMapped
	b.UpdatedAt = time.Now()
}

// MarkSynced refreshes the staleness timestamp
func (b *CareemBrand) MarkSynced() {
	now := time.Now()
	b.SyncedAt = now
	b.UpdatedAt = now
}

// IsStale reports whether the record is older than the brand window
func (b *CareemBrand) IsStale() bool {
	return time.Since(b.SyncedAt) > BrandStalenessWindow
}

// CareemBranch is one outlet of a brand on Careem
type CareemBranch struct {
	// ID is the unique identifier of this record
	ID uuid.UUID
	// TenantID is the tenant this branch belongs to
	TenantID uuid.UUID
	// BrandID is the owning brand's identifier on Careem
	BrandID string
	// BranchID is the branch's identifier on Careem
	BranchID string
	// Name is the branch display name
	Name string
	// LocationID links this branch to an internal location, nil when unlinked
	LocationID *uuid.UUID
	// State reflects whether Careem has linked this branch
	State MappingState
	// POSIntegrationEnabled indicates Careem routes orders through the POS
	POSIntegrationEnabled bool
	// IsVisible indicates the branch is visible on the marketplace
	IsVisible bool
	// ClosedUntil marks a temporary closure, nil when open
	ClosedUntil *time.Time
	// SyncedAt is when this record was last refreshed from Careem
	SyncedAt time.Time
	// CreatedAt is when this record was created
	CreatedAt time.Time
	// UpdatedAt is when this record was last updated
	UpdatedAt time.Time
}

// NewCareemBranch creates an unmapped branch record
func NewCareemBranch(tenantID uuid.UUID, brandID, branchID, name string) (*CareemBranch, error) {
	if tenantID == uuid.Nil {
		return nil, ErrLocationInvalidTenantID
	}
	if brandID == "" {
		return nil, ErrCareemInvalidBrandID
	}
	if branchID == "" {
		return nil, ErrCareemInvalidBranchID
	}

	now := time.Now()
	return &CareemBranch{
		ID:        uuid.New(),
		TenantID:  tenantID,
		BrandID:   brandID,
		BranchID:  branchID,
		Name:      name,
		State:     MappingStateUnmapped,
		IsVisible: true,
		SyncedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// LinkLocation maps this branch to an internal location
func (b *CareemBranch) LinkLocation(locationID uuid.UUID) {
	b.LocationID = &locationID
	b.State = MappingStateMapped
	b.UpdatedAt = time.Now()
}

// UnlinkLocation detaches this branch from its internal location
func (b *CareemBranch) UnlinkLocation() {
	b.LocationID = nil
	b.State = MappingStateUnmapped
	b.UpdatedAt = time.Now()
}

// CloseTemporarily marks the branch closed until the given time
func (b *CareemBranch) CloseTemporarily(until time.Time) {
	b.ClosedUntil = &until
	b.UpdatedAt = time.Now()
}

// Reopen clears a temporary closure
func (b *CareemBranch) Reopen() {
	b.ClosedUntil = nil
	b.UpdatedAt = time.Now()
}

// IsTemporarilyClosed reports whether a closure is currently in effect
func (b *CareemBranch) IsTemporarilyClosed() bool {
	return b.ClosedUntil != nil && b.ClosedUntil.After(time.Now())
}

// MarkSynced refreshes the staleness timestamp
func (b *CareemBranch) MarkSynced() {
	now := time.Now()
	b.SyncedAt = now
	b.UpdatedAt = now
}

// IsStale reports whether the record is older than the branch window
func (b *CareemBranch) IsStale() bool {
	return time.Since(b.SyncedAt) > BranchStalenessWindow
}

// ---------------------------------------------------------------------------
// Careem Directory Repositories
// ---------------------------------------------------------------------------

// CareemBrandRepository persists Careem brand records
type CareemBrandRepository interface {
	// FindByBrandID finds a brand by its Careem identifier
	FindByBrandID(ctx context.Context, tenantID uuid.UUID, brandID string) (*CareemBrand, error)

	// FindAll finds all brands for a tenant
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]CareemBrand, error)

	// Save creates or updates a brand
	Save(ctx context.Context, b *CareemBrand) error
}

// CareemBranchRepository persists Careem branch records
type CareemBranchRepository interface {
	// FindByBranchID finds a branch by its Careem identifier
	FindByBranchID(ctx context.Context, tenantID uuid.UUID, branchID string) (*CareemBranch, error)

	// FindByBrand finds all branches of a brand
	FindByBrand(ctx context.Context, tenantID uuid.UUID, brandID string) ([]CareemBranch, error)

	// FindAll finds all branches for a tenant
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]CareemBranch, error)

	// Save creates or updates a branch
	Save(ctx context.Context, b *CareemBranch) error
}

package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ProductMapping Entity
// ---------------------------------------------------------------------------

// ProductMapping links a platform product identity to a POS item/variant
// identity. It is an Entity (not Aggregate Root): it has identity and is
// mutable, but no lifecycle events of its own.
//
// Invariant: at most one active mapping exists per
// (tenant, platform, platform_product_id).
type ProductMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// TenantID is the tenant this mapping belongs to
	TenantID uuid.UUID
	// PlatformCode identifies which platform this mapping is for
	PlatformCode PlatformCode
	// PlatformProductID is the product ID on the platform
	PlatformProductID string
	// PlatformSKU is an optional secondary lookup key on the platform side
	PlatformSKU string
	// PlatformName is the product name on the platform (for operators)
	PlatformName string
	// POSItemID is the POS item this product maps to
	POSItemID string
	// POSVariantID is the POS variant, when the item has variants
	POSVariantID string
	// IsActive indicates if this mapping participates in lookups
	IsActive bool
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
	// UpdatedAt is when this mapping was last updated
	UpdatedAt time.Time
}

// NewProductMapping creates a new active product mapping
func NewProductMapping(
	tenantID uuid.UUID,
	platformCode PlatformCode,
	platformProductID string,
	platformName string,
	posItemID string,
) (*ProductMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrMappingInvalidTenantID
	}
	if !platformCode.IsValid() {
		return nil, ErrMappingInvalidPlatform
	}
	if platformProductID == "" {
		return nil, ErrMappingInvalidProductID
	}
	if platformName == "" {
		return nil, ErrMappingInvalidName
	}
	if posItemID == "" {
		return nil, ErrMappingInvalidPOSItemID
	}

	now := time.Now()
	return &ProductMapping{
		ID:                uuid.New(),
		TenantID:          tenantID,
		PlatformCode:      platformCode,
		PlatformProductID: platformProductID,
		PlatformName:      platformName,
		POSItemID:         posItemID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Validate validates the product mapping
func (m *ProductMapping) Validate() error {
	if m.TenantID == uuid.Nil {
		return ErrMappingInvalidTenantID
	}
	if !m.PlatformCode.IsValid() {
		return ErrMappingInvalidPlatform
	}
	if m.PlatformProductID == "" {
		return ErrMappingInvalidProductID
	}
	if m.PlatformName == "" {
		return ErrMappingInvalidName
	}
	if m.POSItemID == "" {
		return ErrMappingInvalidPOSItemID
	}
	return nil
}

// Activate re-enables this mapping for lookups
func (m *ProductMapping) Activate() {
	m.IsActive = true
	m.UpdatedAt = time.Now()
}

// Deactivate excludes this mapping from lookups without deleting it
func (m *ProductMapping) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = time.Now()
}

// Rename updates the platform-side display name
func (m *ProductMapping) Rename(platformName string) error {
	if platformName == "" {
		return ErrMappingInvalidName
	}
	m.PlatformName = platformName
	m.UpdatedAt = time.Now()
	return nil
}

// SetSKU updates the secondary platform SKU key
func (m *ProductMapping) SetSKU(sku string) {
	m.PlatformSKU = sku
	m.UpdatedAt = time.Now()
}

// Relink points this mapping at a different POS item/variant
func (m *ProductMapping) Relink(posItemID, posVariantID string) error {
	if posItemID == "" {
		return ErrMappingInvalidPOSItemID
	}
	m.POSItemID = posItemID
	m.POSVariantID = posVariantID
	m.UpdatedAt = time.Now()
	return nil
}

// Result returns the POS reference this mapping resolves to
func (m *ProductMapping) Result() *MappingResult {
	return &MappingResult{
		MappingID:    m.ID,
		POSItemID:    m.POSItemID,
		POSVariantID: m.POSVariantID,
	}
}

// ---------------------------------------------------------------------------
// MappingResult Value Object
// ---------------------------------------------------------------------------

// MappingResult is the POS reference a platform product resolves to
type MappingResult struct {
	// MappingID is the resolved mapping's ID
	MappingID uuid.UUID `json:"mapping_id"`
	// POSItemID is the POS item ID
	POSItemID string `json:"pos_item_id"`
	// POSVariantID is the POS variant ID, empty when the item has none
	POSVariantID string `json:"pos_variant_id,omitempty"`
}

// ---------------------------------------------------------------------------
// ProductMappingRepository Interface
// ---------------------------------------------------------------------------

// ProductMappingReader defines the interface for reading product mappings
type ProductMappingReader interface {
	// FindByID finds a mapping by its ID regardless of active state
	FindByID(ctx context.Context, id uuid.UUID) (*ProductMapping, error)

	// FindActiveByPlatformProduct finds the active mapping for a platform product ID
	FindActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode, platformProductID string) (*ProductMapping, error)

	// FindActiveByPlatformSKU finds the active mapping for a platform SKU
	FindActiveByPlatformSKU(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode, platformSKU string) (*ProductMapping, error)

	// FindByPlatformProduct finds the mapping for a platform product ID
	// regardless of active state (latest if several inactive ones exist)
	FindByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode, platformProductID string) (*ProductMapping, error)
}

// ProductMappingFinder defines the interface for searching product mappings
type ProductMappingFinder interface {
	// FindAll finds all mappings for a tenant with optional filters
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ProductMappingFilter) ([]ProductMapping, error)

	// FindAllActive finds every active mapping for a platform
	FindAllActive(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode) ([]ProductMapping, error)

	// Count counts mappings matching the filter
	Count(ctx context.Context, tenantID uuid.UUID, filter ProductMappingFilter) (int64, error)

	// ExistsActiveByPlatformProduct checks the uniqueness invariant
	ExistsActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode, platformProductID string) (bool, error)
}

// ProductMappingWriter defines the interface for persisting product mappings
type ProductMappingWriter interface {
	// Save creates or updates a mapping
	Save(ctx context.Context, mapping *ProductMapping) error

	// SaveBatch creates or updates multiple mappings
	SaveBatch(ctx context.Context, mappings []*ProductMapping) error

	// Delete removes a mapping. Normal flow deactivates instead; delete
	// exists for explicit operator cleanup.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductMappingRepository defines the full interface for product mapping persistence
type ProductMappingRepository interface {
	ProductMappingReader
	ProductMappingFinder
	ProductMappingWriter
}

// ProductMappingFilter defines filter criteria for product mappings
type ProductMappingFilter struct {
	// PlatformCode filters by platform (optional)
	PlatformCode *PlatformCode
	// IsActive filters by active status (optional)
	IsActive *bool
	// SearchKeyword searches platform name, product ID and SKU (optional)
	SearchKeyword string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// ---------------------------------------------------------------------------
// MappingCache Interface
// ---------------------------------------------------------------------------

// MappingCache is a cache-aside store for resolved mappings. Lookups sit on
// the order-processing hot path; every mapping write invalidates only the
// affected keys, never a blanket flush.
type MappingCache interface {
	// Get returns the cached result for a key, ok=false on miss
	Get(ctx context.Context, key string) (*MappingResult, bool)

	// Set stores a result under a key with a TTL
	Set(ctx context.Context, key string, result *MappingResult, ttl time.Duration)

	// Invalidate removes specific keys
	Invalidate(ctx context.Context, keys ...string)

	// InvalidateTenant removes every key belonging to a tenant.
	// Administrative operation, not part of the normal write path.
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID)
}

// MappingProductKey builds the cache key for a (platform, product id) lookup
func MappingProductKey(tenantID uuid.UUID, platformCode PlatformCode, platformProductID string) string {
	return fmt.Sprintf("mapping:%s:%s:pid:%s", tenantID, platformCode, platformProductID)
}

// MappingSKUKey builds the cache key for a (platform, sku) lookup
func MappingSKUKey(tenantID uuid.UUID, platformCode PlatformCode, platformSKU string) string {
	return fmt.Sprintf("mapping:%s:%s:sku:%s", tenantID, platformCode, platformSKU)
}

// MappingTenantKeyPrefix is the key prefix shared by one tenant's entries
func MappingTenantKeyPrefix(tenantID uuid.UUID) string {
	return fmt.Sprintf("mapping:%s:", tenantID)
}

package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrCredentialsNotConfigured = errors.New("integration: platform credentials not configured")
	ErrPlatformNotRegistered    = errors.New("integration: platform not registered")
	ErrPlatformAuthFailed       = errors.New("integration: platform authentication failed")
	ErrPlatformInvalidResponse  = errors.New("integration: invalid platform response")

	// Order errors
	ErrInvalidOrderPayload = errors.New("integration: invalid order payload")
	ErrNoMappableItems     = errors.New("integration: no order items could be mapped")
	ErrOrderNotAllowed     = errors.New("integration: tenant may not process orders")

	// Mapping errors
	ErrMappingInvalidTenantID   = errors.New("integration: invalid tenant ID")
	ErrMappingInvalidPlatform   = errors.New("integration: invalid platform code")
	ErrMappingInvalidProductID  = errors.New("integration: invalid platform product ID")
	ErrMappingInvalidPOSItemID  = errors.New("integration: invalid POS item ID")
	ErrMappingInvalidName       = errors.New("integration: platform product name is required")
	ErrMappingNotFound          = errors.New("integration: product mapping not found")
	ErrMappingDuplicateActive   = errors.New("integration: an active mapping already exists for this platform product")
	ErrCatalogUnsupportedFormat = errors.New("integration: catalog document format not supported by platform")
)

// PlatformAPIError represents a rejected remote call. It carries enough
// structured context for the caller to make a retry decision.
type PlatformAPIError struct {
	Platform   PlatformCode
	Message    string
	HTTPStatus int
	Timeout    bool
}

// Error implements the error interface
func (e *PlatformAPIError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out: %s", e.Platform, e.Message)
	}
	return fmt.Sprintf("%s: API request failed (HTTP %d): %s", e.Platform, e.HTTPStatus, e.Message)
}

// Retryable returns true if the failure is transient. Remote 5xx responses
// and timeouts are retryable; 4xx rejections are not.
func (e *PlatformAPIError) Retryable() bool {
	return e.Timeout || e.HTTPStatus >= 500
}

// NewPlatformAPIError creates a platform API error for a remote rejection
func NewPlatformAPIError(platform PlatformCode, httpStatus int, message string) *PlatformAPIError {
	return &PlatformAPIError{Platform: platform, Message: message, HTTPStatus: httpStatus}
}

// NewPlatformTimeoutError creates a platform API error for a timed-out call
func NewPlatformTimeoutError(platform PlatformCode, message string) *PlatformAPIError {
	return &PlatformAPIError{Platform: platform, Message: message, Timeout: true}
}

// ---------------------------------------------------------------------------
// PlatformCode represents a delivery platform
// ---------------------------------------------------------------------------

// PlatformCode identifies an external delivery platform
type PlatformCode string

const (
	// PlatformCodeCareem represents the Careem Now marketplace
	PlatformCodeCareem PlatformCode = "CAREEM"
	// PlatformCodeTalabat represents the Talabat marketplace
	PlatformCodeTalabat PlatformCode = "TALABAT"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeCareem, PlatformCodeTalabat:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeCareem:
		return "Careem"
	case PlatformCodeTalabat:
		return "Talabat"
	default:
		return string(c)
	}
}

// ParsePlatformCode parses a case-insensitive platform identifier
func ParsePlatformCode(s string) (PlatformCode, error) {
	switch s {
	case "CAREEM", "careem", "Careem":
		return PlatformCodeCareem, nil
	case "TALABAT", "talabat", "Talabat":
		return PlatformCodeTalabat, nil
	default:
		return "", ErrMappingInvalidPlatform
	}
}

// AllPlatformCodes returns every supported platform
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{PlatformCodeCareem, PlatformCodeTalabat}
}

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents the outcome of one sync attempt
type SyncStatus string

const (
	// SyncStatusSuccess indicates the attempt fully succeeded
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusFailed indicates the attempt failed
	SyncStatusFailed SyncStatus = "FAILED"
	// SyncStatusWarning indicates partial success worth operator attention
	SyncStatusWarning SyncStatus = "WARNING"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSuccess, SyncStatusFailed, SyncStatusWarning:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Catalog Types
// ---------------------------------------------------------------------------

// CatalogDocument is a platform-shaped catalog ready for submission.
// Each platform adapter accepts only documents built by its own transformer.
type CatalogDocument interface {
	// PlatformCode returns the platform this document is shaped for
	PlatformCode() PlatformCode
	// MarshalBody serializes the document into the platform's wire format
	MarshalBody() ([]byte, error)
}

// CatalogSubmitResult normalizes the two platforms' submission semantics
// (synchronous 2xx with a catalog id vs. asynchronous 202 with an import id)
// into one shape.
type CatalogSubmitResult struct {
	// Success is true if the platform accepted the catalog
	Success bool
	// Status is the platform-reported processing state
	Status string
	// ExternalID is the platform's catalog or import identifier
	ExternalID string
	// Message carries any human-readable detail from the platform
	Message string
}

// DayHours describes opening hours for one weekday, platform-neutral
type DayHours struct {
	// Day is the lowercase English weekday name
	Day string
	// OpensAt is the opening time in HH:MM
	OpensAt string
	// ClosesAt is the closing time in HH:MM
	ClosesAt string
}

// ---------------------------------------------------------------------------
// DeliveryPlatform Port Interface
// ---------------------------------------------------------------------------

// DeliveryPlatform defines the port interface for external delivery platforms.
// This interface follows the Ports & Adapters pattern - it's defined in the
// domain layer, and concrete implementations (Careem, Talabat) are in the
// infrastructure layer.
type DeliveryPlatform interface {
	// PlatformCode returns the platform code this adapter handles
	PlatformCode() PlatformCode

	// SubmitCatalog submits a catalog document built for this platform.
	// The document must originate from this platform's transformer.
	SubmitCatalog(ctx context.Context, tenantID uuid.UUID, doc CatalogDocument) (*CatalogSubmitResult, error)

	// UpdateStoreStatus toggles the store open/closed on the platform
	UpdateStoreStatus(ctx context.Context, tenantID uuid.UUID, storeID string, open bool) error

	// UpdateStoreHours pushes weekly opening hours to the platform
	UpdateStoreHours(ctx context.Context, tenantID uuid.UUID, storeID string, hours []DayHours) error

	// UpdateVendorStatus toggles vendor availability on the platform
	UpdateVendorStatus(ctx context.Context, tenantID uuid.UUID, vendorID string, available bool) error

	// TestConnection attempts a token fetch only. It never returns an
	// error; any failure yields false.
	TestConnection(ctx context.Context, tenantID uuid.UUID) bool
}

// PlatformRegistry provides access to configured delivery platform adapters
type PlatformRegistry interface {
	// GetPlatform returns the platform adapter for the specified code
	GetPlatform(code PlatformCode) (DeliveryPlatform, error)

	// ListPlatforms returns all registered platform adapters
	ListPlatforms() []DeliveryPlatform
}

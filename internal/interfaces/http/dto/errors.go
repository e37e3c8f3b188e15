package dto

import (
	"errors"
	"net/http"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/infrastructure/pos"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used when request binding or field validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeOrderRejected is used when an inbound order payload cannot be processed
	ErrCodeOrderRejected = "ERR_ORDER_REJECTED"
	// ErrCodeQuotaExceeded is used when the tenant's order quota is exhausted
	ErrCodeQuotaExceeded = "ERR_QUOTA_EXCEEDED"
)

// Upstream error codes
const (
	// ErrCodeUpstreamUnavailable is used when a delivery platform or the POS rejects or times out
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
	// ErrCodeCredentialsMissing is used when the tenant has not configured the required credentials
	ErrCodeCredentialsMissing = "ERR_CREDENTIALS_MISSING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodeOrderRejected: http.StatusUnprocessableEntity,
	ErrCodeQuotaExceeded: http.StatusForbidden,

	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
	ErrCodeCredentialsMissing:  http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var notFoundErrors = []error{
	integration.ErrMappingNotFound,
	integration.ErrSyncLogNotFound,
	integration.ErrPlatformNotRegistered,
	menu.ErrMenuNotFound,
	menu.ErrMenuItemNotFound,
	menu.ErrMenuGroupNotFound,
	location.ErrLocationNotFound,
	location.ErrCareemBrandNotFound,
	location.ErrCareemBranchNotFound,
}

var invalidStateErrors = []error{
	integration.ErrSyncLogNotRetryable,
	integration.ErrNoMappableItems,
	integration.ErrCatalogUnsupportedFormat,
	menu.ErrMenuNotPublished,
	menu.ErrMenuNoPlatforms,
	menu.ErrMenuNoLocations,
	menu.ErrMenuNoItems,
	location.ErrLocationNotConfigured,
}

var validationErrors = []error{
	integration.ErrMappingInvalidTenantID,
	integration.ErrMappingInvalidPlatform,
	integration.ErrMappingInvalidProductID,
	integration.ErrMappingInvalidPOSItemID,
	integration.ErrMappingInvalidName,
	menu.ErrMenuInvalidTenantID,
	menu.ErrMenuInvalidName,
	menu.ErrMenuInvalidItemPrice,
	menu.ErrMenuInvalidSelection,
	menu.ErrMenuInvalidGroupName,
	menu.ErrMenuInvalidItemName,
	menu.ErrMenuInvalidModLink,
	menu.ErrMenuInvalidPlatform,
	menu.ErrMenuInvalidModName,
	menu.ErrMenuDuplicatePlatform,
	menu.ErrMenuDuplicateLocation,
	location.ErrLocationInvalidTenantID,
	location.ErrLocationInvalidName,
	location.ErrCareemInvalidBrandID,
	location.ErrCareemInvalidBranchID,
}

// ClassifyError maps a domain error to an error code for the response envelope.
// Unknown errors classify as internal.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, integration.ErrInvalidOrderPayload):
		return ErrCodeOrderRejected
	case errors.Is(err, integration.ErrOrderNotAllowed):
		return ErrCodeQuotaExceeded
	case errors.Is(err, integration.ErrMappingDuplicateActive):
		return ErrCodeAlreadyExists
	case errors.Is(err, integration.ErrCredentialsNotConfigured):
		return ErrCodeCredentialsMissing
	case errors.Is(err, integration.ErrPlatformAuthFailed),
		errors.Is(err, integration.ErrPlatformInvalidResponse),
		errors.Is(err, pos.ErrPOSAuthFailed),
		errors.Is(err, pos.ErrPOSRequestFailed),
		errors.Is(err, pos.ErrPOSInvalidResponse):
		return ErrCodeUpstreamUnavailable
	}

	var apiErr *integration.PlatformAPIError
	if errors.As(err, &apiErr) {
		return ErrCodeUpstreamUnavailable
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return ErrCodeNotFound
		}
	}
	for _, target := range invalidStateErrors {
		if errors.Is(err, target) {
			return ErrCodeInvalidState
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return ErrCodeValidation
		}
	}

	return ErrCodeInternal
}

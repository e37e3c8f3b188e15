package dto

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/domain/menu"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeOrderRejected, http.StatusUnprocessableEntity},
		{ErrCodeQuotaExceeded, http.StatusForbidden},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeCredentialsMissing, http.StatusConflict},
		{"ERR_NO_SUCH_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"mapping not found", integration.ErrMappingNotFound, ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", menu.ErrMenuNotFound), ErrCodeNotFound},
		{"duplicate active mapping", integration.ErrMappingDuplicateActive, ErrCodeAlreadyExists},
		{"invalid order payload", integration.ErrInvalidOrderPayload, ErrCodeOrderRejected},
		{"order quota", integration.ErrOrderNotAllowed, ErrCodeQuotaExceeded},
		{"missing credentials", integration.ErrCredentialsNotConfigured, ErrCodeCredentialsMissing},
		{"platform outage", &integration.PlatformAPIError{Platform: integration.PlatformCodeCareem, HTTPStatus: 503}, ErrCodeUpstreamUnavailable},
		{"no mappable items", integration.ErrNoMappableItems, ErrCodeInvalidState},
		{"not retryable", integration.ErrSyncLogNotRetryable, ErrCodeInvalidState},
		{"publish guard", menu.ErrMenuNoPlatforms, ErrCodeInvalidState},
		{"unconfigured location", location.ErrLocationNotConfigured, ErrCodeInvalidState},
		{"domain validation", menu.ErrMenuInvalidSelection, ErrCodeValidation},
		{"unknown error", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyError(tt.err))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "mapping not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

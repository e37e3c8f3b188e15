package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncLog(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Valid entry", func(t *testing.T) {
		entry, err := NewSyncLog(tenantID, SyncSubjectOrder, "O1", PlatformCodeCareem,
			"order.transform", SyncStatusSuccess, "2 items mapped")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, SyncSubjectOrder, entry.SubjectType)
		assert.Equal(t, "O1", entry.SubjectID)
		assert.Equal(t, SyncStatusSuccess, entry.Status)
		assert.NotNil(t, entry.Metadata)
	})

	t.Run("Invalid tenant", func(t *testing.T) {
		_, err := NewSyncLog(uuid.Nil, SyncSubjectOrder, "O1", PlatformCodeCareem,
			"order.transform", SyncStatusSuccess, "")
		assert.ErrorIs(t, err, ErrMappingInvalidTenantID)
	})

	t.Run("Missing subject", func(t *testing.T) {
		_, err := NewSyncLog(tenantID, SyncSubjectOrder, "", PlatformCodeCareem,
			"order.transform", SyncStatusSuccess, "")
		assert.Error(t, err)
	})

	t.Run("Invalid status", func(t *testing.T) {
		_, err := NewSyncLog(tenantID, SyncSubjectOrder, "O1", PlatformCodeCareem,
			"order.transform", SyncStatus("PENDING"), "")
		assert.Error(t, err)
	})
}

func TestSyncLog_IsRetryable(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Failed with retryable metadata", func(t *testing.T) {
		entry, err := NewSyncLog(tenantID, SyncSubjectOrder, "O1", PlatformCodeTalabat,
			"order.transform", SyncStatusFailed, "HTTP 503")
		require.NoError(t, err)
		entry.WithMetadata("retryable", true)
		assert.True(t, entry.IsRetryable())
	})

	t.Run("Failed without metadata", func(t *testing.T) {
		entry, err := NewSyncLog(tenantID, SyncSubjectOrder, "O1", PlatformCodeTalabat,
			"order.transform", SyncStatusFailed, "no mappable items")
		require.NoError(t, err)
		assert.False(t, entry.IsRetryable())
	})

	t.Run("Warning is never retryable", func(t *testing.T) {
		entry, err := NewSyncLog(tenantID, SyncSubjectOrder, "O1", PlatformCodeTalabat,
			"order.transform", SyncStatusWarning, "1 item unmapped")
		require.NoError(t, err)
		entry.WithMetadata("retryable", true)
		assert.False(t, entry.IsRetryable())
	})
}

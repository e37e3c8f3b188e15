package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/possync/backend/internal/domain/integration"
)

func newMockSyncLogRepository(t *testing.T) (*GormSyncLogRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSyncLogRepository(gormDB), mock, mockDB
}

func TestGormSyncLogRepository_Append(t *testing.T) {
	t.Run("inserts a new entry", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncLogRepository(t)
		defer mockDB.Close()

		entry, err := integration.NewSyncLog(uuid.New(), integration.SyncSubjectOrder, "order-123",
			integration.PlatformCodeCareem, "order.receive", integration.SyncStatusSuccess, "receipt created")
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "sync_logs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Append(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncLogRepository_FindBySubject(t *testing.T) {
	t.Run("finds entries for one subject", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncLogRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "subject_type", "subject_id", "platform_code", "action", "status", "message", "metadata"}).
			AddRow(uuid.New(), tenantID, integration.SyncSubjectOrder, "order-123", integration.PlatformCodeCareem, "order.receive", integration.SyncStatusFailed, "timeout", `{"retryable":true}`).
			AddRow(uuid.New(), tenantID, integration.SyncSubjectOrder, "order-123", integration.PlatformCodeCareem, "order.receive", integration.SyncStatusSuccess, "", `{}`)

		mock.ExpectQuery(`SELECT \* FROM "sync_logs" WHERE tenant_id = \$1 AND subject_type = \$2 AND subject_id = \$3 ORDER BY created_at DESC`).
			WithArgs(tenantID, integration.SyncSubjectOrder, "order-123").
			WillReturnRows(rows)

		entries, err := repo.FindBySubject(context.Background(), tenantID, integration.SyncSubjectOrder, "order-123")

		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.True(t, entries[0].IsRetryable())
		assert.False(t, entries[1].IsRetryable())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncLogRepository_FindRetryable(t *testing.T) {
	t.Run("filters on failed orders flagged retryable", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncLogRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "subject_type", "subject_id", "platform_code", "action", "status", "message", "metadata"}).
			AddRow(uuid.New(), tenantID, integration.SyncSubjectOrder, "order-7", integration.PlatformCodeTalabat, "order.receive", integration.SyncStatusFailed, "timeout", `{"retryable":true}`)

		mock.ExpectQuery(`SELECT \* FROM "sync_logs" WHERE \(tenant_id = \$1 AND subject_type = \$2 AND status = \$3\) AND metadata ->> 'retryable' = 'true' ORDER BY created_at DESC`).
			WithArgs(tenantID, integration.SyncSubjectOrder, integration.SyncStatusFailed).
			WillReturnRows(rows)

		entries, err := repo.FindRetryable(context.Background(), tenantID)

		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsRetryable())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncLogRepository_FindAll(t *testing.T) {
	t.Run("applies status filter and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockSyncLogRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		status := integration.SyncStatusFailed

		mock.ExpectQuery(`SELECT \* FROM "sync_logs" WHERE tenant_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(tenantID, status, 50).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "subject_type", "subject_id", "platform_code", "action", "status", "message", "metadata"}))

		entries, err := repo.FindAll(context.Background(), tenantID, integration.SyncLogFilter{
			Status:   &status,
			Page:     1,
			PageSize: 50,
		})

		assert.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSyncLogRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements SyncLogRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockSyncLogRepository(t)
		defer mockDB.Close()

		var _ integration.SyncLogRepository = repo
	})
}

package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

// QuotaOrderGate admits orders until a tenant reaches its monthly quota of
// sync attempts. The count comes from the sync log, so retries and failed
// attempts consume quota like successful ones. A quota of zero admits
// everything.
type QuotaOrderGate struct {
	syncLogs     integration.SyncLogRepository
	monthlyQuota int
	logger       *zap.Logger
}

// NewQuotaOrderGate creates a quota-based order gate
func NewQuotaOrderGate(syncLogs integration.SyncLogRepository, monthlyQuota int, logger *zap.Logger) *QuotaOrderGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaOrderGate{
		syncLogs:     syncLogs,
		monthlyQuota: monthlyQuota,
		logger:       logger,
	}
}

// AllowOrder reports whether the tenant is under its monthly order quota
func (g *QuotaOrderGate) AllowOrder(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	if g.monthlyQuota <= 0 {
		return true, nil
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	subjectType := integration.SyncSubjectOrder

	used, err := g.syncLogs.Count(ctx, tenantID, integration.SyncLogFilter{
		SubjectType: &subjectType,
		Since:       &monthStart,
	})
	if err != nil {
		return false, err
	}

	if used >= int64(g.monthlyQuota) {
		g.logger.Warn("monthly order quota exhausted",
			zap.String("tenant_id", tenantID.String()),
			zap.Int64("used", used),
			zap.Int("quota", g.monthlyQuota))
		return false, nil
	}
	return true, nil
}

// Ensure QuotaOrderGate implements OrderGate
var _ integration.OrderGate = (*QuotaOrderGate)(nil)

package location

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
)

// LocationService manages physical outlets and pushes their operational
// state (open/closed, opening hours) to the platforms they are configured
// for. Each platform push is independent; results are merged per platform so
// one failing platform never hides another's success.
type LocationService struct {
	repo     location.LocationRepository
	registry integration.PlatformRegistry
	logger   *zap.Logger
}

// NewLocationService creates a location service
func NewLocationService(repo location.LocationRepository, registry integration.PlatformRegistry, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{repo: repo, registry: registry, logger: logger}
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// CreateLocation creates a location
func (s *LocationService) CreateLocation(ctx context.Context, tenantID uuid.UUID, req *CreateLocationRequest) (*location.Location, error) {
	l, err := location.NewLocation(tenantID, req.Name)
	if err != nil {
		return nil, err
	}
	l.CareemStoreID = req.CareemStoreID
	l.TalabatVendorID = req.TalabatVendorID
	if req.WeeklyHours != nil {
		l.SetWeeklyHours(req.DayHours())
	}

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetLocation retrieves a location
func (s *LocationService) GetLocation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*location.Location, error) {
	return s.getOwned(ctx, tenantID, id)
}

// ListLocations lists all locations of a tenant
func (s *LocationService) ListLocations(ctx context.Context, tenantID uuid.UUID) ([]location.Location, error) {
	return s.repo.FindAll(ctx, tenantID)
}

// UpdateLocation applies field updates to a location
func (s *LocationService) UpdateLocation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, req *UpdateLocationRequest) (*location.Location, error) {
	l, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		l.Name = req.Name
	}
	if req.CareemStoreID != nil {
		l.CareemStoreID = *req.CareemStoreID
	}
	if req.TalabatVendorID != nil {
		l.TalabatVendorID = *req.TalabatVendorID
	}
	if req.IsOpen != nil {
		l.SetOpen(*req.IsOpen)
	}
	if req.IsBusy != nil {
		l.SetBusy(*req.IsBusy)
	}
	if req.WeeklyHours != nil {
		l.SetWeeklyHours(req.DayHours())
	}

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLocation removes a location
func (s *LocationService) DeleteLocation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *LocationService) getOwned(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*location.Location, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.TenantID != tenantID {
		return nil, location.ErrLocationNotFound
	}
	return l, nil
}

// ---------------------------------------------------------------------------
// Platform sync
// ---------------------------------------------------------------------------

// SyncPlatform pushes a location's operational state to one platform. The
// location must carry a store identifier for that platform.
func (s *LocationService) SyncPlatform(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, code integration.PlatformCode) (*location.Location, error) {
	l, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, ok := l.PlatformStoreID(code); !ok {
		return nil, location.ErrLocationNotConfigured
	}

	status := s.push(ctx, tenantID, l, code)
	l.MergeSyncStatus(code, status)
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// SyncAllPlatforms pushes a location's state to every configured platform.
// Platforms the location is not configured for are skipped silently; one
// platform's failure never aborts the others.
func (s *LocationService) SyncAllPlatforms(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*location.Location, error) {
	l, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	for _, code := range l.ConfiguredPlatforms() {
		status := s.push(ctx, tenantID, l, code)
		l.MergeSyncStatus(code, status)
	}

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// push performs the store-status and opening-hours calls for one platform
// and reduces the outcome to a sync status entry. A busy location reports
// closed to the platform even while IsOpen stays true.
func (s *LocationService) push(ctx context.Context, tenantID uuid.UUID, l *location.Location, code integration.PlatformCode) location.PlatformSyncStatus {
	now := time.Now()
	fail := func(err error) location.PlatformSyncStatus {
		s.logger.Warn("location sync failed",
			zap.String("location_id", l.ID.String()),
			zap.String("platform", code.String()),
			zap.Error(err))
		return location.PlatformSyncStatus{
			Status:     integration.SyncStatusFailed,
			LastSyncAt: now,
			Error:      err.Error(),
		}
	}

	adapter, err := s.registry.GetPlatform(code)
	if err != nil {
		return fail(err)
	}
	storeID, _ := l.PlatformStoreID(code)

	open := l.IsOpen && !l.IsBusy
	if err := adapter.UpdateStoreStatus(ctx, tenantID, storeID, open); err != nil {
		return fail(err)
	}
	if len(l.WeeklyHours) > 0 {
		if err := adapter.UpdateStoreHours(ctx, tenantID, storeID, l.WeeklyHours); err != nil {
			return fail(err)
		}
	}

	return location.PlatformSyncStatus{
		Status:     integration.SyncStatusSuccess,
		LastSyncAt: now,
	}
}

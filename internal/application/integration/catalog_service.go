package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/infrastructure/platform"
	"github.com/possync/backend/internal/infrastructure/telemetry"
)

const actionCatalogPublish = "catalog.publish"

// PlatformPublishResult is one platform's outcome within a publish run
type PlatformPublishResult struct {
	Success    bool   `json:"success"`
	Status     string `json:"status,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// PublishResult aggregates a publish run across the menu's platforms
type PublishResult struct {
	MenuID    uuid.UUID                                        `json:"menu_id"`
	Published bool                                             `json:"published"`
	Platforms map[integration.PlatformCode]PlatformPublishResult `json:"platforms"`
}

// CatalogService publishes menus to their assigned delivery platforms. Each
// platform is transformed and submitted independently; one platform's
// rejection never blocks another's.
type CatalogService struct {
	menus        menu.MenuRepository
	locations    location.LocationRepository
	registry     integration.PlatformRegistry
	transformers map[integration.PlatformCode]menu.CatalogTransformer
	syncLogs     integration.SyncLogRepository
	metrics      *telemetry.SyncMetrics
	logger       *zap.Logger
}

// NewCatalogService creates a catalog service
func NewCatalogService(
	menus menu.MenuRepository,
	locations location.LocationRepository,
	registry integration.PlatformRegistry,
	transformers []menu.CatalogTransformer,
	syncLogs integration.SyncLogRepository,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byPlatform := make(map[integration.PlatformCode]menu.CatalogTransformer, len(transformers))
	for _, t := range transformers {
		byPlatform[t.PlatformCode()] = t
	}
	return &CatalogService{
		menus:        menus,
		locations:    locations,
		registry:     registry,
		transformers: byPlatform,
		syncLogs:     syncLogs,
		metrics:      metrics,
		logger:       logger,
	}
}

// ---------------------------------------------------------------------------
// Publishing
// ---------------------------------------------------------------------------

// PublishMenu transforms and submits a menu to every platform assigned to
// it. The menu transitions to published when at least one platform accepts.
func (s *CatalogService) PublishMenu(ctx context.Context, tenantID uuid.UUID, menuID uuid.UUID) (*PublishResult, error) {
	m, err := s.getOwnedMenu(ctx, tenantID, menuID)
	if err != nil {
		return nil, err
	}
	if err := m.CanPublish(); err != nil {
		return nil, err
	}

	vendorIDs, err := s.talabatVendorIDs(ctx, tenantID, m)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		MenuID:    m.ID,
		Platforms: make(map[integration.PlatformCode]PlatformPublishResult, len(m.PlatformCodes)),
	}

	for _, code := range m.PlatformCodes {
		platformResult := s.publishToPlatform(ctx, tenantID, m, code, vendorIDs)
		result.Platforms[code] = platformResult
		if platformResult.Success {
			result.Published = true
		}
		s.metrics.RecordCatalogPublish(ctx, code, platformResult.Success)
	}

	if result.Published {
		if err := m.Publish(); err != nil {
			return nil, err
		}
		if err := s.menus.Save(ctx, m); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (s *CatalogService) publishToPlatform(ctx context.Context, tenantID uuid.UUID, m *menu.Menu, code integration.PlatformCode, vendorIDs []string) PlatformPublishResult {
	transformer, ok := s.transformers[code]
	if !ok {
		s.recordPublish(ctx, tenantID, m, code, integration.SyncStatusFailed,
			fmt.Sprintf("no catalog transformer for platform %s", code), false, nil)
		return PlatformPublishResult{Error: integration.ErrPlatformNotRegistered.Error()}
	}

	doc, err := transformer.Transform(m)
	if err != nil {
		s.recordPublish(ctx, tenantID, m, code, integration.SyncStatusFailed,
			fmt.Sprintf("catalog transform failed: %v", err), false, nil)
		return PlatformPublishResult{Error: err.Error()}
	}

	// Talabat addresses catalogs to vendors; the transformer cannot know
	// the menu's location assignments, so the vendor list is filled here
	if talabatDoc, ok := doc.(*platform.TalabatCatalogDocument); ok {
		talabatDoc.Vendors = vendorIDs
	}

	adapter, err := s.registry.GetPlatform(code)
	if err != nil {
		s.recordPublish(ctx, tenantID, m, code, integration.SyncStatusFailed,
			fmt.Sprintf("platform unavailable: %v", err), false, nil)
		return PlatformPublishResult{Error: err.Error()}
	}

	submitted, err := adapter.SubmitCatalog(ctx, tenantID, doc)
	if err != nil {
		s.recordPublish(ctx, tenantID, m, code, integration.SyncStatusFailed,
			fmt.Sprintf("catalog submission failed: %v", err), isTransient(err), nil)
		return PlatformPublishResult{Error: err.Error()}
	}

	s.recordPublish(ctx, tenantID, m, code, integration.SyncStatusSuccess,
		fmt.Sprintf("catalog accepted by %s (%s)", code, submitted.Status), false,
		map[string]interface{}{
			"external_id": submitted.ExternalID,
			"status":      submitted.Status,
		})
	return PlatformPublishResult{
		Success:    submitted.Success,
		Status:     submitted.Status,
		ExternalID: submitted.ExternalID,
	}
}

// UnpublishMenu marks a published menu as unpublished. The platforms keep
// serving their last accepted catalog; this only stops future publishes.
func (s *CatalogService) UnpublishMenu(ctx context.Context, tenantID uuid.UUID, menuID uuid.UUID) (*menu.Menu, error) {
	m, err := s.getOwnedMenu(ctx, tenantID, menuID)
	if err != nil {
		return nil, err
	}
	if err := m.Unpublish(); err != nil {
		return nil, err
	}
	if err := s.menus.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Import log
// ---------------------------------------------------------------------------

// FetchTalabatImportLog retrieves the validation outcome of an earlier
// Talabat catalog submission
func (s *CatalogService) FetchTalabatImportLog(ctx context.Context, tenantID uuid.UUID, importID string) ([]platform.ImportLogEntry, error) {
	adapter, err := s.registry.GetPlatform(integration.PlatformCodeTalabat)
	if err != nil {
		return nil, err
	}
	talabat, ok := adapter.(*platform.TalabatAdapter)
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return talabat.FetchImportLog(ctx, tenantID, importID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *CatalogService) getOwnedMenu(ctx context.Context, tenantID uuid.UUID, menuID uuid.UUID) (*menu.Menu, error) {
	m, err := s.menus.FindByID(ctx, menuID)
	if err != nil {
		return nil, err
	}
	if m.TenantID != tenantID {
		return nil, menu.ErrMenuNotFound
	}
	return m, nil
}

// talabatVendorIDs collects the Talabat vendor IDs of the menu's assigned
// locations. Locations without a Talabat configuration are skipped.
func (s *CatalogService) talabatVendorIDs(ctx context.Context, tenantID uuid.UUID, m *menu.Menu) ([]string, error) {
	assigned := make(map[uuid.UUID]bool, len(m.LocationIDs))
	for _, id := range m.LocationIDs {
		assigned[id] = true
	}

	locations, err := s.locations.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	vendorIDs := make([]string, 0, len(m.LocationIDs))
	for _, loc := range locations {
		if !assigned[loc.ID] {
			continue
		}
		if loc.TalabatVendorID != "" {
			vendorIDs = append(vendorIDs, loc.TalabatVendorID)
		}
	}
	return vendorIDs, nil
}

func (s *CatalogService) recordPublish(ctx context.Context, tenantID uuid.UUID, m *menu.Menu, code integration.PlatformCode, status integration.SyncStatus, message string, retryable bool, extra map[string]interface{}) {
	entry, err := integration.NewSyncLog(tenantID, integration.SyncSubjectMenu, m.ID.String(),
		code, actionCatalogPublish, status, message)
	if err != nil {
		s.logger.Error("failed to build sync log entry", zap.Error(err))
		return
	}
	entry.WithMetadata("menu_name", m.Name)
	if status == integration.SyncStatusFailed {
		entry.WithMetadata("retryable", retryable)
	}
	for k, v := range extra {
		entry.WithMetadata(k, v)
	}

	if err := s.syncLogs.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append sync log entry",
			zap.String("menu_id", m.ID.String()), zap.Error(err))
	}
}

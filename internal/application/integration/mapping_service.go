package integration

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

// csvHeader is the product mapping import/export column layout
var csvHeader = []string{
	"platform", "platform_product_id", "platform_sku", "platform_name",
	"loyverse_item_id", "loyverse_variant_id", "is_active", "created_at",
}

// MappingService resolves platform product references to POS references and
// owns the mapping lifecycle. Resolution sits on the order hot path and runs
// cache-aside; every mutation invalidates the affected cache keys only.
type MappingService struct {
	repo       integration.ProductMappingRepository
	cache      integration.MappingCache
	pos        integration.POSClient
	mappingTTL time.Duration
	logger     *zap.Logger
}

// NewMappingService creates a mapping service
func NewMappingService(
	repo integration.ProductMappingRepository,
	cache integration.MappingCache,
	pos integration.POSClient,
	mappingTTL time.Duration,
	logger *zap.Logger,
) *MappingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingService{
		repo:       repo,
		cache:      cache,
		pos:        pos,
		mappingTTL: mappingTTL,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// ResolveItem resolves a platform product reference to its POS reference.
// Lookup order: (platform, product id) first, then (platform, sku) when a SKU
// is given; both pass through the cache. Returns ErrMappingNotFound when no
// active mapping matches either key.
func (s *MappingService) ResolveItem(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, productID, sku string) (*integration.MappingResult, error) {
	if productID != "" {
		result, err := s.resolveByKey(ctx,
			integration.MappingProductKey(tenantID, platformCode, productID),
			func() (*integration.ProductMapping, error) {
				return s.repo.FindActiveByPlatformProduct(ctx, tenantID, platformCode, productID)
			})
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, integration.ErrMappingNotFound) {
			return nil, err
		}
	}

	if sku != "" {
		return s.resolveByKey(ctx,
			integration.MappingSKUKey(tenantID, platformCode, sku),
			func() (*integration.ProductMapping, error) {
				return s.repo.FindActiveByPlatformSKU(ctx, tenantID, platformCode, sku)
			})
	}

	return nil, integration.ErrMappingNotFound
}

func (s *MappingService) resolveByKey(ctx context.Context, key string, lookup func() (*integration.ProductMapping, error)) (*integration.MappingResult, error) {
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	mapping, err := lookup()
	if err != nil {
		return nil, err
	}

	result := mapping.Result()
	s.cache.Set(ctx, key, result, s.mappingTTL)
	return result, nil
}

// MapOrderItems resolves every order line item, splitting the input into
// mapped and unmapped subsets. Individual resolution misses never fail the
// call; only infrastructure errors do. len(mapped)+len(unmapped) always
// equals len(items).
func (s *MappingService) MapOrderItems(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, items []integration.InboundOrderItem) ([]integration.MappedOrderItem, []integration.UnmappedOrderItem, error) {
	mapped := make([]integration.MappedOrderItem, 0, len(items))
	unmapped := make([]integration.UnmappedOrderItem, 0)

	for _, item := range items {
		if item.ProductID == "" && item.SKU == "" {
			unmapped = append(unmapped, integration.UnmappedOrderItem{
				Item:   item,
				Reason: integration.UnmappedReasonMissingProductID,
			})
			continue
		}

		result, err := s.ResolveItem(ctx, tenantID, platformCode, item.ProductID, item.SKU)
		if err != nil {
			if errors.Is(err, integration.ErrMappingNotFound) {
				unmapped = append(unmapped, integration.UnmappedOrderItem{
					Item:   item,
					Reason: integration.UnmappedReasonNoMappingFound,
				})
				continue
			}
			return nil, nil, err
		}

		mapped = append(mapped, integration.MappedOrderItem{Item: item, Mapping: *result})
	}

	return mapped, unmapped, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// CreateMappingInput carries the fields for a new mapping
type CreateMappingInput struct {
	PlatformCode      integration.PlatformCode
	PlatformProductID string
	PlatformSKU       string
	PlatformName      string
	POSItemID         string
	POSVariantID      string
}

// CreateMapping creates a new active mapping, enforcing the one-active-per-
// platform-product invariant
func (s *MappingService) CreateMapping(ctx context.Context, tenantID uuid.UUID, input CreateMappingInput) (*integration.ProductMapping, error) {
	exists, err := s.repo.ExistsActiveByPlatformProduct(ctx, tenantID, input.PlatformCode, input.PlatformProductID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, integration.ErrMappingDuplicateActive
	}

	mapping, err := integration.NewProductMapping(tenantID, input.PlatformCode,
		input.PlatformProductID, input.PlatformName, input.POSItemID)
	if err != nil {
		return nil, err
	}
	if input.PlatformSKU != "" {
		mapping.SetSKU(input.PlatformSKU)
	}
	if input.POSVariantID != "" {
		if err := mapping.Relink(input.POSItemID, input.POSVariantID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return nil, err
	}

	s.invalidate(ctx, mapping)
	return mapping, nil
}

// UpdateMappingInput carries optional field updates; nil fields stay as-is
type UpdateMappingInput struct {
	PlatformSKU  *string
	PlatformName *string
	POSItemID    *string
	POSVariantID *string
}

// UpdateMapping applies field updates to an existing mapping and invalidates
// both its old and new cache keys
func (s *MappingService) UpdateMapping(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, input UpdateMappingInput) (*integration.ProductMapping, error) {
	mapping, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	// the pre-update SKU key may also be stale after this write
	oldSKU := mapping.PlatformSKU

	if input.PlatformName != nil {
		if err := mapping.Rename(*input.PlatformName); err != nil {
			return nil, err
		}
	}
	if input.PlatformSKU != nil {
		mapping.SetSKU(*input.PlatformSKU)
	}
	if input.POSItemID != nil || input.POSVariantID != nil {
		itemID := mapping.POSItemID
		variantID := mapping.POSVariantID
		if input.POSItemID != nil {
			itemID = *input.POSItemID
		}
		if input.POSVariantID != nil {
			variantID = *input.POSVariantID
		}
		if err := mapping.Relink(itemID, variantID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return nil, err
	}

	s.invalidate(ctx, mapping)
	if oldSKU != "" && oldSKU != mapping.PlatformSKU {
		s.cache.Invalidate(ctx, integration.MappingSKUKey(tenantID, mapping.PlatformCode, oldSKU))
	}
	return mapping, nil
}

// SetActive activates or deactivates a mapping. Activation re-checks the
// one-active invariant; deactivation always succeeds.
func (s *MappingService) SetActive(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, active bool) (*integration.ProductMapping, error) {
	mapping, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if active && !mapping.IsActive {
		exists, err := s.repo.ExistsActiveByPlatformProduct(ctx, tenantID, mapping.PlatformCode, mapping.PlatformProductID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, integration.ErrMappingDuplicateActive
		}
		mapping.Activate()
	} else if !active && mapping.IsActive {
		mapping.Deactivate()
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return nil, err
	}

	s.invalidate(ctx, mapping)
	return mapping, nil
}

// DeleteMapping hard-deletes a mapping. Normal flow deactivates instead;
// deletion is explicit operator cleanup.
func (s *MappingService) DeleteMapping(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	mapping, err := s.getOwned(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, mapping)
	return nil
}

// GetMapping retrieves a mapping by ID
func (s *MappingService) GetMapping(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.ProductMapping, error) {
	return s.getOwned(ctx, tenantID, id)
}

// ListMappings lists mappings with filtering and pagination
func (s *MappingService) ListMappings(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	mappings, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return mappings, count, nil
}

// ClearCache flushes every cached resolution for a tenant. Administrative
// operation; normal writes invalidate per key.
func (s *MappingService) ClearCache(ctx context.Context, tenantID uuid.UUID) {
	s.cache.InvalidateTenant(ctx, tenantID)
	s.logger.Info("mapping cache cleared", zap.String("tenant_id", tenantID.String()))
}

func (s *MappingService) getOwned(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.ProductMapping, error) {
	mapping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mapping.TenantID != tenantID {
		return nil, integration.ErrMappingNotFound
	}
	return mapping, nil
}

// invalidate drops the cache entries a mapping write may have staled
func (s *MappingService) invalidate(ctx context.Context, mapping *integration.ProductMapping) {
	keys := []string{
		integration.MappingProductKey(mapping.TenantID, mapping.PlatformCode, mapping.PlatformProductID),
	}
	if mapping.PlatformSKU != "" {
		keys = append(keys, integration.MappingSKUKey(mapping.TenantID, mapping.PlatformCode, mapping.PlatformSKU))
	}
	s.cache.Invalidate(ctx, keys...)
}

// ---------------------------------------------------------------------------
// Bulk import / export
// ---------------------------------------------------------------------------

// MappingImportRow is one row of a bulk import
type MappingImportRow struct {
	PlatformCode      integration.PlatformCode
	PlatformProductID string
	PlatformSKU       string
	PlatformName      string
	POSItemID         string
	POSVariantID      string
	IsActive          bool
}

// BulkImportResult summarizes a bulk import
type BulkImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkImport upserts rows by (platform, platform_product_id). Row-level
// failures are collected, never fatal to the batch.
func (s *MappingService) BulkImport(ctx context.Context, tenantID uuid.UUID, rows []MappingImportRow) (*BulkImportResult, error) {
	result := &BulkImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		if row.PlatformProductID == "" || row.POSItemID == "" || row.PlatformName == "" {
			result.Skipped++
			continue
		}

		existing, err := s.repo.FindByPlatformProduct(ctx, tenantID, row.PlatformCode, row.PlatformProductID)
		switch {
		case err == nil:
			if err := s.applyImportRow(ctx, existing, row); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			result.Updated++
		case errors.Is(err, integration.ErrMappingNotFound):
			if err := s.createFromImportRow(ctx, tenantID, row); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			result.Created++
		default:
			return nil, err
		}
	}

	s.logger.Info("mapping bulk import finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *MappingService) applyImportRow(ctx context.Context, mapping *integration.ProductMapping, row MappingImportRow) error {
	if err := mapping.Rename(row.PlatformName); err != nil {
		return err
	}
	mapping.SetSKU(row.PlatformSKU)
	if err := mapping.Relink(row.POSItemID, row.POSVariantID); err != nil {
		return err
	}
	if row.IsActive {
		mapping.Activate()
	} else {
		mapping.Deactivate()
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return err
	}
	s.invalidate(ctx, mapping)
	return nil
}

func (s *MappingService) createFromImportRow(ctx context.Context, tenantID uuid.UUID, row MappingImportRow) error {
	mapping, err := integration.NewProductMapping(tenantID, row.PlatformCode,
		row.PlatformProductID, row.PlatformName, row.POSItemID)
	if err != nil {
		return err
	}
	if row.PlatformSKU != "" {
		mapping.SetSKU(row.PlatformSKU)
	}
	if row.POSVariantID != "" {
		if err := mapping.Relink(row.POSItemID, row.POSVariantID); err != nil {
			return err
		}
	}
	if !row.IsActive {
		mapping.Deactivate()
	}

	if err := s.repo.Save(ctx, mapping); err != nil {
		return err
	}
	s.invalidate(ctx, mapping)
	return nil
}

// ImportCSV parses a mapping CSV and bulk-imports its rows. Column order
// follows the header row; missing optional columns are tolerated.
func (s *MappingService) ImportCSV(ctx context.Context, tenantID uuid.UUID, r io.Reader) (*BulkImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("integration: failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	rows := make([]MappingImportRow, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("integration: failed to read CSV row: %w", err)
		}

		active := true
		if raw := field(record, "is_active"); raw != "" {
			if parsed, err := strconv.ParseBool(raw); err == nil {
				active = parsed
			}
		}

		rows = append(rows, MappingImportRow{
			PlatformCode:      integration.PlatformCode(strings.ToUpper(field(record, "platform"))),
			PlatformProductID: field(record, "platform_product_id"),
			PlatformSKU:       field(record, "platform_sku"),
			PlatformName:      field(record, "platform_name"),
			POSItemID:         field(record, "loyverse_item_id"),
			POSVariantID:      field(record, "loyverse_variant_id"),
			IsActive:          active,
		})
	}

	return s.BulkImport(ctx, tenantID, rows)
}

// ExportCSV writes every mapping of a tenant as CSV
func (s *MappingService) ExportCSV(ctx context.Context, tenantID uuid.UUID, w io.Writer) error {
	mappings, err := s.repo.FindAll(ctx, tenantID, integration.ProductMappingFilter{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("integration: failed to write CSV header: %w", err)
	}
	for _, m := range mappings {
		record := []string{
			string(m.PlatformCode),
			m.PlatformProductID,
			m.PlatformSKU,
			m.PlatformName,
			m.POSItemID,
			m.POSVariantID,
			strconv.FormatBool(m.IsActive),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("integration: failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ---------------------------------------------------------------------------
// Auto-mapping
// ---------------------------------------------------------------------------

// AutoMapProduct is one platform product offered for auto-mapping
type AutoMapProduct struct {
	ProductID string `json:"product_id" binding:"required"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
}

// AutoMapResult summarizes an auto-map run
type AutoMapResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// AutoMap creates mappings by exact SKU match between the POS item catalog
// and unmapped platform products. Products already actively mapped are
// skipped.
func (s *MappingService) AutoMap(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, products []AutoMapProduct) (*AutoMapResult, error) {
	posItems, err := s.pos.ListItems(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// index POS references by SKU; variant SKUs win over item-level ones
	bySKU := make(map[string]integration.MappingResult)
	for _, item := range posItems {
		if item.SKU != "" {
			bySKU[item.SKU] = integration.MappingResult{POSItemID: item.ID}
		}
		for _, variant := range item.Variants {
			if variant.SKU != "" {
				bySKU[variant.SKU] = integration.MappingResult{POSItemID: item.ID, POSVariantID: variant.ID}
			}
		}
	}

	result := &AutoMapResult{}
	for _, product := range products {
		if product.ProductID == "" || product.SKU == "" {
			result.Skipped++
			continue
		}

		exists, err := s.repo.ExistsActiveByPlatformProduct(ctx, tenantID, platformCode, product.ProductID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		ref, ok := bySKU[product.SKU]
		if !ok {
			result.Skipped++
			continue
		}

		name := product.Name
		if name == "" {
			name = product.SKU
		}
		mapping, err := integration.NewProductMapping(tenantID, platformCode, product.ProductID, name, ref.POSItemID)
		if err != nil {
			result.Skipped++
			continue
		}
		mapping.SetSKU(product.SKU)
		if ref.POSVariantID != "" {
			if err := mapping.Relink(ref.POSItemID, ref.POSVariantID); err != nil {
				result.Skipped++
				continue
			}
		}

		if err := s.repo.Save(ctx, mapping); err != nil {
			return nil, err
		}
		s.invalidate(ctx, mapping)
		result.Created++
	}

	return result, nil
}

package integration

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/possync/backend/internal/domain/integration"
)

func newTestMappingService(repo *stubMappingRepo, cache *countingCache, posCli integration.POSClient) *MappingService {
	if posCli == nil {
		posCli = &stubPOSClient{}
	}
	return NewMappingService(repo, cache, posCli, 15*time.Minute, nil)
}

func mustNewMapping(t *testing.T, tenantID uuid.UUID, productID, name, posItemID string) *integration.ProductMapping {
	t.Helper()
	m, err := integration.NewProductMapping(tenantID, integration.PlatformCodeCareem, productID, name, posItemID)
	require.NoError(t, err)
	return m
}

func TestMappingService_ResolveItem(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("resolves by product ID and fills the cache", func(t *testing.T) {
		repo := newStubMappingRepo()
		cache := newCountingCache()
		svc := newTestMappingService(repo, cache, nil)

		mapping := mustNewMapping(t, tenantID, "P1", "Shawarma", "pos-1")
		repo.add(mapping)

		result, err := svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "P1", "")
		require.NoError(t, err)
		assert.Equal(t, "pos-1", result.POSItemID)
		assert.Equal(t, 1, cache.misses)
		assert.Equal(t, 1, cache.sets)

		// second lookup comes from the cache
		result, err = svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "P1", "")
		require.NoError(t, err)
		assert.Equal(t, "pos-1", result.POSItemID)
		assert.Equal(t, 1, cache.hits)
	})

	t.Run("falls back to SKU when the product ID misses", func(t *testing.T) {
		repo := newStubMappingRepo()
		cache := newCountingCache()
		svc := newTestMappingService(repo, cache, nil)

		mapping := mustNewMapping(t, tenantID, "P9", "Falafel", "pos-9")
		mapping.SetSKU("SKU-9")
		repo.add(mapping)

		result, err := svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "UNKNOWN", "SKU-9")
		require.NoError(t, err)
		assert.Equal(t, "pos-9", result.POSItemID)
	})

	t.Run("returns not found when neither key matches", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		_, err := svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "NOPE", "NOPE")
		assert.ErrorIs(t, err, integration.ErrMappingNotFound)
	})

	t.Run("ignores inactive mappings", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		mapping := mustNewMapping(t, tenantID, "P2", "Water", "pos-2")
		mapping.Deactivate()
		repo.add(mapping)

		_, err := svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "P2", "")
		assert.ErrorIs(t, err, integration.ErrMappingNotFound)
	})
}

func TestMappingService_MapOrderItems(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("splits items into mapped and unmapped", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)
		repo.add(mustNewMapping(t, tenantID, "P1", "Shawarma", "pos-1"))

		items := []integration.InboundOrderItem{
			{ProductID: "P1", Quantity: decimal.NewFromInt(2)},
			{ProductID: "P2", Quantity: decimal.NewFromInt(1)},
			{Quantity: decimal.NewFromInt(1)},
		}

		mapped, unmapped, err := svc.MapOrderItems(ctx, tenantID, integration.PlatformCodeCareem, items)
		require.NoError(t, err)
		assert.Len(t, mapped, 1)
		assert.Len(t, unmapped, 2)
		assert.Equal(t, len(items), len(mapped)+len(unmapped))

		assert.Equal(t, "pos-1", mapped[0].Mapping.POSItemID)
		assert.Equal(t, integration.UnmappedReasonNoMappingFound, unmapped[0].Reason)
		assert.Equal(t, integration.UnmappedReasonMissingProductID, unmapped[1].Reason)
	})

	t.Run("propagates infrastructure errors", func(t *testing.T) {
		repo := newStubMappingRepo()
		repo.findErr = errors.New("connection refused")
		svc := newTestMappingService(repo, newCountingCache(), nil)

		_, _, err := svc.MapOrderItems(ctx, tenantID, integration.PlatformCodeCareem,
			[]integration.InboundOrderItem{{ProductID: "P1"}})
		require.Error(t, err)
		assert.NotErrorIs(t, err, integration.ErrMappingNotFound)
	})
}

func TestMappingService_CreateMapping(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates an active mapping", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		mapping, err := svc.CreateMapping(ctx, tenantID, CreateMappingInput{
			PlatformCode:      integration.PlatformCodeCareem,
			PlatformProductID: "P1",
			PlatformSKU:       "SKU-1",
			PlatformName:      "Shawarma",
			POSItemID:         "pos-1",
			POSVariantID:      "var-1",
		})
		require.NoError(t, err)
		assert.True(t, mapping.IsActive)
		assert.Equal(t, "var-1", mapping.POSVariantID)
		assert.Equal(t, 1, repo.saves)
	})

	t.Run("rejects a second active mapping for the same product", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)
		repo.add(mustNewMapping(t, tenantID, "P1", "Shawarma", "pos-1"))

		_, err := svc.CreateMapping(ctx, tenantID, CreateMappingInput{
			PlatformCode:      integration.PlatformCodeCareem,
			PlatformProductID: "P1",
			PlatformName:      "Duplicate",
			POSItemID:         "pos-2",
		})
		assert.ErrorIs(t, err, integration.ErrMappingDuplicateActive)
	})
}

func TestMappingService_UpdateMapping(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("invalidates old and new SKU keys", func(t *testing.T) {
		repo := newStubMappingRepo()
		cache := newCountingCache()
		svc := newTestMappingService(repo, cache, nil)

		mapping := mustNewMapping(t, tenantID, "P1", "Shawarma", "pos-1")
		mapping.SetSKU("OLD-SKU")
		repo.add(mapping)

		newSKU := "NEW-SKU"
		updated, err := svc.UpdateMapping(ctx, tenantID, mapping.ID, UpdateMappingInput{PlatformSKU: &newSKU})
		require.NoError(t, err)
		assert.Equal(t, "NEW-SKU", updated.PlatformSKU)

		oldKey := integration.MappingSKUKey(tenantID, integration.PlatformCodeCareem, "OLD-SKU")
		newKey := integration.MappingSKUKey(tenantID, integration.PlatformCodeCareem, "NEW-SKU")
		assert.Contains(t, cache.invalidated, oldKey)
		assert.Contains(t, cache.invalidated, newKey)
	})

	t.Run("rejects mappings of other tenants", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		mapping := mustNewMapping(t, uuid.New(), "P1", "Shawarma", "pos-1")
		repo.add(mapping)

		name := "Renamed"
		_, err := svc.UpdateMapping(ctx, tenantID, mapping.ID, UpdateMappingInput{PlatformName: &name})
		assert.ErrorIs(t, err, integration.ErrMappingNotFound)
	})
}

func TestMappingService_SetActive(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("deactivation drops the cached resolution", func(t *testing.T) {
		repo := newStubMappingRepo()
		cache := newCountingCache()
		svc := newTestMappingService(repo, cache, nil)

		mapping := mustNewMapping(t, tenantID, "P1", "Shawarma", "pos-1")
		repo.add(mapping)

		// warm the cache
		_, err := svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "P1", "")
		require.NoError(t, err)

		_, err = svc.SetActive(ctx, tenantID, mapping.ID, false)
		require.NoError(t, err)

		// resolution now misses the cache and the repository
		_, err = svc.ResolveItem(ctx, tenantID, integration.PlatformCodeCareem, "P1", "")
		assert.ErrorIs(t, err, integration.ErrMappingNotFound)
	})

	t.Run("reactivation re-checks the uniqueness invariant", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		inactive := mustNewMapping(t, tenantID, "P1", "Old", "pos-1")
		inactive.Deactivate()
		repo.add(inactive)
		repo.add(mustNewMapping(t, tenantID, "P1", "Current", "pos-2"))

		_, err := svc.SetActive(ctx, tenantID, inactive.ID, true)
		assert.ErrorIs(t, err, integration.ErrMappingDuplicateActive)
	})
}

func TestMappingService_BulkImport(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates, updates and skips rows", func(t *testing.T) {
		repo := newStubMappingRepo()
		svc := newTestMappingService(repo, newCountingCache(), nil)

		existing := mustNewMapping(t, tenantID, "P1", "Old Name", "pos-1")
		repo.add(existing)

		result, err := svc.BulkImport(ctx, tenantID, []MappingImportRow{
			{PlatformCode: integration.PlatformCodeCareem, PlatformProductID: "P1", PlatformName: "New Name", POSItemID: "pos-1", IsActive: true},
			{PlatformCode: integration.PlatformCodeCareem, PlatformProductID: "P2", PlatformName: "Falafel", POSItemID: "pos-2", IsActive: true},
			{PlatformCode: integration.PlatformCodeCareem, PlatformProductID: "", PlatformName: "No product", POSItemID: "pos-3"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, result.Errors)

		updated, err := repo.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.PlatformName)
	})
}

func TestMappingService_CSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := newStubMappingRepo()
	svc := newTestMappingService(repo, newCountingCache(), nil)

	csvInput := strings.Join([]string{
		"platform,platform_product_id,platform_sku,platform_name,loyverse_item_id,loyverse_variant_id,is_active,created_at",
		"CAREEM,P1,SKU-1,Shawarma,pos-1,var-1,true,2026-01-01T00:00:00Z",
		"TALABAT,P2,,Falafel Wrap,pos-2,,false,2026-01-01T00:00:00Z",
		"CAREEM,,,Missing product,pos-3,,true,",
	}, "\n")

	result, err := svc.ImportCSV(ctx, tenantID, strings.NewReader(csvInput))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, tenantID, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "platform,platform_product_id,platform_sku,platform_name,loyverse_item_id,loyverse_variant_id,is_active,created_at", lines[0])
	assert.Contains(t, buf.String(), "CAREEM,P1,SKU-1,Shawarma,pos-1,var-1,true")
	assert.Contains(t, buf.String(), "TALABAT,P2,,Falafel Wrap,pos-2,,false")
}

func TestMappingService_AutoMap(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	posCli := &stubPOSClient{
		items: []integration.POSItem{
			{ID: "pos-1", Name: "Shawarma", SKU: "SKU-1"},
			{ID: "pos-2", Name: "Cola", Variants: []integration.POSVariant{
				{ID: "var-small", SKU: "COLA-S"},
				{ID: "var-large", SKU: "COLA-L"},
			}},
		},
	}

	repo := newStubMappingRepo()
	svc := newTestMappingService(repo, newCountingCache(), posCli)
	repo.add(mustNewMapping(t, tenantID, "ALREADY", "Mapped", "pos-0"))

	result, err := svc.AutoMap(ctx, tenantID, integration.PlatformCodeCareem, []AutoMapProduct{
		{ProductID: "P1", SKU: "SKU-1", Name: "Shawarma"},
		{ProductID: "P2", SKU: "COLA-L", Name: "Cola Large"},
		{ProductID: "P3", SKU: "UNKNOWN-SKU", Name: "No match"},
		{ProductID: "ALREADY", SKU: "SKU-1", Name: "Already mapped"},
		{ProductID: "P4", Name: "No SKU"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 3, result.Skipped)

	byVariant, err := repo.FindActiveByPlatformProduct(ctx, tenantID, integration.PlatformCodeCareem, "P2")
	require.NoError(t, err)
	assert.Equal(t, "pos-2", byVariant.POSItemID)
	assert.Equal(t, "var-large", byVariant.POSVariantID)
}

func TestMappingService_ClearCache(t *testing.T) {
	cache := newCountingCache()
	svc := newTestMappingService(newStubMappingRepo(), cache, nil)

	svc.ClearCache(context.Background(), uuid.New())
	assert.True(t, cache.flushed)
}

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/domain/menu"
	"github.com/possync/backend/internal/infrastructure/platform"
)

// stubDoc is a minimal catalog document for one platform
type stubDoc struct {
	code integration.PlatformCode
}

func (d *stubDoc) PlatformCode() integration.PlatformCode { return d.code }
func (d *stubDoc) MarshalBody() ([]byte, error)           { return json.Marshal(map[string]string{}) }

// stubTransformer hands out a fixed document
type stubTransformer struct {
	code integration.PlatformCode
	doc  integration.CatalogDocument
	err  error
}

func (t *stubTransformer) PlatformCode() integration.PlatformCode { return t.code }

func (t *stubTransformer) Transform(m *menu.Menu) (integration.CatalogDocument, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.doc, nil
}

type catalogTestEnv struct {
	svc       *CatalogService
	menus     *stubMenuRepo
	locations *stubLocationRepo
	careem    *stubPlatformAdapter
	talabat   *stubPlatformAdapter
	syncLogs  *stubSyncLogRepo
}

func newCatalogTestEnv(t *testing.T, transformers ...menu.CatalogTransformer) *catalogTestEnv {
	t.Helper()
	menus := newStubMenuRepo()
	locations := newStubLocationRepo()
	careem := &stubPlatformAdapter{
		code:      integration.PlatformCodeCareem,
		submitRes: &integration.CatalogSubmitResult{Success: true, Status: "ACCEPTED", ExternalID: "cat-1"},
	}
	talabat := &stubPlatformAdapter{
		code:      integration.PlatformCodeTalabat,
		submitRes: &integration.CatalogSubmitResult{Success: true, Status: "PENDING", ExternalID: "imp-1"},
	}
	syncLogs := &stubSyncLogRepo{}
	svc := NewCatalogService(menus, locations, newStubRegistry(careem, talabat), transformers, syncLogs, nil, nil)
	return &catalogTestEnv{svc: svc, menus: menus, locations: locations, careem: careem, talabat: talabat, syncLogs: syncLogs}
}

func publishableMenu(t *testing.T, tenantID uuid.UUID, codes ...integration.PlatformCode) *menu.Menu {
	t.Helper()
	m, err := menu.NewMenu(tenantID, "Lunch")
	require.NoError(t, err)
	require.NoError(t, m.AddItem(menu.MenuItem{Name: "Shawarma", Price: decimal.NewFromInt(18)}))
	for _, code := range codes {
		require.NoError(t, m.AssignPlatform(code))
	}
	require.NoError(t, m.AssignLocation(uuid.New()))
	return m
}

func TestCatalogService_PublishMenu(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("publishes to every assigned platform", func(t *testing.T) {
		env := newCatalogTestEnv(t,
			&stubTransformer{code: integration.PlatformCodeCareem, doc: &stubDoc{code: integration.PlatformCodeCareem}},
			&stubTransformer{code: integration.PlatformCodeTalabat, doc: &platform.TalabatCatalogDocument{}},
		)
		m := publishableMenu(t, tenantID, integration.PlatformCodeCareem, integration.PlatformCodeTalabat)
		require.NoError(t, env.menus.Save(ctx, m))

		result, err := env.svc.PublishMenu(ctx, tenantID, m.ID)
		require.NoError(t, err)
		assert.True(t, result.Published)
		assert.Len(t, result.Platforms, 2)
		assert.True(t, result.Platforms[integration.PlatformCodeCareem].Success)
		assert.Equal(t, "cat-1", result.Platforms[integration.PlatformCodeCareem].ExternalID)
		assert.True(t, result.Platforms[integration.PlatformCodeTalabat].Success)

		stored, err := env.menus.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, menu.MenuStatusPublished, stored.Status)
		assert.NotNil(t, stored.PublishedAt)
	})

	t.Run("one platform's rejection does not block the other", func(t *testing.T) {
		env := newCatalogTestEnv(t,
			&stubTransformer{code: integration.PlatformCodeCareem, doc: &stubDoc{code: integration.PlatformCodeCareem}},
			&stubTransformer{code: integration.PlatformCodeTalabat, doc: &platform.TalabatCatalogDocument{}},
		)
		env.talabat.submitErr = integration.NewPlatformAPIError(integration.PlatformCodeTalabat, 422, "invalid catalog")

		m := publishableMenu(t, tenantID, integration.PlatformCodeCareem, integration.PlatformCodeTalabat)
		require.NoError(t, env.menus.Save(ctx, m))

		result, err := env.svc.PublishMenu(ctx, tenantID, m.ID)
		require.NoError(t, err)
		assert.True(t, result.Published)
		assert.True(t, result.Platforms[integration.PlatformCodeCareem].Success)
		assert.False(t, result.Platforms[integration.PlatformCodeTalabat].Success)
		assert.Contains(t, result.Platforms[integration.PlatformCodeTalabat].Error, "invalid catalog")

		// one sync log entry per platform
		entries, err := env.syncLogs.FindBySubject(ctx, tenantID, integration.SyncSubjectMenu, m.ID.String())
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("fills Talabat vendors from the assigned locations", func(t *testing.T) {
		talabatDoc := &platform.TalabatCatalogDocument{}
		env := newCatalogTestEnv(t,
			&stubTransformer{code: integration.PlatformCodeTalabat, doc: talabatDoc},
		)

		loc, err := location.NewLocation(tenantID, "Downtown")
		require.NoError(t, err)
		loc.TalabatVendorID = "vendor-7"
		require.NoError(t, env.locations.Save(ctx, loc))

		other, err := location.NewLocation(tenantID, "No Talabat")
		require.NoError(t, err)
		require.NoError(t, env.locations.Save(ctx, other))

		m, err := menu.NewMenu(tenantID, "Dinner")
		require.NoError(t, err)
		require.NoError(t, m.AddItem(menu.MenuItem{Name: "Falafel", Price: decimal.NewFromInt(14)}))
		require.NoError(t, m.AssignPlatform(integration.PlatformCodeTalabat))
		require.NoError(t, m.AssignLocation(loc.ID))
		require.NoError(t, m.AssignLocation(other.ID))
		require.NoError(t, env.menus.Save(ctx, m))

		_, err = env.svc.PublishMenu(ctx, tenantID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"vendor-7"}, talabatDoc.Vendors)
	})

	t.Run("refuses a menu that cannot publish", func(t *testing.T) {
		env := newCatalogTestEnv(t)
		m, err := menu.NewMenu(tenantID, "Empty")
		require.NoError(t, err)
		require.NoError(t, env.menus.Save(ctx, m))

		_, err = env.svc.PublishMenu(ctx, tenantID, m.ID)
		assert.ErrorIs(t, err, menu.ErrMenuNoPlatforms)
		assert.Empty(t, env.careem.submitted)
	})

	t.Run("refuses menus of other tenants", func(t *testing.T) {
		env := newCatalogTestEnv(t)
		m := publishableMenu(t, uuid.New(), integration.PlatformCodeCareem)
		require.NoError(t, env.menus.Save(ctx, m))

		_, err := env.svc.PublishMenu(ctx, tenantID, m.ID)
		assert.ErrorIs(t, err, menu.ErrMenuNotFound)
	})

	t.Run("transform failure is recorded per platform", func(t *testing.T) {
		env := newCatalogTestEnv(t,
			&stubTransformer{code: integration.PlatformCodeCareem, err: errors.New("bad image path")},
		)
		m := publishableMenu(t, tenantID, integration.PlatformCodeCareem)
		require.NoError(t, env.menus.Save(ctx, m))

		result, err := env.svc.PublishMenu(ctx, tenantID, m.ID)
		require.NoError(t, err)
		assert.False(t, result.Published)
		assert.Contains(t, result.Platforms[integration.PlatformCodeCareem].Error, "bad image path")

		stored, err := env.menus.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, menu.MenuStatusDraft, stored.Status)
	})
}

func TestCatalogService_UnpublishMenu(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	env := newCatalogTestEnv(t,
		&stubTransformer{code: integration.PlatformCodeCareem, doc: &stubDoc{code: integration.PlatformCodeCareem}},
	)
	m := publishableMenu(t, tenantID, integration.PlatformCodeCareem)
	require.NoError(t, env.menus.Save(ctx, m))

	_, err := env.svc.PublishMenu(ctx, tenantID, m.ID)
	require.NoError(t, err)

	unpublished, err := env.svc.UnpublishMenu(ctx, tenantID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, menu.MenuStatusDraft, unpublished.Status)

	// unpublishing a draft fails
	_, err = env.svc.UnpublishMenu(ctx, tenantID, m.ID)
	assert.ErrorIs(t, err, menu.ErrMenuNotPublished)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	integrationapp "github.com/possync/backend/internal/application/integration"
	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/cache"
	"github.com/possync/backend/internal/interfaces/http/middleware"
	"github.com/possync/backend/internal/interfaces/http/router"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type memMappingRepo struct {
	mappings map[uuid.UUID]*integration.ProductMapping
}

var _ integration.ProductMappingRepository = (*memMappingRepo)(nil)

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{mappings: make(map[uuid.UUID]*integration.ProductMapping)}
}

func (r *memMappingRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.ProductMapping, error) {
	m, ok := r.mappings[id]
	if !ok {
		return nil, integration.ErrMappingNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *memMappingRepo) FindActiveByPlatformProduct(_ context.Context, tenantID uuid.UUID, code integration.PlatformCode, productID string) (*integration.ProductMapping, error) {
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == code && m.PlatformProductID == productID && m.IsActive {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *memMappingRepo) FindActiveByPlatformSKU(_ context.Context, tenantID uuid.UUID, code integration.PlatformCode, sku string) (*integration.ProductMapping, error) {
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == code && m.PlatformSKU == sku && m.IsActive {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *memMappingRepo) FindByPlatformProduct(_ context.Context, tenantID uuid.UUID, code integration.PlatformCode, productID string) (*integration.ProductMapping, error) {
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == code && m.PlatformProductID == productID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *memMappingRepo) FindAll(_ context.Context, tenantID uuid.UUID, _ integration.ProductMappingFilter) ([]integration.ProductMapping, error) {
	var out []integration.ProductMapping
	for _, m := range r.mappings {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) FindAllActive(_ context.Context, tenantID uuid.UUID, code integration.PlatformCode) ([]integration.ProductMapping, error) {
	var out []integration.ProductMapping
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == code && m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) Count(_ context.Context, tenantID uuid.UUID, _ integration.ProductMappingFilter) (int64, error) {
	var n int64
	for _, m := range r.mappings {
		if m.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (r *memMappingRepo) ExistsActiveByPlatformProduct(_ context.Context, tenantID uuid.UUID, code integration.PlatformCode, productID string) (bool, error) {
	_, err := r.FindActiveByPlatformProduct(context.Background(), tenantID, code, productID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memMappingRepo) Save(_ context.Context, mapping *integration.ProductMapping) error {
	copied := *mapping
	r.mappings[mapping.ID] = &copied
	return nil
}

func (r *memMappingRepo) SaveBatch(_ context.Context, mappings []*integration.ProductMapping) error {
	for _, m := range mappings {
		copied := *m
		r.mappings[m.ID] = &copied
	}
	return nil
}

func (r *memMappingRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.mappings, id)
	return nil
}

type noopPOSClient struct{}

var _ integration.POSClient = (*noopPOSClient)(nil)

func (noopPOSClient) EnsurePlatformCustomer(context.Context, uuid.UUID, integration.PlatformCode) (string, error) {
	return "customer", nil
}

func (noopPOSClient) ListPaymentTypes(context.Context, uuid.UUID) ([]integration.PaymentType, error) {
	return nil, nil
}

func (noopPOSClient) CreateReceipt(context.Context, uuid.UUID, *integration.Receipt) (string, error) {
	return "R-1", nil
}

func (noopPOSClient) ListItems(context.Context, uuid.UUID) ([]integration.POSItem, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

func newMappingTestServer(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemMappingRepo()
	svc := integrationapp.NewMappingService(repo, cache.NewInMemoryMappingCache(nil), noopPOSClient{}, 15*time.Minute, nil)

	engine := gin.New()
	router.NewRouter(engine).
		Register(NewMappingHandler(svc)).
		Setup()

	return engine, uuid.New()
}

func doJSON(t *testing.T, engine *gin.Engine, tenantID uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeader, tenantID.String())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMappingHandlerLifecycle(t *testing.T) {
	engine, tenantID := newMappingTestServer(t)

	createBody := `{
		"platform_code": "CAREEM",
		"platform_product_id": "P1",
		"platform_sku": "SKU-1",
		"platform_name": "Shawarma",
		"pos_item_id": "pos-1"
	}`

	w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/integration/mappings", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID           string `json:"id"`
			PlatformName string `json:"platform_name"`
			IsActive     bool   `json:"is_active"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.True(t, created.Data.IsActive)
	assert.Equal(t, "Shawarma", created.Data.PlatformName)

	t.Run("duplicate active mapping conflicts", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/integration/mappings", createBody)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_ALREADY_EXISTS")
	})

	t.Run("list includes pagination meta", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodGet, "/api/v1/integration/mappings?page=1&page_size=10", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
		assert.Contains(t, w.Body.String(), `"page_size":10`)
	})

	t.Run("get by ID", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodGet, "/api/v1/integration/mappings/"+created.Data.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "SKU-1")
	})

	t.Run("deactivate via toggle", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodPost,
			"/api/v1/integration/mappings/"+created.Data.ID+"/active", `{"is_active": false}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":false`)
	})

	t.Run("unknown mapping is 404", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodGet, "/api/v1/integration/mappings/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
	})

	t.Run("foreign tenant cannot see the mapping", func(t *testing.T) {
		w := doJSON(t, engine, uuid.New(), http.MethodGet, "/api/v1/integration/mappings/"+created.Data.ID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing tenant header is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integration/mappings", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMappingHandlerValidation(t *testing.T) {
	engine, tenantID := newMappingTestServer(t)

	t.Run("rejects an unknown platform code", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/integration/mappings",
			`{"platform_code": "UBER", "platform_product_id": "P1", "platform_name": "X", "pos_item_id": "pos-1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a missing required field", func(t *testing.T) {
		w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/integration/mappings",
			`{"platform_code": "CAREEM", "platform_product_id": "P1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMappingHandlerExportCSV(t *testing.T) {
	engine, tenantID := newMappingTestServer(t)

	w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/integration/mappings", `{
		"platform_code": "TALABAT",
		"platform_product_id": "T9",
		"platform_name": "Water",
		"pos_item_id": "pos-9"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, engine, tenantID, http.MethodGet, "/api/v1/integration/mappings/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "platform_product_id")
	assert.Contains(t, lines[1], "T9")
}

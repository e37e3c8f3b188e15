package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
	"github.com/possync/backend/internal/domain/menu"
)

// ---------------------------------------------------------------------------
// Product mapping repository stub
// ---------------------------------------------------------------------------

type stubMappingRepo struct {
	mu       sync.Mutex
	mappings map[uuid.UUID]*integration.ProductMapping
	findErr  error
	saves    int
}

func newStubMappingRepo() *stubMappingRepo {
	return &stubMappingRepo{mappings: make(map[uuid.UUID]*integration.ProductMapping)}
}

func (r *stubMappingRepo) add(m *integration.ProductMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *m
	r.mappings[m.ID] = &copied
}

func (r *stubMappingRepo) FindByID(ctx context.Context, id uuid.UUID) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappings[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, integration.ErrMappingNotFound
}

func (r *stubMappingRepo) FindActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == platformCode &&
			m.PlatformProductID == platformProductID && m.IsActive {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *stubMappingRepo) FindActiveByPlatformSKU(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformSKU string) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == platformCode &&
			m.PlatformSKU == platformSKU && m.IsActive {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *stubMappingRepo) FindByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (*integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == platformCode &&
			m.PlatformProductID == platformProductID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, integration.ErrMappingNotFound
}

func (r *stubMappingRepo) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) ([]integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.ProductMapping, 0, len(r.mappings))
	for _, m := range r.mappings {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMappingRepo) FindAllActive(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode) ([]integration.ProductMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.ProductMapping, 0)
	for _, m := range r.mappings {
		if m.TenantID == tenantID && m.PlatformCode == platformCode && m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMappingRepo) Count(ctx context.Context, tenantID uuid.UUID, filter integration.ProductMappingFilter) (int64, error) {
	all, _ := r.FindAll(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *stubMappingRepo) ExistsActiveByPlatformProduct(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, platformProductID string) (bool, error) {
	_, err := r.FindActiveByPlatformProduct(ctx, tenantID, platformCode, platformProductID)
	if err == nil {
		return true, nil
	}
	if err == integration.ErrMappingNotFound {
		return false, nil
	}
	return false, err
}

func (r *stubMappingRepo) Save(ctx context.Context, mapping *integration.ProductMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *mapping
	r.mappings[mapping.ID] = &copied
	r.saves++
	return nil
}

func (r *stubMappingRepo) SaveBatch(ctx context.Context, mappings []*integration.ProductMapping) error {
	for _, m := range mappings {
		if err := r.Save(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubMappingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mappings[id]; !ok {
		return integration.ErrMappingNotFound
	}
	delete(r.mappings, id)
	return nil
}

var _ integration.ProductMappingRepository = (*stubMappingRepo)(nil)

// ---------------------------------------------------------------------------
// Counting cache stub
// ---------------------------------------------------------------------------

// countingCache wraps a map and counts operations so tests can assert the
// cache-aside flow
type countingCache struct {
	mu          sync.Mutex
	entries     map[string]*integration.MappingResult
	hits        int
	misses      int
	sets        int
	invalidated []string
	flushed     bool
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string]*integration.MappingResult)}
}

func (c *countingCache) Get(ctx context.Context, key string) (*integration.MappingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result, ok := c.entries[key]; ok {
		c.hits++
		copied := *result
		return &copied, true
	}
	c.misses++
	return nil, false
}

func (c *countingCache) Set(ctx context.Context, key string, result *integration.MappingResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *result
	c.entries[key] = &copied
	c.sets++
}

func (c *countingCache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.invalidated = append(c.invalidated, key)
	}
}

func (c *countingCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*integration.MappingResult)
	c.flushed = true
}

var _ integration.MappingCache = (*countingCache)(nil)

// ---------------------------------------------------------------------------
// POS client stub
// ---------------------------------------------------------------------------

type stubPOSClient struct {
	customerID   string
	customerErr  error
	paymentTypes []integration.PaymentType
	paymentErr   error
	receiptNum   string
	receiptErr   error
	items        []integration.POSItem
	itemsErr     error

	receipts []*integration.Receipt
}

func (c *stubPOSClient) EnsurePlatformCustomer(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode) (string, error) {
	if c.customerErr != nil {
		return "", c.customerErr
	}
	return c.customerID, nil
}

func (c *stubPOSClient) ListPaymentTypes(ctx context.Context, tenantID uuid.UUID) ([]integration.PaymentType, error) {
	if c.paymentErr != nil {
		return nil, c.paymentErr
	}
	return c.paymentTypes, nil
}

func (c *stubPOSClient) CreateReceipt(ctx context.Context, tenantID uuid.UUID, receipt *integration.Receipt) (string, error) {
	if c.receiptErr != nil {
		return "", c.receiptErr
	}
	c.receipts = append(c.receipts, receipt)
	return c.receiptNum, nil
}

func (c *stubPOSClient) ListItems(ctx context.Context, tenantID uuid.UUID) ([]integration.POSItem, error) {
	if c.itemsErr != nil {
		return nil, c.itemsErr
	}
	return c.items, nil
}

var _ integration.POSClient = (*stubPOSClient)(nil)

// ---------------------------------------------------------------------------
// Order gate stub
// ---------------------------------------------------------------------------

type stubOrderGate struct {
	allow bool
	err   error
}

func (g *stubOrderGate) AllowOrder(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	return g.allow, g.err
}

var _ integration.OrderGate = (*stubOrderGate)(nil)

// ---------------------------------------------------------------------------
// Sync log repository stub
// ---------------------------------------------------------------------------

type stubSyncLogRepo struct {
	mu      sync.Mutex
	entries []*integration.SyncLog
}

func (r *stubSyncLogRepo) Append(ctx context.Context, entry *integration.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubSyncLogRepo) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, integration.ErrSyncLogNotFound
}

func (r *stubSyncLogRepo) FindAll(ctx context.Context, tenantID uuid.UUID, filter integration.SyncLogFilter) ([]integration.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.SyncLog, 0, len(r.entries))
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubSyncLogRepo) FindBySubject(ctx context.Context, tenantID uuid.UUID, subjectType integration.SyncSubjectType, subjectID string) ([]integration.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.SyncLog, 0)
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.SubjectType == subjectType && e.SubjectID == subjectID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubSyncLogRepo) FindRetryable(ctx context.Context, tenantID uuid.UUID) ([]integration.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.SyncLog, 0)
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.IsRetryable() {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubSyncLogRepo) Count(ctx context.Context, tenantID uuid.UUID, filter integration.SyncLogFilter) (int64, error) {
	all, _ := r.FindAll(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *stubSyncLogRepo) last() *integration.SyncLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

var _ integration.SyncLogRepository = (*stubSyncLogRepo)(nil)

// ---------------------------------------------------------------------------
// Platform registry / adapter stubs
// ---------------------------------------------------------------------------

type stubPlatformAdapter struct {
	code      integration.PlatformCode
	submitted []integration.CatalogDocument
	submitRes *integration.CatalogSubmitResult
	submitErr error

	statusCalls []bool
	statusErr   error
	hoursCalls  [][]integration.DayHours
	hoursErr    error
	connected   bool
}

func (a *stubPlatformAdapter) PlatformCode() integration.PlatformCode { return a.code }

func (a *stubPlatformAdapter) SubmitCatalog(ctx context.Context, tenantID uuid.UUID, doc integration.CatalogDocument) (*integration.CatalogSubmitResult, error) {
	a.submitted = append(a.submitted, doc)
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	return a.submitRes, nil
}

func (a *stubPlatformAdapter) UpdateStoreStatus(ctx context.Context, tenantID uuid.UUID, storeID string, open bool) error {
	a.statusCalls = append(a.statusCalls, open)
	return a.statusErr
}

func (a *stubPlatformAdapter) UpdateStoreHours(ctx context.Context, tenantID uuid.UUID, storeID string, hours []integration.DayHours) error {
	a.hoursCalls = append(a.hoursCalls, hours)
	return a.hoursErr
}

func (a *stubPlatformAdapter) UpdateVendorStatus(ctx context.Context, tenantID uuid.UUID, vendorID string, available bool) error {
	a.statusCalls = append(a.statusCalls, available)
	return a.statusErr
}

func (a *stubPlatformAdapter) TestConnection(ctx context.Context, tenantID uuid.UUID) bool {
	return a.connected
}

var _ integration.DeliveryPlatform = (*stubPlatformAdapter)(nil)

type stubRegistry struct {
	adapters map[integration.PlatformCode]integration.DeliveryPlatform
}

func newStubRegistry(adapters ...integration.DeliveryPlatform) *stubRegistry {
	r := &stubRegistry{adapters: make(map[integration.PlatformCode]integration.DeliveryPlatform)}
	for _, a := range adapters {
		r.adapters[a.PlatformCode()] = a
	}
	return r
}

func (r *stubRegistry) GetPlatform(code integration.PlatformCode) (integration.DeliveryPlatform, error) {
	if a, ok := r.adapters[code]; ok {
		return a, nil
	}
	return nil, integration.ErrPlatformNotRegistered
}

func (r *stubRegistry) ListPlatforms() []integration.DeliveryPlatform {
	out := make([]integration.DeliveryPlatform, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}

var _ integration.PlatformRegistry = (*stubRegistry)(nil)

// ---------------------------------------------------------------------------
// Menu / location repository stubs
// ---------------------------------------------------------------------------

type stubMenuRepo struct {
	mu    sync.Mutex
	menus map[uuid.UUID]*menu.Menu
}

func newStubMenuRepo() *stubMenuRepo {
	return &stubMenuRepo{menus: make(map[uuid.UUID]*menu.Menu)}
}

func (r *stubMenuRepo) FindByID(ctx context.Context, id uuid.UUID) (*menu.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.menus[id]; ok {
		return m, nil
	}
	return nil, menu.ErrMenuNotFound
}

func (r *stubMenuRepo) FindAll(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) ([]menu.Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]menu.Menu, 0, len(r.menus))
	for _, m := range r.menus {
		if m.TenantID == tenantID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMenuRepo) Count(ctx context.Context, tenantID uuid.UUID, filter menu.MenuFilter) (int64, error) {
	all, _ := r.FindAll(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *stubMenuRepo) Save(ctx context.Context, m *menu.Menu) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus[m.ID] = m
	return nil
}

func (r *stubMenuRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.menus, id)
	return nil
}

var _ menu.MenuRepository = (*stubMenuRepo)(nil)

type stubLocationRepo struct {
	mu        sync.Mutex
	locations map[uuid.UUID]*location.Location
}

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{locations: make(map[uuid.UUID]*location.Location)}
}

func (r *stubLocationRepo) FindByID(ctx context.Context, id uuid.UUID) (*location.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locations[id]; ok {
		return l, nil
	}
	return nil, location.ErrLocationNotFound
}

func (r *stubLocationRepo) FindAll(ctx context.Context, tenantID uuid.UUID) ([]location.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]location.Location, 0, len(r.locations))
	for _, l := range r.locations {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLocationRepo) Save(ctx context.Context, l *location.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[l.ID] = l
	return nil
}

func (r *stubLocationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locations, id)
	return nil
}

var _ location.LocationRepository = (*stubLocationRepo)(nil)

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/domain/mapping"
	syncdomain "github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// fakeSource serves canned entries per resource and records how it was
// queried.
type fakeSource struct {
	entries    map[string][]json.RawMessage
	deltaCalls int
	fullCalls  int
	lastSince  time.Time
	failFetch  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{entries: make(map[string][]json.RawMessage)}
}

func (s *fakeSource) add(resource string, v any) {
	raw, _ := json.Marshal(v)
	s.entries[resource] = append(s.entries[resource], raw)
}

func (s *fakeSource) FetchAll(_ context.Context, resource string, _ sourceapi.Filters) ([]json.RawMessage, error) {
	if s.failFetch {
		return nil, fmt.Errorf("source unavailable")
	}
	s.fullCalls++
	return s.entries[resource], nil
}

func (s *fakeSource) FetchDelta(_ context.Context, resource string, since time.Time, _ []string) ([]json.RawMessage, error) {
	if s.failFetch {
		return nil, fmt.Errorf("source unavailable")
	}
	s.deltaCalls++
	s.lastSince = since
	return s.entries[resource], nil
}

var _ SourceClient = (*fakeSource)(nil)

// fakeDest is an in-memory destination platform keyed by SKU.
type fakeDest struct {
	mu       sync.Mutex
	nextID   int
	products map[string]string
	creates  int
	updates  int
	stockUps int
	auxil    int
}

func newFakeDest() *fakeDest {
	return &fakeDest{products: make(map[string]string)}
}

func (d *fakeDest) newID() string {
	d.nextID++
	return fmt.Sprintf("dest-%d", d.nextID)
}

func (d *fakeDest) ProductIDBySKU(_ context.Context, sku string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.products[sku], nil
}

func (d *fakeDest) CreateProduct(_ context.Context, p *destination.Product) (destination.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.newID()
	d.products[p.SKU] = id
	d.creates++
	return destination.OperationResult{ID: id, Success: true}, nil
}

func (d *fakeDest) UpdateProduct(_ context.Context, id string, _ *destination.Product) (destination.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates++
	return destination.OperationResult{ID: id, Success: true}, nil
}

func (d *fakeDest) UpdateStock(_ context.Context, u destination.StockUpdate) (destination.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stockUps++
	return destination.OperationResult{ID: u.SKU, Success: true}, nil
}

func (d *fakeDest) UpdateStockBatch(ctx context.Context, updates []destination.StockUpdate) ([]destination.OperationResult, error) {
	out := make([]destination.OperationResult, 0, len(updates))
	for _, u := range updates {
		r, _ := d.UpdateStock(ctx, u)
		out = append(out, r)
	}
	return out, nil
}

func (d *fakeDest) aux() (destination.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.auxil++
	return destination.OperationResult{ID: d.newID(), Success: true}, nil
}

func (d *fakeDest) CreateManufacturer(context.Context, destination.Manufacturer) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) CreateUnit(context.Context, destination.Unit) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) CreateCategory(context.Context, destination.Category) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) CreatePropertyGroup(context.Context, destination.PropertyGroup) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) CreatePropertyOption(context.Context, destination.PropertyOption) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) CreateMediaFromURL(context.Context, string, string) (destination.OperationResult, error) {
	return d.aux()
}

func (d *fakeDest) GetOrCreateMediaFolder(context.Context, string) (destination.OperationResult, error) {
	return d.aux()
}

var _ destination.API = (*fakeDest)(nil)

// fakeStateRepo is an in-memory sync.StateRepository.
type fakeStateRepo struct {
	mu     sync.Mutex
	states map[string]*syncdomain.State
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]*syncdomain.State)}
}

func stateKey(tenantID uuid.UUID, syncType syncdomain.SyncType) string {
	return tenantID.String() + "/" + string(syncType)
}

func (r *fakeStateRepo) Find(_ context.Context, tenantID uuid.UUID, syncType syncdomain.SyncType) (*syncdomain.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[stateKey(tenantID, syncType)]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, syncdomain.ErrStateNotFound
}

func (r *fakeStateRepo) Save(_ context.Context, state *syncdomain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *state
	r.states[stateKey(state.TenantID, state.SyncType)] = &copied
	return nil
}

var _ syncdomain.StateRepository = (*fakeStateRepo)(nil)

// fakeLogWriter collects audit rows in memory.
type fakeLogWriter struct {
	mu      sync.Mutex
	entries []*syncdomain.LogEntry
	flushes int
}

func (w *fakeLogWriter) Append(_ context.Context, entry *syncdomain.LogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func (w *fakeLogWriter) Flush(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
	return nil
}

func (w *fakeLogWriter) actions() []syncdomain.LogAction {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]syncdomain.LogAction, 0, len(w.entries))
	for _, e := range w.entries {
		out = append(out, e.Action)
	}
	return out
}

var _ syncdomain.LogWriter = (*fakeLogWriter)(nil)

// fakeReplica is an in-memory catalog.CacheRepository.
type fakeReplica struct {
	mu            sync.Mutex
	categories    []catalog.CachedCategory
	manufacturers []catalog.CachedManufacturer
	units         []catalog.CachedUnit
	attributes    []catalog.CachedAttribute
	properties    []catalog.CachedProperty
	prices        []catalog.CachedSalesPrice
}

func (r *fakeReplica) ReplaceCategories(_ context.Context, _ uuid.UUID, rows []catalog.CachedCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = rows
	return nil
}

func (r *fakeReplica) FindCategories(_ context.Context, _ uuid.UUID, sourceIDs []string) ([]catalog.CachedCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.CachedCategory
	for _, c := range r.categories {
		for _, id := range sourceIDs {
			if c.SourceID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (r *fakeReplica) AllCategories(context.Context, uuid.UUID) ([]catalog.CachedCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.categories, nil
}

func (r *fakeReplica) ReplaceManufacturers(_ context.Context, _ uuid.UUID, rows []catalog.CachedManufacturer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manufacturers = rows
	return nil
}

func (r *fakeReplica) FindManufacturers(context.Context, uuid.UUID, []string) ([]catalog.CachedManufacturer, error) {
	return nil, nil
}

func (r *fakeReplica) AllManufacturers(context.Context, uuid.UUID) ([]catalog.CachedManufacturer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.manufacturers, nil
}

func (r *fakeReplica) ReplaceUnits(_ context.Context, _ uuid.UUID, rows []catalog.CachedUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = rows
	return nil
}

func (r *fakeReplica) FindUnits(context.Context, uuid.UUID, []string) ([]catalog.CachedUnit, error) {
	return nil, nil
}

func (r *fakeReplica) AllUnits(context.Context, uuid.UUID) ([]catalog.CachedUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.units, nil
}

func (r *fakeReplica) ReplaceAttributes(_ context.Context, _ uuid.UUID, rows []catalog.CachedAttribute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attributes = rows
	return nil
}

func (r *fakeReplica) FindAttributes(context.Context, uuid.UUID, []string) ([]catalog.CachedAttribute, error) {
	return nil, nil
}

func (r *fakeReplica) AllAttributes(context.Context, uuid.UUID) ([]catalog.CachedAttribute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attributes, nil
}

func (r *fakeReplica) ReplaceProperties(_ context.Context, _ uuid.UUID, rows []catalog.CachedProperty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties = rows
	return nil
}

func (r *fakeReplica) FindProperties(context.Context, uuid.UUID, []string) ([]catalog.CachedProperty, error) {
	return nil, nil
}

func (r *fakeReplica) AllProperties(context.Context, uuid.UUID) ([]catalog.CachedProperty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.properties, nil
}

func (r *fakeReplica) ReplaceSalesPrices(_ context.Context, _ uuid.UUID, rows []catalog.CachedSalesPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices = rows
	return nil
}

func (r *fakeReplica) AllSalesPrices(context.Context, uuid.UUID) ([]catalog.CachedSalesPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prices, nil
}

var _ catalog.CacheRepository = (*fakeReplica)(nil)

// fakeMappingStore is an in-memory mapping.Store.
type fakeMappingStore struct {
	mu   sync.Mutex
	rows map[string]*mapping.EntityMapping
}

func newFakeMappingStore() *fakeMappingStore {
	return &fakeMappingStore{rows: make(map[string]*mapping.EntityMapping)}
}

func mappingKey(tenantID uuid.UUID, kind mapping.EntityKind, sourceID string) string {
	return tenantID.String() + "/" + string(kind) + "/" + sourceID
}

func (s *fakeMappingStore) GetBatch(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) (mapping.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lookup := mapping.Lookup{}
	for _, id := range sourceIDs {
		if m, ok := s.rows[mappingKey(tenantID, kind, id)]; ok {
			lookup[id] = m
		}
	}
	return lookup, nil
}

func (s *fakeMappingStore) UpsertBatch(_ context.Context, records []*mapping.EntityMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range records {
		key := mappingKey(m.TenantID, m.Kind, m.SourceID)
		if existing, ok := s.rows[key]; ok && existing.IsManual() && !m.IsManual() {
			continue
		}
		s.rows[key] = m
	}
	return nil
}

func (s *fakeMappingStore) ActiveSourceIDs(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.rows {
		if m.TenantID == tenantID && m.Kind == kind && m.Status == mapping.StatusActive {
			out = append(out, m.SourceID)
		}
	}
	return out, nil
}

func (s *fakeMappingStore) MarkOrphaned(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sourceIDs {
		if m, ok := s.rows[mappingKey(tenantID, kind, id)]; ok {
			m.MarkOrphaned()
		}
	}
	return nil
}

func (s *fakeMappingStore) Reactivate(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sourceIDs {
		if m, ok := s.rows[mappingKey(tenantID, kind, id)]; ok {
			m.Reactivate()
		}
	}
	return nil
}

func (s *fakeMappingStore) row(tenantID uuid.UUID, kind mapping.EntityKind, sourceID string) *mapping.EntityMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[mappingKey(tenantID, kind, sourceID)]
}

var _ mapping.Store = (*fakeMappingStore)(nil)

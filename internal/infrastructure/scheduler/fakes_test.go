package scheduler

import (
	"context"
	"encoding/json"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/application/orchestrator"
	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// fakeJobs is an in-memory sync.JobRepository with FIFO claim semantics.
type fakeJobs struct {
	mu   gosync.Mutex
	jobs map[uuid.UUID]*sync.Job
	// order keeps enqueue order for deterministic claims.
	order []uuid.UUID
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[uuid.UUID]*sync.Job)}
}

func (r *fakeJobs) Save(_ context.Context, job *sync.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		r.order = append(r.order, job.ID)
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobs) FindByID(_ context.Context, id uuid.UUID) (*sync.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sync.ErrJobNotFound
}

func (r *fakeJobs) ClaimNextPending(_ context.Context) (*sync.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		job := r.jobs[id]
		if job.Status == sync.JobStatusPending {
			_ = job.Start()
			copied := *job
			return &copied, nil
		}
	}
	return nil, sync.ErrJobNotFound
}

func (r *fakeJobs) ResetStuck(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reset int64
	for _, job := range r.jobs {
		if job.Status == sync.JobStatusProcessing && job.StartedAt != nil && job.StartedAt.Before(cutoff) {
			job.ResetToPending()
			reset++
		}
	}
	return reset, nil
}

func (r *fakeJobs) status(id uuid.UUID) sync.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Status
}

func (r *fakeJobs) all() []*sync.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*sync.Job, 0, len(r.order))
	for _, id := range r.order {
		copied := *r.jobs[id]
		out = append(out, &copied)
	}
	return out
}

var _ sync.JobRepository = (*fakeJobs)(nil)

// fakeTenants is an in-memory tenant.Repository.
type fakeTenants struct {
	mu      gosync.Mutex
	tenants map[uuid.UUID]*tenant.Tenant
}

func newFakeTenants() *fakeTenants {
	return &fakeTenants{tenants: make(map[uuid.UUID]*tenant.Tenant)}
}

func (r *fakeTenants) FindByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tenants[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrNotFound
}

func (r *fakeTenants) Save(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
	return nil
}

var _ tenant.Repository = (*fakeTenants)(nil)

// fakeConfigs is an in-memory tenant.ConfigRepository.
type fakeConfigs struct {
	mu      gosync.Mutex
	entries map[uuid.UUID][]tenant.ConfigEntry
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{entries: make(map[uuid.UUID][]tenant.ConfigEntry)}
}

func (r *fakeConfigs) Load(_ context.Context, tenantID uuid.UUID) (*tenant.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tenant.NewConfig(tenantID, r.entries[tenantID]), nil
}

func (r *fakeConfigs) Set(_ context.Context, entry tenant.ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.TenantID] = append(r.entries[entry.TenantID], entry)
	return nil
}

var _ tenant.ConfigRepository = (*fakeConfigs)(nil)

// fakeSchedules is an in-memory sync.ScheduleRepository.
type fakeSchedules struct {
	mu        gosync.Mutex
	schedules map[uuid.UUID]*sync.Schedule
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{schedules: make(map[uuid.UUID]*sync.Schedule)}
}

func (r *fakeSchedules) FindEnabled(context.Context) ([]sync.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sync.Schedule
	for _, s := range r.schedules {
		if s.Enabled {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSchedules) Save(_ context.Context, schedule *sync.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *schedule
	r.schedules[schedule.ID] = &copied
	return nil
}

var _ sync.ScheduleRepository = (*fakeSchedules)(nil)

// fakeStates is an in-memory sync.StateRepository.
type fakeStates struct {
	mu     gosync.Mutex
	states map[string]*sync.State
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]*sync.State)}
}

func (r *fakeStates) Find(_ context.Context, tenantID uuid.UUID, syncType sync.SyncType) (*sync.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[tenantID.String()+string(syncType)]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sync.ErrStateNotFound
}

func (r *fakeStates) Save(_ context.Context, state *sync.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *state
	r.states[state.TenantID.String()+string(state.SyncType)] = &copied
	return nil
}

var _ sync.StateRepository = (*fakeStates)(nil)

// nopLogWriter discards audit rows.
type nopLogWriter struct{}

func (nopLogWriter) Append(context.Context, *sync.LogEntry) error { return nil }
func (nopLogWriter) Flush(context.Context) error                  { return nil }

// emptySource serves an empty catalog.
type emptySource struct{}

func (emptySource) FetchAll(context.Context, string, sourceapi.Filters) ([]json.RawMessage, error) {
	return nil, nil
}

func (emptySource) FetchDelta(context.Context, string, time.Time, []string) ([]json.RawMessage, error) {
	return nil, nil
}

var _ orchestrator.SourceClient = emptySource{}

// emptyReplica is a no-op catalog.CacheRepository.
type emptyReplica struct{}

func (emptyReplica) ReplaceCategories(context.Context, uuid.UUID, []catalog.CachedCategory) error {
	return nil
}

func (emptyReplica) FindCategories(context.Context, uuid.UUID, []string) ([]catalog.CachedCategory, error) {
	return nil, nil
}

func (emptyReplica) AllCategories(context.Context, uuid.UUID) ([]catalog.CachedCategory, error) {
	return nil, nil
}

func (emptyReplica) ReplaceManufacturers(context.Context, uuid.UUID, []catalog.CachedManufacturer) error {
	return nil
}

func (emptyReplica) FindManufacturers(context.Context, uuid.UUID, []string) ([]catalog.CachedManufacturer, error) {
	return nil, nil
}

func (emptyReplica) AllManufacturers(context.Context, uuid.UUID) ([]catalog.CachedManufacturer, error) {
	return nil, nil
}

func (emptyReplica) ReplaceUnits(context.Context, uuid.UUID, []catalog.CachedUnit) error { return nil }

func (emptyReplica) FindUnits(context.Context, uuid.UUID, []string) ([]catalog.CachedUnit, error) {
	return nil, nil
}

func (emptyReplica) AllUnits(context.Context, uuid.UUID) ([]catalog.CachedUnit, error) {
	return nil, nil
}

func (emptyReplica) ReplaceAttributes(context.Context, uuid.UUID, []catalog.CachedAttribute) error {
	return nil
}

func (emptyReplica) FindAttributes(context.Context, uuid.UUID, []string) ([]catalog.CachedAttribute, error) {
	return nil, nil
}

func (emptyReplica) AllAttributes(context.Context, uuid.UUID) ([]catalog.CachedAttribute, error) {
	return nil, nil
}

func (emptyReplica) ReplaceProperties(context.Context, uuid.UUID, []catalog.CachedProperty) error {
	return nil
}

func (emptyReplica) FindProperties(context.Context, uuid.UUID, []string) ([]catalog.CachedProperty, error) {
	return nil, nil
}

func (emptyReplica) AllProperties(context.Context, uuid.UUID) ([]catalog.CachedProperty, error) {
	return nil, nil
}

func (emptyReplica) ReplaceSalesPrices(context.Context, uuid.UUID, []catalog.CachedSalesPrice) error {
	return nil
}

func (emptyReplica) AllSalesPrices(context.Context, uuid.UUID) ([]catalog.CachedSalesPrice, error) {
	return nil, nil
}

var _ catalog.CacheRepository = emptyReplica{}

// nopMappingStore keeps no mappings.
type nopMappingStore struct{}

func (nopMappingStore) GetBatch(context.Context, uuid.UUID, mapping.EntityKind, []string) (mapping.Lookup, error) {
	return mapping.Lookup{}, nil
}

func (nopMappingStore) UpsertBatch(context.Context, []*mapping.EntityMapping) error { return nil }

func (nopMappingStore) ActiveSourceIDs(context.Context, uuid.UUID, mapping.EntityKind) ([]string, error) {
	return nil, nil
}

func (nopMappingStore) MarkOrphaned(context.Context, uuid.UUID, mapping.EntityKind, []string) error {
	return nil
}

func (nopMappingStore) Reactivate(context.Context, uuid.UUID, mapping.EntityKind, []string) error {
	return nil
}

var _ mapping.Store = nopMappingStore{}

// okDest accepts every destination call.
type okDest struct{}

func (okDest) ProductIDBySKU(context.Context, string) (string, error) { return "", nil }

func (okDest) CreateProduct(context.Context, *destination.Product) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "p", Success: true}, nil
}

func (okDest) UpdateProduct(context.Context, string, *destination.Product) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "p", Success: true}, nil
}

func (okDest) UpdateStock(context.Context, destination.StockUpdate) (destination.OperationResult, error) {
	return destination.OperationResult{Success: true}, nil
}

func (okDest) UpdateStockBatch(context.Context, []destination.StockUpdate) ([]destination.OperationResult, error) {
	return nil, nil
}

func (okDest) CreateManufacturer(context.Context, destination.Manufacturer) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "m", Success: true}, nil
}

func (okDest) CreateUnit(context.Context, destination.Unit) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "u", Success: true}, nil
}

func (okDest) CreateCategory(context.Context, destination.Category) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "c", Success: true}, nil
}

func (okDest) CreatePropertyGroup(context.Context, destination.PropertyGroup) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "g", Success: true}, nil
}

func (okDest) CreatePropertyOption(context.Context, destination.PropertyOption) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "o", Success: true}, nil
}

func (okDest) CreateMediaFromURL(context.Context, string, string) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "md", Success: true}, nil
}

func (okDest) GetOrCreateMediaFolder(context.Context, string) (destination.OperationResult, error) {
	return destination.OperationResult{ID: "f", Success: true}, nil
}

var _ destination.API = okDest{}

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
)

// fakeStore is an in-memory mapping.Store.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]*mapping.EntityMapping
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*mapping.EntityMapping)}
}

func storeKey(tenantID uuid.UUID, kind mapping.EntityKind, sourceID string) string {
	return tenantID.String() + "/" + string(kind) + "/" + sourceID
}

func (s *fakeStore) seed(m *mapping.EntityMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[storeKey(m.TenantID, m.Kind, m.SourceID)] = m
}

func (s *fakeStore) GetBatch(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) (mapping.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lookup := mapping.Lookup{}
	for _, id := range sourceIDs {
		if m, ok := s.rows[storeKey(tenantID, kind, id)]; ok {
			lookup[id] = m
		}
	}
	return lookup, nil
}

func (s *fakeStore) UpsertBatch(_ context.Context, records []*mapping.EntityMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	for _, m := range records {
		key := storeKey(m.TenantID, m.Kind, m.SourceID)
		if existing, ok := s.rows[key]; ok && existing.IsManual() && !m.IsManual() {
			continue
		}
		s.rows[key] = m
	}
	return nil
}

func (s *fakeStore) ActiveSourceIDs(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind) ([]string, error) {
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

func (s *fakeStore) MarkOrphaned(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sourceIDs {
		if m, ok := s.rows[storeKey(tenantID, kind, id)]; ok {
			m.MarkOrphaned()
		}
	}
	return nil
}

func (s *fakeStore) Reactivate(_ context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sourceIDs {
		if m, ok := s.rows[storeKey(tenantID, kind, id)]; ok {
			m.Reactivate()
		}
	}
	return nil
}

var _ mapping.Store = (*fakeStore)(nil)

// fakeDestination records every create call and hands out sequential IDs.
// Names listed in failOn are rejected.
type fakeDestination struct {
	mu      sync.Mutex
	nextID  int
	creates []string
	failOn  map[string]bool

	folderCalls int
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{failOn: make(map[string]bool)}
}

func (d *fakeDestination) created(kind string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, c := range d.creates {
		if len(c) > len(kind) && c[:len(kind)+1] == kind+":" {
			out = append(out, c[len(kind)+1:])
		}
	}
	return out
}

func (d *fakeDestination) create(kind, name string) (destination.OperationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOn[name] {
		return destination.OperationResult{Success: false, Error: "rejected"}, nil
	}
	d.nextID++
	d.creates = append(d.creates, kind+":"+name)
	return destination.OperationResult{ID: fmt.Sprintf("dest-%d", d.nextID), Success: true}, nil
}

func (d *fakeDestination) ProductIDBySKU(context.Context, string) (string, error) {
	return "", nil
}

func (d *fakeDestination) CreateProduct(_ context.Context, p *destination.Product) (destination.OperationResult, error) {
	return d.create("product", p.SKU)
}

func (d *fakeDestination) UpdateProduct(_ context.Context, id string, _ *destination.Product) (destination.OperationResult, error) {
	return destination.OperationResult{ID: id, Success: true}, nil
}

func (d *fakeDestination) UpdateStock(_ context.Context, u destination.StockUpdate) (destination.OperationResult, error) {
	return destination.OperationResult{ID: u.SKU, Success: true}, nil
}

func (d *fakeDestination) UpdateStockBatch(ctx context.Context, updates []destination.StockUpdate) ([]destination.OperationResult, error) {
	out := make([]destination.OperationResult, 0, len(updates))
	for _, u := range updates {
		r, _ := d.UpdateStock(ctx, u)
		out = append(out, r)
	}
	return out, nil
}

func (d *fakeDestination) CreateManufacturer(_ context.Context, m destination.Manufacturer) (destination.OperationResult, error) {
	return d.create("manufacturer", m.Name)
}

func (d *fakeDestination) CreateUnit(_ context.Context, u destination.Unit) (destination.OperationResult, error) {
	return d.create("unit", u.Name)
}

func (d *fakeDestination) CreateCategory(_ context.Context, c destination.Category) (destination.OperationResult, error) {
	return d.create("category", c.Name+"@"+c.ParentID)
}

func (d *fakeDestination) CreatePropertyGroup(_ context.Context, g destination.PropertyGroup) (destination.OperationResult, error) {
	return d.create("group", g.Name)
}

func (d *fakeDestination) CreatePropertyOption(_ context.Context, o destination.PropertyOption) (destination.OperationResult, error) {
	return d.create("option", o.Name+"@"+o.GroupID)
}

func (d *fakeDestination) CreateMediaFromURL(_ context.Context, url, folderID string) (destination.OperationResult, error) {
	return d.create("media", url+"@"+folderID)
}

func (d *fakeDestination) GetOrCreateMediaFolder(_ context.Context, name string) (destination.OperationResult, error) {
	d.mu.Lock()
	d.folderCalls++
	d.mu.Unlock()
	if d.failOn[name] {
		return destination.OperationResult{}, errors.New("folder unavailable")
	}
	return d.create("folder", name)
}

var _ destination.API = (*fakeDestination)(nil)

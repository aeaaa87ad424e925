package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/application/transform"
	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// Set bundles the per-kind resolvers for one sync run. It also accumulates
// which source entities the run has seen, so a full fetch can reconcile
// mapping status once all pages are processed.
type Set struct {
	Manufacturers *ManufacturerResolver
	Units         *UnitResolver
	Categories    *CategoryResolver
	Attributes    *AttributeResolver
	Properties    *PropertyResolver
	Media         *MediaResolver

	store mapping.Store
	seen  map[mapping.EntityKind]map[string]struct{}
}

// Config carries the tenant settings resolvers depend on.
type Config struct {
	LanguagePreference []string
	RootCategoryID     string
	MediaFolderName    string
}

// NewSet wires all six resolvers against one store and destination. The
// media folder cache is created here and lives for the run.
func NewSet(store mapping.Store, dest destination.API, cfg Config, logger *zap.Logger) *Set {
	folders := cache.NewMediaFolderCache()
	seen := make(map[mapping.EntityKind]map[string]struct{}, len(reconciledKinds))
	for _, kind := range reconciledKinds {
		seen[kind] = make(map[string]struct{})
	}
	return &Set{
		Manufacturers: NewManufacturerResolver(store, dest, logger),
		Units:         NewUnitResolver(store, dest, cfg.LanguagePreference, logger),
		Categories:    NewCategoryResolver(store, dest, cfg.LanguagePreference, cfg.RootCategoryID, logger),
		Attributes:    NewAttributeResolver(store, dest, cfg.LanguagePreference, logger),
		Properties:    NewPropertyResolver(store, dest, cfg.LanguagePreference, logger),
		Media:         NewMediaResolver(store, dest, cfg.MediaFolderName, folders, logger),
		store:         store,
		seen:          seen,
	}
}

// Batch is the resolved auxiliary-entity state for one page of variations.
type Batch struct {
	manufacturers mapping.Lookup
	units         mapping.Lookup
	categories    mapping.Lookup
	values        mapping.Lookup
	selections    mapping.Lookup
	media         mapping.Lookup
}

// ResolveBatch runs every resolver over one page of variations. Resolver
// failures at the store level propagate; individual entity failures are
// already absorbed inside each resolver.
func (s *Set) ResolveBatch(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, variations []sourceapi.Variation) (*Batch, error) {
	var (
		manufacturerIDs []int64
		unitIDs         []int64
		categoryIDs     []int64
		valueLinks      []sourceapi.AttributeValueLink
		propertyLinks   []sourceapi.PropertyLink
		images          []sourceapi.ImageLink
	)
	for _, v := range variations {
		if v.Item != nil {
			manufacturerIDs = append(manufacturerIDs, v.Item.ManufacturerID)
			s.see(mapping.KindManufacturer, v.Item.ManufacturerID)
		}
		unitIDs = append(unitIDs, v.UnitID)
		s.see(mapping.KindUnit, v.UnitID)
		for _, c := range v.Categories {
			categoryIDs = append(categoryIDs, c.CategoryID)
			s.see(mapping.KindCategory, c.CategoryID)
		}
		for _, link := range v.AttributeValues {
			s.see(mapping.KindAttribute, link.AttributeID)
			s.see(mapping.KindAttributeValue, link.ValueID)
		}
		for _, link := range v.Properties {
			s.see(mapping.KindProperty, link.PropertyID)
			s.see(mapping.KindPropertySelection, link.SelectionID)
		}
		for _, img := range v.Images {
			if img.URL != "" {
				s.seen[mapping.KindMedia][MediaSourceID(img.URL)] = struct{}{}
			}
		}
		valueLinks = append(valueLinks, v.AttributeValues...)
		propertyLinks = append(propertyLinks, v.Properties...)
		images = append(images, v.Images...)
	}

	batch := &Batch{}
	var err error

	if batch.manufacturers, err = s.Manufacturers.Resolve(ctx, tenantID, snap, manufacturerIDs); err != nil {
		return nil, err
	}
	if batch.units, err = s.Units.Resolve(ctx, tenantID, snap, unitIDs); err != nil {
		return nil, err
	}
	if batch.categories, err = s.Categories.Resolve(ctx, tenantID, snap, categoryIDs); err != nil {
		return nil, err
	}
	if batch.values, err = s.Attributes.Resolve(ctx, tenantID, snap, valueLinks); err != nil {
		return nil, err
	}
	if batch.selections, err = s.Properties.Resolve(ctx, tenantID, snap, propertyLinks); err != nil {
		return nil, err
	}
	if batch.media, err = s.Media.Resolve(ctx, tenantID, images); err != nil {
		return nil, err
	}
	return batch, nil
}

// see records that the latest fetch referenced the given source entity.
func (s *Set) see(kind mapping.EntityKind, id int64) {
	if id == 0 {
		return
	}
	s.seen[kind][sourceID(id)] = struct{}{}
}

// reconciledKinds is every kind the resolvers manage mappings for, in the
// order ReconcileOrphans walks them.
var reconciledKinds = []mapping.EntityKind{
	mapping.KindManufacturer,
	mapping.KindUnit,
	mapping.KindCategory,
	mapping.KindAttribute,
	mapping.KindAttributeValue,
	mapping.KindProperty,
	mapping.KindPropertySelection,
	mapping.KindMedia,
}

// ReconcileOrphans applies the status transitions a completed full fetch
// implies: ACTIVE mappings for entities the run never saw become ORPHANED,
// non-ACTIVE mappings for entities that reappeared become ACTIVE again, and
// every seen row gets its last-seen timestamp advanced. Only valid after the
// run has resolved its final batch.
func (s *Set) ReconcileOrphans(ctx context.Context, tenantID uuid.UUID) error {
	now := time.Now()
	for _, kind := range reconciledKinds {
		seen := s.seen[kind]

		active, err := s.store.ActiveSourceIDs(ctx, tenantID, kind)
		if err != nil {
			return fmt.Errorf("resolver: list active %s mappings: %w", kind, err)
		}
		toOrphan, toReactivate := mapping.ReconcileOrphans(active, seen)
		if err := s.store.MarkOrphaned(ctx, tenantID, kind, toOrphan); err != nil {
			return fmt.Errorf("resolver: orphan %s mappings: %w", kind, err)
		}
		if err := s.store.Reactivate(ctx, tenantID, kind, toReactivate); err != nil {
			return fmt.Errorf("resolver: reactivate %s mappings: %w", kind, err)
		}
		if err := s.touchSeen(ctx, tenantID, kind, seen, now); err != nil {
			return err
		}
	}
	return nil
}

// touchSeen advances last_seen_at on every mapped row the run observed. Rows
// are read back after the status pass so the rewrite carries their current
// status.
func (s *Set) touchSeen(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind, seen map[string]struct{}, at time.Time) error {
	if len(seen) == 0 {
		return nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	lookup, err := s.store.GetBatch(ctx, tenantID, kind, ids)
	if err != nil {
		return fmt.Errorf("resolver: load seen %s mappings: %w", kind, err)
	}
	if len(lookup) == 0 {
		return nil
	}
	rows := make([]*mapping.EntityMapping, 0, len(lookup))
	for _, m := range lookup {
		m.TouchSeen(at)
		rows = append(rows, m)
	}
	if err := s.store.UpsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("resolver: touch seen %s mappings: %w", kind, err)
	}
	return nil
}

// RefsFor assembles the destination references for one variation from the
// batch's lookups. Unresolved references stay unset; the product still syncs
// with that field empty.
func (b *Batch) RefsFor(v sourceapi.Variation) transform.ResolvedRefs {
	var refs transform.ResolvedRefs

	if v.Item != nil && v.Item.ManufacturerID != 0 {
		refs.ManufacturerID, _ = b.manufacturers.DestinationID(sourceID(v.Item.ManufacturerID))
	}
	if v.UnitID != 0 {
		refs.UnitID, _ = b.units.DestinationID(sourceID(v.UnitID))
	}

	for _, c := range v.Categories {
		if id, ok := b.categories.DestinationID(sourceID(c.CategoryID)); ok {
			refs.CategoryIDs = append(refs.CategoryIDs, id)
		}
	}
	for _, link := range v.AttributeValues {
		if id, ok := b.values.DestinationID(sourceID(link.ValueID)); ok {
			refs.PropertyOptionIDs = append(refs.PropertyOptionIDs, id)
		}
	}
	for _, link := range v.Properties {
		if link.SelectionID == 0 {
			continue
		}
		if id, ok := b.selections.DestinationID(sourceID(link.SelectionID)); ok {
			refs.PropertyOptionIDs = append(refs.PropertyOptionIDs, id)
		}
	}
	for _, img := range v.Images {
		if img.URL == "" {
			continue
		}
		if id, ok := b.media.DestinationID(MediaSourceID(img.URL)); ok {
			refs.MediaIDs = append(refs.MediaIDs, id)
		}
	}
	return refs
}

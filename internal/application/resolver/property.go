package resolver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// PropertyResolver provisions destination property groups and options for
// source property groups and their selections. Free-text property links
// carry no selection and are ignored here; they flow through field-mapping
// rules instead.
type PropertyResolver struct {
	deps
	langs []string
}

// NewPropertyResolver constructs a PropertyResolver.
func NewPropertyResolver(store mapping.Store, dest destination.API, langs []string, logger *zap.Logger) *PropertyResolver {
	return &PropertyResolver{deps: newDeps(store, dest, logger), langs: langs}
}

// Resolve maps the property selections referenced by a batch of variations.
// The returned lookup is keyed by selection source ID.
func (r *PropertyResolver) Resolve(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, links []sourceapi.PropertyLink) (mapping.Lookup, error) {
	groupIDs := make([]int64, 0, len(links))
	selectionIDs := make([]int64, 0, len(links))
	parentOf := make(map[string]string, len(links))
	for _, link := range links {
		if link.SelectionID == 0 {
			continue
		}
		groupIDs = append(groupIDs, link.PropertyID)
		selectionIDs = append(selectionIDs, link.SelectionID)
		parentOf[sourceID(link.SelectionID)] = sourceID(link.PropertyID)
	}

	groups, err := r.resolveGroups(ctx, tenantID, snap, dedupe(groupIDs))
	if err != nil {
		return nil, err
	}
	return r.resolveSelections(ctx, tenantID, snap, dedupe(selectionIDs), parentOf, groups)
}

func (r *PropertyResolver) resolveGroups(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, wanted []string) (mapping.Lookup, error) {
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindProperty, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		replica, ok := snap.Properties[id]
		if !ok {
			r.logSkip(mapping.KindProperty, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreatePropertyGroup(ctx, destination.PropertyGroup{
			Name: resolveName(replica.Names, r.langs, id),
		})
		m, err := r.createAuto(tenantID, mapping.KindProperty, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindProperty, id, err)
			continue
		}
		created = append(created, m)
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

func (r *PropertyResolver) resolveSelections(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, wanted []string, parentOf map[string]string, groups mapping.Lookup) (mapping.Lookup, error) {
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindPropertySelection, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		parentSourceID := parentOf[id]
		groupDestID, ok := groups.DestinationID(parentSourceID)
		if !ok {
			r.logSkip(mapping.KindPropertySelection, id, ErrParentUnresolved)
			continue
		}

		group, ok := snap.Properties[parentSourceID]
		if !ok {
			r.logSkip(mapping.KindPropertySelection, id, ErrNotInReplica)
			continue
		}
		selection, ok := group.Selection(id)
		if !ok {
			r.logSkip(mapping.KindPropertySelection, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreatePropertyOption(ctx, destination.PropertyOption{
			GroupID: groupDestID,
			Name:    resolveName(selection.Names, r.langs, id),
		})
		m, err := r.createAuto(tenantID, mapping.KindPropertySelection, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindPropertySelection, id, err)
			continue
		}
		created = append(created, m.WithParent(parentSourceID))
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

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

// AttributeResolver provisions destination property groups for source
// attribute groups and options for their values. Values are the child tier:
// creating one requires the parent group's destination ID, so unresolved
// groups cause their values to be skipped, not the whole batch.
type AttributeResolver struct {
	deps
	langs []string
}

// NewAttributeResolver constructs an AttributeResolver.
func NewAttributeResolver(store mapping.Store, dest destination.API, langs []string, logger *zap.Logger) *AttributeResolver {
	return &AttributeResolver{deps: newDeps(store, dest, logger), langs: langs}
}

// Resolve maps the attribute values referenced by a batch of variations.
// The returned lookup is keyed by value source ID; group mappings are
// persisted but not returned, products only reference the value tier.
func (r *AttributeResolver) Resolve(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, links []sourceapi.AttributeValueLink) (mapping.Lookup, error) {
	groupIDs := make([]int64, 0, len(links))
	valueIDs := make([]int64, 0, len(links))
	parentOf := make(map[string]string, len(links))
	for _, link := range links {
		groupIDs = append(groupIDs, link.AttributeID)
		valueIDs = append(valueIDs, link.ValueID)
		parentOf[sourceID(link.ValueID)] = sourceID(link.AttributeID)
	}

	groups, err := r.resolveGroups(ctx, tenantID, snap, dedupe(groupIDs))
	if err != nil {
		return nil, err
	}
	return r.resolveValues(ctx, tenantID, snap, dedupe(valueIDs), parentOf, groups)
}

func (r *AttributeResolver) resolveGroups(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, wanted []string) (mapping.Lookup, error) {
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindAttribute, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		replica, ok := snap.Attributes[id]
		if !ok {
			r.logSkip(mapping.KindAttribute, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreatePropertyGroup(ctx, destination.PropertyGroup{
			Name: resolveName(replica.Names, r.langs, id),
		})
		m, err := r.createAuto(tenantID, mapping.KindAttribute, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindAttribute, id, err)
			continue
		}
		created = append(created, m)
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

func (r *AttributeResolver) resolveValues(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, wanted []string, parentOf map[string]string, groups mapping.Lookup) (mapping.Lookup, error) {
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindAttributeValue, wanted)
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
			r.logSkip(mapping.KindAttributeValue, id, ErrParentUnresolved)
			continue
		}

		group, ok := snap.Attributes[parentSourceID]
		if !ok {
			r.logSkip(mapping.KindAttributeValue, id, ErrNotInReplica)
			continue
		}
		value, ok := group.Value(id)
		if !ok {
			r.logSkip(mapping.KindAttributeValue, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreatePropertyOption(ctx, destination.PropertyOption{
			GroupID: groupDestID,
			Name:    resolveName(value.Names, r.langs, id),
		})
		m, err := r.createAuto(tenantID, mapping.KindAttributeValue, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindAttributeValue, id, err)
			continue
		}
		created = append(created, m.WithParent(parentSourceID))
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

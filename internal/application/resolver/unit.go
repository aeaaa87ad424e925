package resolver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
)

// UnitResolver provisions destination measurement units.
type UnitResolver struct {
	deps
	langs []string
}

// NewUnitResolver constructs a UnitResolver with the tenant's language
// preference for unit names.
func NewUnitResolver(store mapping.Store, dest destination.API, langs []string, logger *zap.Logger) *UnitResolver {
	return &UnitResolver{deps: newDeps(store, dest, logger), langs: langs}
}

// Resolve maps the given source unit IDs, creating missing destination units
// from the catalog replica.
func (r *UnitResolver) Resolve(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, ids []int64) (mapping.Lookup, error) {
	wanted := dedupe(ids)
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindUnit, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		replica, ok := snap.Units[id]
		if !ok {
			r.logSkip(mapping.KindUnit, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreateUnit(ctx, destination.Unit{
			ShortCode: replica.UnitCode,
			Name:      resolveName(replica.Names, r.langs, replica.UnitCode),
		})
		m, err := r.createAuto(tenantID, mapping.KindUnit, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindUnit, id, err)
			continue
		}
		created = append(created, m)
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

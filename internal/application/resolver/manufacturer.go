package resolver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
)

// ManufacturerResolver provisions destination manufacturers for referenced
// source manufacturer IDs.
type ManufacturerResolver struct {
	deps
}

// NewManufacturerResolver constructs a ManufacturerResolver.
func NewManufacturerResolver(store mapping.Store, dest destination.API, logger *zap.Logger) *ManufacturerResolver {
	return &ManufacturerResolver{deps: newDeps(store, dest, logger)}
}

// Resolve maps the given source manufacturer IDs, creating missing
// destination manufacturers from the catalog replica. IDs without a replica
// record or whose creation fails are logged and left unmapped.
func (r *ManufacturerResolver) Resolve(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, ids []int64) (mapping.Lookup, error) {
	wanted := dedupe(ids)
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindManufacturer, wanted)
	if err != nil {
		return nil, err
	}

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		replica, ok := snap.Manufacturers[id]
		if !ok {
			r.logSkip(mapping.KindManufacturer, id, ErrNotInReplica)
			continue
		}

		result, err := r.dest.CreateManufacturer(ctx, destination.Manufacturer{
			Name:    replica.Name,
			LogoURL: replica.LogoURL,
		})
		m, err := r.createAuto(tenantID, mapping.KindManufacturer, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindManufacturer, id, err)
			continue
		}
		created = append(created, m)
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

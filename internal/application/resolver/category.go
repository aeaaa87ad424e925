package resolver

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
)

// CategoryResolver provisions destination categories. Referenced categories
// pull in their ancestor chain from the replica so a parent always exists
// at the destination before its children are created.
type CategoryResolver struct {
	deps
	langs []string
	// rootID is the destination category every top-level source category is
	// parented under, when the tenant configures one.
	rootID string
}

// NewCategoryResolver constructs a CategoryResolver.
func NewCategoryResolver(store mapping.Store, dest destination.API, langs []string, rootID string, logger *zap.Logger) *CategoryResolver {
	return &CategoryResolver{deps: newDeps(store, dest, logger), langs: langs, rootID: rootID}
}

// Resolve maps the given source category IDs together with their ancestors,
// creating missing destination categories level by level.
func (r *CategoryResolver) Resolve(ctx context.Context, tenantID uuid.UUID, snap *cache.Snapshot, ids []int64) (mapping.Lookup, error) {
	wanted := r.withAncestors(snap, dedupe(ids))
	if len(wanted) == 0 {
		return mapping.Lookup{}, nil
	}

	lookup, err := r.store.GetBatch(ctx, tenantID, mapping.KindCategory, wanted)
	if err != nil {
		return nil, err
	}

	// Shallower levels first so a child can reference its parent's fresh
	// destination ID within the same pass.
	sort.SliceStable(wanted, func(i, j int) bool {
		return r.level(snap, wanted[i]) < r.level(snap, wanted[j])
	})

	var created []*mapping.EntityMapping
	for _, id := range wanted {
		if _, ok := lookup[id]; ok {
			continue
		}
		replica, ok := snap.Categories[id]
		if !ok {
			r.logSkip(mapping.KindCategory, id, ErrNotInReplica)
			continue
		}

		parentID := r.rootID
		if replica.ParentSourceID != "" {
			mapped, ok := lookup.DestinationID(replica.ParentSourceID)
			if !ok {
				r.logSkip(mapping.KindCategory, id, ErrParentUnresolved)
				continue
			}
			parentID = mapped
		}

		result, err := r.dest.CreateCategory(ctx, destination.Category{
			Name:     resolveName(replica.Names, r.langs, id),
			ParentID: parentID,
		})
		m, err := r.createAuto(tenantID, mapping.KindCategory, id, result, err)
		if err != nil {
			r.logSkip(mapping.KindCategory, id, err)
			continue
		}
		if replica.ParentSourceID != "" {
			m.WithParent(replica.ParentSourceID)
		}
		created = append(created, m)
		lookup[id] = m
	}

	if err := r.persistCreated(ctx, created, lookup); err != nil {
		return nil, err
	}
	return lookup, nil
}

// withAncestors expands the wanted set with every ancestor present in the
// replica, keeping first-seen order for the originals.
func (r *CategoryResolver) withAncestors(snap *cache.Snapshot, ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	var add func(id string, depth int)
	add = func(id string, depth int) {
		if id == "" || depth > len(snap.Categories) {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if replica, ok := snap.Categories[id]; ok {
			add(replica.ParentSourceID, depth+1)
		}
	}
	for _, id := range ids {
		add(id, 0)
	}
	return out
}

func (r *CategoryResolver) level(snap *cache.Snapshot, id string) int {
	if replica, ok := snap.Categories[id]; ok {
		return replica.Level
	}
	return 0
}

// Package resolver makes sure the auxiliary entities a variation references
// (manufacturer, unit, categories, attribute values, property selections,
// media) exist at the destination before the product itself is written. Each
// kind has its own resolver sharing one algorithm: extract referenced source
// IDs, batch-load existing mappings, create what is missing from the catalog
// replica, and persist the new mappings in one batch.
package resolver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
)

// deps is the shared collaborator set every resolver works against.
type deps struct {
	store  mapping.Store
	dest   destination.API
	logger *zap.Logger
}

func newDeps(store mapping.Store, dest destination.API, logger *zap.Logger) deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return deps{store: store, dest: dest, logger: logger}
}

// sourceID renders a numeric source identifier the way mappings store it.
func sourceID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// dedupe keeps first-seen order and drops zero IDs.
func dedupe(ids []int64) []string {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, sourceID(id))
	}
	return out
}

// resolveName picks a display name from a replica name map by the tenant's
// language preference. Entities without any usable name fall back to a
// source-ID placeholder so destination creation never fails on an empty name.
func resolveName(names catalog.NameMap, preferred []string, fallbackID string) string {
	if name, ok := names.Resolve(preferred); ok {
		return name
	}
	return fallbackID
}

// persistCreated saves newly created mappings and folds them into the lookup
// so later items in the same run reuse them without re-querying.
func (d deps) persistCreated(ctx context.Context, created []*mapping.EntityMapping, lookup mapping.Lookup) error {
	if len(created) == 0 {
		return nil
	}
	if err := d.store.UpsertBatch(ctx, created); err != nil {
		return fmt.Errorf("resolver: persist mappings: %w", err)
	}
	for _, m := range created {
		lookup[m.SourceID] = m
	}
	return nil
}

// createAuto runs one destination create and wraps the result as an AUTO
// mapping. A failed operation returns an error for the caller to log and
// skip; it never aborts sibling creations.
func (d deps) createAuto(tenantID uuid.UUID, kind mapping.EntityKind, srcID string, result destination.OperationResult, err error) (*mapping.EntityMapping, error) {
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("resolver: destination rejected %s %s: %s", kind, srcID, result.Error)
	}
	return mapping.NewAutoMapping(tenantID, kind, srcID, result.ID)
}

func (d deps) logSkip(kind mapping.EntityKind, srcID string, err error) {
	d.logger.Warn("auxiliary entity skipped",
		zap.String("kind", string(kind)),
		zap.String("source_id", srcID),
		zap.Error(err))
}

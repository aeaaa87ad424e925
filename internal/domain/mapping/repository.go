package mapping

import (
	"context"

	"github.com/google/uuid"
)

// Lookup is a batched read result keyed by source ID. Absent keys mean the
// source entity is unmapped.
type Lookup map[string]*EntityMapping

// DestinationID returns the mapped destination ID for a source ID, or false.
// Orphaned rows still resolve; orphaning is a bookkeeping state, not a veto.
func (l Lookup) DestinationID(sourceID string) (string, bool) {
	m, ok := l[sourceID]
	if !ok {
		return "", false
	}
	return m.DestinationID, true
}

// Store is the entity mapping and dedup subsystem. It is the only state
// shared across concurrent jobs; all mutation goes through batched
// transactional upserts keyed by the (tenant, kind, source ID) uniqueness
// constraint.
type Store interface {
	// GetBatch reads mappings for the given source IDs in one query.
	GetBatch(ctx context.Context, tenantID uuid.UUID, kind EntityKind, sourceIDs []string) (Lookup, error)

	// UpsertBatch writes mappings in one transaction. An AUTO write never
	// replaces an existing MANUAL row; the store enforces this regardless of
	// caller discipline.
	UpsertBatch(ctx context.Context, records []*EntityMapping) error

	// ActiveSourceIDs lists source IDs of all currently ACTIVE rows.
	ActiveSourceIDs(ctx context.Context, tenantID uuid.UUID, kind EntityKind) ([]string, error)

	// MarkOrphaned sets the given rows to ORPHANED.
	MarkOrphaned(ctx context.Context, tenantID uuid.UUID, kind EntityKind, sourceIDs []string) error

	// Reactivate sets the given rows back to ACTIVE.
	Reactivate(ctx context.Context, tenantID uuid.UUID, kind EntityKind, sourceIDs []string) error
}

// ReconcileOrphans computes the status transitions implied by a full fetch:
// ACTIVE rows absent from seen go to ORPHANED, seen rows that exist but are
// not ACTIVE come back. Returns (toOrphan, toReactivate).
func ReconcileOrphans(active []string, seen map[string]struct{}) (toOrphan []string, toReactivate []string) {
	activeSet := make(map[string]struct{}, len(active))
	for _, id := range active {
		activeSet[id] = struct{}{}
		if _, ok := seen[id]; !ok {
			toOrphan = append(toOrphan, id)
		}
	}
	for id := range seen {
		if _, ok := activeSet[id]; !ok {
			toReactivate = append(toReactivate, id)
		}
	}
	return toOrphan, toReactivate
}

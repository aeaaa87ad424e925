package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// GormEntityMappingStore implements mapping.Store using GORM. The
// (tenant_id, kind, source_id) unique index plus conditional upserts make
// concurrent writers safe without application-level locking.
type GormEntityMappingStore struct {
	db *gorm.DB
}

// NewGormEntityMappingStore creates a new GormEntityMappingStore
func NewGormEntityMappingStore(db *gorm.DB) *GormEntityMappingStore {
	return &GormEntityMappingStore{db: db}
}

// GetBatch reads mappings for the given source IDs in one query.
func (r *GormEntityMappingStore) GetBatch(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) (mapping.Lookup, error) {
	lookup := mapping.Lookup{}
	if len(sourceIDs) == 0 {
		return lookup, nil
	}

	var mappingModels []models.EntityMappingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND kind = ? AND source_id IN ?", tenantID, kind, sourceIDs).
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	for i := range mappingModels {
		domain := mappingModels[i].ToDomain()
		lookup[domain.SourceID] = domain
	}
	return lookup, nil
}

// UpsertBatch writes mappings in one transaction. The conflict clause skips
// the update when the existing row is MANUAL and the incoming one is AUTO,
// so operator-pinned mappings survive automatic resolution unconditionally.
func (r *GormEntityMappingStore) UpsertBatch(ctx context.Context, records []*mapping.EntityMapping) error {
	if len(records) == 0 {
		return nil
	}

	mappingModels := make([]*models.EntityMappingModel, len(records))
	for i, record := range records {
		mappingModels[i] = models.EntityMappingModelFromDomain(record)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "kind"},
				{Name: "source_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"parent_source_id",
				"destination_id",
				"mapping_type",
				"status",
				"last_synced_at",
				"last_seen_at",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Or(
					clause.Neq{
						Column: clause.Column{Table: "entity_mappings", Name: "mapping_type"},
						Value:  string(mapping.TypeManual),
					},
					clause.Eq{
						Column: clause.Column{Table: "excluded", Name: "mapping_type"},
						Value:  string(mapping.TypeManual),
					},
				),
			}},
		}).Create(&mappingModels).Error
	})
}

// ActiveSourceIDs lists source IDs of all currently ACTIVE rows.
func (r *GormEntityMappingStore) ActiveSourceIDs(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind) ([]string, error) {
	var sourceIDs []string
	if err := r.db.WithContext(ctx).
		Model(&models.EntityMappingModel{}).
		Where("tenant_id = ? AND kind = ? AND status = ?", tenantID, kind, mapping.StatusActive).
		Order("source_id ASC").
		Pluck("source_id", &sourceIDs).Error; err != nil {
		return nil, err
	}
	return sourceIDs, nil
}

// MarkOrphaned sets the given rows to ORPHANED.
func (r *GormEntityMappingStore) MarkOrphaned(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	return r.setStatus(ctx, tenantID, kind, sourceIDs, mapping.StatusOrphaned)
}

// Reactivate sets the given rows back to ACTIVE.
func (r *GormEntityMappingStore) Reactivate(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string) error {
	return r.setStatus(ctx, tenantID, kind, sourceIDs, mapping.StatusActive)
}

func (r *GormEntityMappingStore) setStatus(ctx context.Context, tenantID uuid.UUID, kind mapping.EntityKind, sourceIDs []string, status mapping.Status) error {
	if len(sourceIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.EntityMappingModel{}).
		Where("tenant_id = ? AND kind = ? AND source_id IN ?", tenantID, kind, sourceIDs).
		Updates(map[string]any{
			"status":     status,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// Ensure GormEntityMappingStore implements mapping.Store
var _ mapping.Store = (*GormEntityMappingStore)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// GormSyncStateRepository implements sync.StateRepository using GORM
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

// Find returns the watermark row for a tenant and sync type
func (r *GormSyncStateRepository) Find(ctx context.Context, tenantID uuid.UUID, syncType sync.SyncType) (*sync.State, error) {
	var model models.SyncStateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sync_type = ?", tenantID, syncType).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrStateNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the watermark row. Upserts on the
// (tenant_id, sync_type) unique index so concurrent jobs for the same tenant
// and type collapse into one row.
func (r *GormSyncStateRepository) Save(ctx context.Context, state *sync.State) error {
	model := &models.SyncStateModel{}
	model.FromDomain(state)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "sync_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_attempted_at",
			"last_succeeded_at",
			"updated_at",
		}),
	}).Create(model).Error
}

// Ensure GormSyncStateRepository implements sync.StateRepository
var _ sync.StateRepository = (*GormSyncStateRepository)(nil)

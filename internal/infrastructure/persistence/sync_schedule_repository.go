package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// GormSyncScheduleRepository implements sync.ScheduleRepository using GORM
type GormSyncScheduleRepository struct {
	db *gorm.DB
}

// NewGormSyncScheduleRepository creates a new GormSyncScheduleRepository
func NewGormSyncScheduleRepository(db *gorm.DB) *GormSyncScheduleRepository {
	return &GormSyncScheduleRepository{db: db}
}

// FindEnabled returns all enabled schedules
func (r *GormSyncScheduleRepository) FindEnabled(ctx context.Context) ([]sync.Schedule, error) {
	var scheduleModels []models.SyncScheduleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("created_at ASC").
		Find(&scheduleModels).Error; err != nil {
		return nil, err
	}

	schedules := make([]sync.Schedule, len(scheduleModels))
	for i := range scheduleModels {
		schedules[i] = *scheduleModels[i].ToDomain()
	}
	return schedules, nil
}

// Save creates or updates a schedule
func (r *GormSyncScheduleRepository) Save(ctx context.Context, schedule *sync.Schedule) error {
	model := &models.SyncScheduleModel{}
	model.FromDomain(schedule)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormSyncScheduleRepository implements sync.ScheduleRepository
var _ sync.ScheduleRepository = (*GormSyncScheduleRepository)(nil)

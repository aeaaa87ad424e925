package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// claimAttempts bounds the optimistic claim loop. Each round loses only to
// another worker that claimed a job, so the queue is still draining.
const claimAttempts = 3

// GormSyncJobRepository implements sync.JobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Save creates or updates a job
func (r *GormSyncJobRepository) Save(ctx context.Context, job *sync.Job) error {
	model := models.SyncJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a job by its ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.Job, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClaimNextPending atomically picks the oldest PENDING job and marks it
// PROCESSING. The claim is a conditional update keyed on the PENDING status,
// so two workers racing for the same row leave exactly one winner; the loser
// retries against the next candidate.
func (r *GormSyncJobRepository) ClaimNextPending(ctx context.Context) (*sync.Job, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		var model models.SyncJobModel
		err := r.db.WithContext(ctx).
			Where("status = ?", sync.JobStatusPending).
			Order("created_at ASC").
			First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, sync.ErrJobNotFound
			}
			return nil, err
		}

		// The domain transition computes the claimed state; the conditional
		// update persists exactly those fields, keyed on the row still being
		// PENDING.
		job := model.ToDomain()
		if err := job.Start(); err != nil {
			return nil, err
		}
		result := r.db.WithContext(ctx).
			Model(&models.SyncJobModel{}).
			Where("id = ? AND status = ?", model.ID, sync.JobStatusPending).
			Updates(map[string]any{
				"status":        job.Status,
				"started_at":    job.StartedAt,
				"error_message": job.ErrorMessage,
				"updated_at":    job.UpdatedAt,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race, try the next candidate.
			continue
		}
		return job, nil
	}
	return nil, sync.ErrJobNotFound
}

// ResetStuck returns PROCESSING jobs started before the cutoff to PENDING
func (r *GormSyncJobRepository) ResetStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("status = ? AND started_at < ?", sync.JobStatusProcessing, cutoff).
		Updates(map[string]any{
			"status":     sync.JobStatusPending,
			"started_at": nil,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormSyncJobRepository implements sync.JobRepository
var _ sync.JobRepository = (*GormSyncJobRepository)(nil)

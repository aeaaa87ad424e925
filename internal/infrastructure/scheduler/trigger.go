package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
)

// defaultTickInterval is how often the trigger checks for due schedules.
const defaultTickInterval = time.Minute

// CronTrigger materializes due schedules into pending jobs. The encrypted
// credential blobs are copied from tenant config onto the job envelope; they
// stay ciphertext until the dispatcher runs the job.
type CronTrigger struct {
	schedules sync.ScheduleRepository
	jobs      sync.JobRepository
	configs   tenant.ConfigRepository
	logger    *zap.Logger

	interval time.Duration
	now      func() time.Time
}

// TriggerOption tunes the trigger.
type TriggerOption func(*CronTrigger)

// WithTickInterval sets the schedule polling interval.
func WithTickInterval(d time.Duration) TriggerOption {
	return func(t *CronTrigger) {
		if d > 0 {
			t.interval = d
		}
	}
}

// NewCronTrigger constructs a CronTrigger.
func NewCronTrigger(schedules sync.ScheduleRepository, jobs sync.JobRepository, configs tenant.ConfigRepository, logger *zap.Logger, opts ...TriggerOption) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &CronTrigger{
		schedules: schedules,
		jobs:      jobs,
		configs:   configs,
		logger:    logger,
		interval:  defaultTickInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run ticks until ctx is cancelled.
func (t *CronTrigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Tick(ctx); err != nil {
				t.logger.Error("schedule tick failed", zap.Error(err))
			}
		}
	}
}

// Tick enqueues a job for every due schedule. A schedule that cannot be
// enqueued (missing credentials, bad cron) is logged and skipped.
func (t *CronTrigger) Tick(ctx context.Context) error {
	schedules, err := t.schedules.FindEnabled(ctx)
	if err != nil {
		return err
	}

	now := t.now()
	for i := range schedules {
		schedule := &schedules[i]
		due, err := schedule.IsDue(now)
		if err != nil {
			t.logger.Warn("invalid schedule skipped",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err))
			continue
		}
		if !due {
			continue
		}
		if err := t.enqueue(ctx, schedule, now); err != nil {
			t.logger.Warn("schedule enqueue failed",
				zap.String("schedule_id", schedule.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

func (t *CronTrigger) enqueue(ctx context.Context, schedule *sync.Schedule, now time.Time) error {
	cfg, err := t.configs.Load(ctx, schedule.TenantID)
	if err != nil {
		return err
	}

	srcCreds := cfg.GetString(tenant.ConfigKeySourceCredentials, "")
	dstCreds := cfg.GetString(tenant.ConfigKeyDestCredentials, "")

	job, err := sync.NewJob(schedule.TenantID, schedule.SyncType, srcCreds, dstCreds)
	if err != nil {
		return err
	}
	scheduleID := schedule.ID
	job.ScheduleID = &scheduleID

	if err := t.jobs.Save(ctx, job); err != nil {
		return err
	}

	schedule.MarkEnqueued(now)
	if err := t.schedules.Save(ctx, schedule); err != nil {
		return err
	}

	t.logger.Info("schedule enqueued",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("tenant_id", schedule.TenantID.String()),
		zap.String("sync_type", string(schedule.SyncType)),
		zap.String("job_id", job.ID.String()))
	return nil
}

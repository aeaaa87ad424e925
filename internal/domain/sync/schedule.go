package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard five-field cron expressions plus the
// @every/@hourly style descriptors.
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule is a recurring sync intent. The cron trigger materializes due
// schedules into pending Jobs.
type Schedule struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	SyncType       SyncType
	CronExpression string
	Enabled        bool
	LastEnqueuedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSchedule creates an enabled schedule after validating the cron expression.
func NewSchedule(tenantID uuid.UUID, syncType SyncType, cronExpr string) (*Schedule, error) {
	if tenantID == uuid.Nil {
		return nil, ErrJobInvalidTenantID
	}
	if !syncType.IsValid() {
		return nil, ErrJobInvalidSyncType
	}
	if _, err := scheduleParser.Parse(cronExpr); err != nil {
		return nil, ErrScheduleInvalidCron
	}

	now := time.Now()
	return &Schedule{
		ID:             uuid.New(),
		TenantID:       tenantID,
		SyncType:       syncType,
		CronExpression: cronExpr,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NextRun returns the next activation after the given time.
func (s *Schedule) NextRun(after time.Time) (time.Time, error) {
	sched, err := scheduleParser.Parse(s.CronExpression)
	if err != nil {
		return time.Time{}, ErrScheduleInvalidCron
	}
	return sched.Next(after), nil
}

// IsDue reports whether the schedule should enqueue a job at now. A schedule
// is due when its next activation after the last enqueue is not in the future.
func (s *Schedule) IsDue(now time.Time) (bool, error) {
	if !s.Enabled {
		return false, nil
	}
	from := s.CreatedAt
	if s.LastEnqueuedAt != nil {
		from = *s.LastEnqueuedAt
	}
	next, err := s.NextRun(from)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}

// MarkEnqueued records that a job was created for this schedule.
func (s *Schedule) MarkEnqueued(at time.Time) {
	s.LastEnqueuedAt = &at
	s.UpdatedAt = time.Now()
}

package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobRepository persists sync jobs. ClaimNextPending is the queue-pull used
// by workers; it must hand each pending job to exactly one caller.
type JobRepository interface {
	// Save creates or updates a job.
	Save(ctx context.Context, job *Job) error

	// FindByID finds a job by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// ClaimNextPending atomically picks the oldest PENDING job, marks it
	// PROCESSING and returns it. Returns ErrJobNotFound when the queue is empty.
	ClaimNextPending(ctx context.Context) (*Job, error)

	// ResetStuck returns PROCESSING jobs started before the cutoff to PENDING
	// and reports how many were reset.
	ResetStuck(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateRepository persists per-(tenant, sync type) watermarks.
type StateRepository interface {
	// Find returns the watermark row, or ErrStateNotFound.
	Find(ctx context.Context, tenantID uuid.UUID, syncType SyncType) (*State, error)

	// Save creates or updates the watermark row.
	Save(ctx context.Context, state *State) error
}

// ScheduleRepository persists recurring sync schedules.
type ScheduleRepository interface {
	// FindEnabled returns all enabled schedules.
	FindEnabled(ctx context.Context) ([]Schedule, error)

	// Save creates or updates a schedule.
	Save(ctx context.Context, schedule *Schedule) error
}

// LogWriter accepts audit rows. Implementations buffer and flush in batches.
type LogWriter interface {
	// Append buffers one entry.
	Append(ctx context.Context, entry *LogEntry) error

	// Flush writes any buffered entries.
	Flush(ctx context.Context) error
}

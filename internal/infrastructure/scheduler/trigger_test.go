package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
)

type triggerHarness struct {
	tenantID  uuid.UUID
	schedules *fakeSchedules
	jobs      *fakeJobs
	configs   *fakeConfigs
	trigger   *CronTrigger
	now       time.Time
}

func newTriggerHarness(t *testing.T) *triggerHarness {
	t.Helper()

	h := &triggerHarness{
		tenantID:  uuid.New(),
		schedules: newFakeSchedules(),
		jobs:      newFakeJobs(),
		configs:   newFakeConfigs(),
		now:       time.Date(2026, 3, 14, 9, 30, 30, 0, time.UTC),
	}

	ctx := context.Background()
	require.NoError(t, h.configs.Set(ctx, tenant.NewStringEntry(h.tenantID, tenant.ConfigKeySourceCredentials, "enc-source-blob")))
	require.NoError(t, h.configs.Set(ctx, tenant.NewStringEntry(h.tenantID, tenant.ConfigKeyDestCredentials, "enc-dest-blob")))

	h.trigger = NewCronTrigger(h.schedules, h.jobs, h.configs, nil)
	h.trigger.now = func() time.Time { return h.now }
	return h
}

func (h *triggerHarness) addSchedule(t *testing.T, syncType sync.SyncType, cronExpr string) *sync.Schedule {
	t.Helper()
	schedule, err := sync.NewSchedule(h.tenantID, syncType, cronExpr)
	require.NoError(t, err)
	// Backdate creation so an every-minute schedule is already due.
	schedule.CreatedAt = h.now.Add(-10 * time.Minute)
	require.NoError(t, h.schedules.Save(context.Background(), schedule))
	return schedule
}

func TestTriggerEnqueuesDueSchedule(t *testing.T) {
	ctx := context.Background()
	h := newTriggerHarness(t)
	schedule := h.addSchedule(t, sync.SyncTypeProductDelta, "* * * * *")

	require.NoError(t, h.trigger.Tick(ctx))

	jobs := h.jobs.all()
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, h.tenantID, job.TenantID)
	assert.Equal(t, sync.SyncTypeProductDelta, job.SyncType)
	assert.Equal(t, sync.JobStatusPending, job.Status)
	require.NotNil(t, job.ScheduleID)
	assert.Equal(t, schedule.ID, *job.ScheduleID)

	// Credentials travel encrypted, verbatim from tenant config.
	assert.Equal(t, "enc-source-blob", job.EncryptedSourceCredentials)
	assert.Equal(t, "enc-dest-blob", job.EncryptedDestCredentials)

	saved := h.schedules.schedules[schedule.ID]
	require.NotNil(t, saved.LastEnqueuedAt)
	assert.Equal(t, h.now, *saved.LastEnqueuedAt)
}

func TestTriggerTickIsIdempotentWithinInterval(t *testing.T) {
	ctx := context.Background()
	h := newTriggerHarness(t)
	h.addSchedule(t, sync.SyncTypeStock, "* * * * *")

	require.NoError(t, h.trigger.Tick(ctx))
	require.NoError(t, h.trigger.Tick(ctx))

	assert.Len(t, h.jobs.all(), 1)

	// Once the next cron boundary passes, the schedule fires again.
	h.now = h.now.Add(time.Minute)
	require.NoError(t, h.trigger.Tick(ctx))
	assert.Len(t, h.jobs.all(), 2)
}

func TestTriggerSkipsNotDueSchedule(t *testing.T) {
	ctx := context.Background()
	h := newTriggerHarness(t)
	// Daily at midnight; 09:30 is well before the next boundary.
	schedule, err := sync.NewSchedule(h.tenantID, sync.SyncTypeConfig, "0 0 * * *")
	require.NoError(t, err)
	schedule.CreatedAt = h.now.Add(-time.Hour)
	require.NoError(t, h.schedules.Save(ctx, schedule))

	require.NoError(t, h.trigger.Tick(ctx))

	assert.Empty(t, h.jobs.all())
}

func TestTriggerSkipsScheduleWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	h := newTriggerHarness(t)
	h.tenantID = uuid.New() // tenant with no config entries
	schedule := h.addSchedule(t, sync.SyncTypeStock, "* * * * *")

	require.NoError(t, h.trigger.Tick(ctx))

	assert.Empty(t, h.jobs.all())

	// The failed schedule is not marked, so it retries next tick.
	saved := h.schedules.schedules[schedule.ID]
	assert.Nil(t, saved.LastEnqueuedAt)
}

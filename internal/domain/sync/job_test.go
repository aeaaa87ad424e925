package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name     string
		tenantID uuid.UUID
		syncType SyncType
		srcCreds string
		dstCreds string
		wantErr  error
	}{
		{
			name:     "valid job",
			tenantID: tenantID,
			syncType: SyncTypeProductFull,
			srcCreds: "enc-src",
			dstCreds: "enc-dst",
		},
		{
			name:     "nil tenant",
			tenantID: uuid.Nil,
			syncType: SyncTypeConfig,
			srcCreds: "enc-src",
			dstCreds: "enc-dst",
			wantErr:  ErrJobInvalidTenantID,
		},
		{
			name:     "unknown sync type",
			tenantID: tenantID,
			syncType: SyncType("BOGUS"),
			srcCreds: "enc-src",
			dstCreds: "enc-dst",
			wantErr:  ErrJobInvalidSyncType,
		},
		{
			name:     "missing credentials",
			tenantID: tenantID,
			syncType: SyncTypeStock,
			srcCreds: "",
			dstCreds: "enc-dst",
			wantErr:  ErrJobMissingCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := NewJob(tt.tenantID, tt.syncType, tt.srcCreds, tt.dstCreds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, JobStatusPending, job.Status)
			assert.Equal(t, DirectionSourceToDestination, job.Direction)
		})
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job, err := NewJob(uuid.New(), SyncTypeProductDelta, "s", "d")
	require.NoError(t, err)

	require.NoError(t, job.Start())
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.StartedAt)

	// Starting twice is rejected
	assert.ErrorIs(t, job.Start(), ErrJobNotPending)

	result := NewResult()
	result.RecordCreated()
	result.RecordUpdated()
	result.RecordFailure("variation 42: boom")

	require.NoError(t, job.Complete(result))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.ItemsProcessed)
	assert.Equal(t, 1, job.ItemsCreated)
	assert.Equal(t, 1, job.ItemsUpdated)
	assert.Equal(t, 1, job.ItemsFailed)

	// Terminal jobs cannot transition again
	assert.ErrorIs(t, job.Fail("late"), ErrJobAlreadyTerminal)
	assert.ErrorIs(t, job.Complete(result), ErrJobAlreadyTerminal)
}

func TestJob_FailAndReset(t *testing.T) {
	job, err := NewJob(uuid.New(), SyncTypeStock, "s", "d")
	require.NoError(t, err)
	require.NoError(t, job.Start())

	require.NoError(t, job.Fail("authentication failed"))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "authentication failed", job.ErrorMessage)

	// Recovery sweep path
	job.Status = JobStatusProcessing
	job.ResetToPending()
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Nil(t, job.StartedAt)
}

func TestResult_SuccessContract(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Success())

	r.RecordCreated()
	r.RecordSkipped()
	assert.True(t, r.Success())
	assert.Equal(t, 2, r.ItemsProcessed)

	r.RecordFailure("x")
	assert.False(t, r.Success())

	nested := NewResult()
	nested.RecordUpdated()
	nested.RecordFailure("y")
	r.Merge(nested)
	assert.Equal(t, 5, r.ItemsProcessed)
	assert.Equal(t, 2, r.ItemsFailed)
	assert.Len(t, r.Errors, 2)
}

func TestState_WatermarkAndStaleness(t *testing.T) {
	s := NewState(uuid.New(), SyncTypeProductDelta)
	assert.False(t, s.HasWatermark())
	assert.True(t, s.IsStale(time.Hour))

	past := time.Now().Add(-2 * time.Hour)
	s.RecordSuccess(past)
	assert.True(t, s.HasWatermark())
	assert.True(t, s.IsStale(time.Hour))
	assert.False(t, s.IsStale(3*time.Hour))

	var nilState *State
	assert.False(t, nilState.HasWatermark())
}

func TestSyncType_WatermarkKey(t *testing.T) {
	assert.Equal(t, SyncTypeProductDelta, SyncTypeProductFull.WatermarkKey())
	assert.Equal(t, SyncTypeProductDelta, SyncTypeProductDelta.WatermarkKey())
	assert.Equal(t, SyncTypeConfig, SyncTypeConfig.WatermarkKey())
	assert.Equal(t, SyncTypeStock, SyncTypeStock.WatermarkKey())
}

func TestSchedule_DueComputation(t *testing.T) {
	_, err := NewSchedule(uuid.New(), SyncTypeConfig, "not a cron")
	assert.ErrorIs(t, err, ErrScheduleInvalidCron)

	sched, err := NewSchedule(uuid.New(), SyncTypeConfig, "*/5 * * * *")
	require.NoError(t, err)

	// Freshly created schedule is not yet due
	due, err := sched.IsDue(sched.CreatedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, due)

	due, err = sched.IsDue(sched.CreatedAt.Add(6 * time.Minute))
	require.NoError(t, err)
	assert.True(t, due)

	sched.MarkEnqueued(sched.CreatedAt.Add(6 * time.Minute))
	due, err = sched.IsDue(sched.CreatedAt.Add(7 * time.Minute))
	require.NoError(t, err)
	assert.False(t, due)
}

package sync

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncJob Entity
// ---------------------------------------------------------------------------

// Job is one concrete execution of a synchronization. It is the envelope a
// worker pulls from the durable queue: besides the sync kind it carries the
// encrypted tenant credentials and, once finished, the aggregate counters.
type Job struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ScheduleID *uuid.UUID
	SyncType   SyncType
	Direction  SyncDirection

	// Credentials are stored encrypted (vault format) and only decrypted
	// at execution time by the dispatcher.
	EncryptedSourceCredentials string
	EncryptedDestCredentials   string

	// Metadata carries per-job options, e.g. {"skipExisting": "true"}.
	Metadata map[string]string

	Status       JobStatus
	ErrorMessage string

	// Aggregate counters copied from the orchestrator result.
	ItemsProcessed int
	ItemsCreated   int
	ItemsUpdated   int
	ItemsFailed    int

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewJob creates a pending sync job for a tenant.
func NewJob(tenantID uuid.UUID, syncType SyncType, encSourceCreds, encDestCreds string) (*Job, error) {
	if tenantID == uuid.Nil {
		return nil, ErrJobInvalidTenantID
	}
	if !syncType.IsValid() {
		return nil, ErrJobInvalidSyncType
	}
	if encSourceCreds == "" || encDestCreds == "" {
		return nil, ErrJobMissingCredential
	}

	now := time.Now()
	return &Job{
		ID:                         uuid.New(),
		TenantID:                   tenantID,
		SyncType:                   syncType,
		Direction:                  DirectionSourceToDestination,
		EncryptedSourceCredentials: encSourceCreds,
		EncryptedDestCredentials:   encDestCreds,
		Metadata:                   make(map[string]string),
		Status:                     JobStatusPending,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}, nil
}

// Start marks the job as picked up by a worker.
func (j *Job) Start() error {
	if j.Status != JobStatusPending {
		return ErrJobNotPending
	}
	now := time.Now()
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	j.ErrorMessage = ""
	j.UpdatedAt = now
	return nil
}

// Complete records a finished run and its counters. A run with per-item
// failures still completes; only phase-level errors fail the job.
func (j *Job) Complete(result *Result) error {
	if j.Status.IsTerminal() {
		return ErrJobAlreadyTerminal
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.ItemsProcessed = result.ItemsProcessed
	j.ItemsCreated = result.ItemsCreated
	j.ItemsUpdated = result.ItemsUpdated
	j.ItemsFailed = result.ItemsFailed
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail records a phase-level failure.
func (j *Job) Fail(message string) error {
	if j.Status.IsTerminal() {
		return ErrJobAlreadyTerminal
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = message
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Cancel marks a pending job as cancelled.
func (j *Job) Cancel() error {
	if j.Status != JobStatusPending {
		return ErrJobNotPending
	}
	now := time.Now()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// ResetToPending returns a stuck PROCESSING job to the queue. Used by the
// recovery sweep at worker-pool startup.
func (j *Job) ResetToPending() {
	now := time.Now()
	j.Status = JobStatusPending
	j.StartedAt = nil
	j.UpdatedAt = now
}

// SkipExisting reports whether the job requests create-only product sync.
func (j *Job) SkipExisting() bool {
	return j.Metadata["skipExisting"] == "true"
}

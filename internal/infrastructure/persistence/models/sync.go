package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// SyncJobModel
// ---------------------------------------------------------------------------

// SyncJobModel is the persistence model for the sync job queue.
type SyncJobModel struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	ScheduleID *uuid.UUID         `gorm:"type:uuid;index"`
	SyncType   sync.SyncType      `gorm:"type:varchar(20);not null"`
	Direction  sync.SyncDirection `gorm:"type:varchar(30);not null"`

	EncryptedSourceCredentials string `gorm:"type:text;not null"`
	EncryptedDestCredentials   string `gorm:"type:text;not null"`
	MetadataJSON               string `gorm:"type:text;column:metadata"`

	Status       sync.JobStatus `gorm:"type:varchar(15);not null;index:idx_sync_jobs_queue,priority:1"`
	ErrorMessage string         `gorm:"type:text"`

	ItemsProcessed int `gorm:"not null;default:0"`
	ItemsCreated   int `gorm:"not null;default:0"`
	ItemsUpdated   int `gorm:"not null;default:0"`
	ItemsFailed    int `gorm:"not null;default:0"`

	StartedAt   *time.Time `gorm:"index"`
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;index:idx_sync_jobs_queue,priority:2"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain Job entity.
func (m *SyncJobModel) ToDomain() *sync.Job {
	job := &sync.Job{
		ID:                         m.ID,
		TenantID:                   m.TenantID,
		ScheduleID:                 m.ScheduleID,
		SyncType:                   m.SyncType,
		Direction:                  m.Direction,
		EncryptedSourceCredentials: m.EncryptedSourceCredentials,
		EncryptedDestCredentials:   m.EncryptedDestCredentials,
		Metadata:                   make(map[string]string),
		Status:                     m.Status,
		ErrorMessage:               m.ErrorMessage,
		ItemsProcessed:             m.ItemsProcessed,
		ItemsCreated:               m.ItemsCreated,
		ItemsUpdated:               m.ItemsUpdated,
		ItemsFailed:                m.ItemsFailed,
		StartedAt:                  m.StartedAt,
		CompletedAt:                m.CompletedAt,
		CreatedAt:                  m.CreatedAt,
		UpdatedAt:                  m.UpdatedAt,
	}

	if m.MetadataJSON != "" {
		var metadata map[string]string
		if err := json.Unmarshal([]byte(m.MetadataJSON), &metadata); err == nil {
			job.Metadata = metadata
		}
	}

	return job
}

// FromDomain populates the persistence model from a domain Job entity.
func (m *SyncJobModel) FromDomain(j *sync.Job) {
	m.ID = j.ID
	m.TenantID = j.TenantID
	m.ScheduleID = j.ScheduleID
	m.SyncType = j.SyncType
	m.Direction = j.Direction
	m.EncryptedSourceCredentials = j.EncryptedSourceCredentials
	m.EncryptedDestCredentials = j.EncryptedDestCredentials
	m.Status = j.Status
	m.ErrorMessage = j.ErrorMessage
	m.ItemsProcessed = j.ItemsProcessed
	m.ItemsCreated = j.ItemsCreated
	m.ItemsUpdated = j.ItemsUpdated
	m.ItemsFailed = j.ItemsFailed
	m.StartedAt = j.StartedAt
	m.CompletedAt = j.CompletedAt
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt

	if len(j.Metadata) > 0 {
		if raw, err := json.Marshal(j.Metadata); err == nil {
			m.MetadataJSON = string(raw)
		}
	} else {
		m.MetadataJSON = "{}"
	}
}

// SyncJobModelFromDomain creates a new persistence model from a domain Job entity.
func SyncJobModelFromDomain(j *sync.Job) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}

// ---------------------------------------------------------------------------
// SyncStateModel
// ---------------------------------------------------------------------------

// SyncStateModel is the persistence model for per-(tenant, sync type)
// watermarks.
type SyncStateModel struct {
	ID              uuid.UUID     `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_sync_states_identity,priority:1"`
	SyncType        sync.SyncType `gorm:"type:varchar(20);not null;uniqueIndex:idx_sync_states_identity,priority:2"`
	LastAttemptedAt *time.Time
	LastSucceededAt *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncStateModel) TableName() string {
	return "sync_states"
}

// ToDomain converts the persistence model to a domain State entity.
func (m *SyncStateModel) ToDomain() *sync.State {
	return &sync.State{
		ID:              m.ID,
		TenantID:        m.TenantID,
		SyncType:        m.SyncType,
		LastAttemptedAt: m.LastAttemptedAt,
		LastSucceededAt: m.LastSucceededAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain State entity.
func (m *SyncStateModel) FromDomain(s *sync.State) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.SyncType = s.SyncType
	m.LastAttemptedAt = s.LastAttemptedAt
	m.LastSucceededAt = s.LastSucceededAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// ---------------------------------------------------------------------------
// SyncScheduleModel
// ---------------------------------------------------------------------------

// SyncScheduleModel is the persistence model for recurring sync schedules.
type SyncScheduleModel struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	SyncType       sync.SyncType `gorm:"type:varchar(20);not null"`
	CronExpression string        `gorm:"type:varchar(100);not null"`
	Enabled        bool          `gorm:"not null;default:true;index"`
	LastEnqueuedAt *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncScheduleModel) TableName() string {
	return "sync_schedules"
}

// ToDomain converts the persistence model to a domain Schedule entity.
func (m *SyncScheduleModel) ToDomain() *sync.Schedule {
	return &sync.Schedule{
		ID:             m.ID,
		TenantID:       m.TenantID,
		SyncType:       m.SyncType,
		CronExpression: m.CronExpression,
		Enabled:        m.Enabled,
		LastEnqueuedAt: m.LastEnqueuedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Schedule entity.
func (m *SyncScheduleModel) FromDomain(s *sync.Schedule) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.SyncType = s.SyncType
	m.CronExpression = s.CronExpression
	m.Enabled = s.Enabled
	m.LastEnqueuedAt = s.LastEnqueuedAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// ---------------------------------------------------------------------------
// SyncLogModel
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for append-only audit rows.
type SyncLogModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	JobID      *uuid.UUID     `gorm:"type:uuid;index"`
	EntityType string         `gorm:"type:varchar(40);not null"`
	EntityID   string         `gorm:"type:varchar(128);not null"`
	Action     sync.LogAction `gorm:"type:varchar(10);not null"`
	Success    bool           `gorm:"not null"`
	Details    string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain LogEntry.
func (m *SyncLogModel) ToDomain() *sync.LogEntry {
	return &sync.LogEntry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		JobID:      m.JobID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		Success:    m.Success,
		Details:    m.Details,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain LogEntry.
func (m *SyncLogModel) FromDomain(e *sync.LogEntry) {
	m.ID = e.ID
	m.TenantID = e.TenantID
	m.JobID = e.JobID
	m.EntityType = e.EntityType
	m.EntityID = e.EntityID
	m.Action = e.Action
	m.Success = e.Success
	m.Details = e.Details
	m.CreatedAt = e.CreatedAt
}

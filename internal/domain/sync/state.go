package sync

import (
	"time"

	"github.com/google/uuid"
)

// State is the per-(tenant, sync type) watermark row. Delta fetches are
// bounded by LastSucceededAt; LastAttemptedAt is advanced on every run.
type State struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	SyncType        SyncType
	LastAttemptedAt *time.Time
	LastSucceededAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewState creates an empty watermark for a tenant and sync type.
func NewState(tenantID uuid.UUID, syncType SyncType) *State {
	now := time.Now()
	return &State{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SyncType:  syncType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordAttempt advances the attempted timestamp.
func (s *State) RecordAttempt(at time.Time) {
	s.LastAttemptedAt = &at
	s.UpdatedAt = time.Now()
}

// RecordSuccess advances the success watermark.
func (s *State) RecordSuccess(at time.Time) {
	s.LastSucceededAt = &at
	s.UpdatedAt = time.Now()
}

// HasWatermark reports whether a successful run has ever been recorded.
// Without one a delta sync must fall back to a full sync.
func (s *State) HasWatermark() bool {
	return s != nil && s.LastSucceededAt != nil
}

// IsStale reports whether the last successful run is older than threshold.
// A state with no successful run is always stale.
func (s *State) IsStale(threshold time.Duration) bool {
	if !s.HasWatermark() {
		return true
	}
	return time.Since(*s.LastSucceededAt) > threshold
}

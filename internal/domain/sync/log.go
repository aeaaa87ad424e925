package sync

import (
	"time"

	"github.com/google/uuid"
)

// LogAction describes what a sync run did with one entity.
type LogAction string

const (
	LogActionCreate LogAction = "CREATE"
	LogActionUpdate LogAction = "UPDATE"
	LogActionSkip   LogAction = "SKIP"
	LogActionError  LogAction = "ERROR"
)

// LogEntry is one append-only audit row. Entries are buffered by the log
// writer and flushed in batches.
type LogEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	JobID      *uuid.UUID
	EntityType string
	EntityID   string
	Action     LogAction
	Success    bool
	Details    string
	CreatedAt  time.Time
}

// NewLogEntry creates an audit row for one entity operation.
func NewLogEntry(tenantID uuid.UUID, entityType, entityID string, action LogAction, success bool, details string) *LogEntry {
	return &LogEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Success:    success,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}

package sync

// SyncType identifies the kind of synchronization a job performs.
type SyncType string

const (
	// SyncTypeConfig refreshes the local replica of source configuration data
	// (categories, attributes, properties, sales prices, manufacturers, units).
	SyncTypeConfig SyncType = "CONFIG"
	// SyncTypeProductFull paginates the entire source catalog.
	SyncTypeProductFull SyncType = "PRODUCT_FULL"
	// SyncTypeProductDelta fetches only variations changed since the last
	// successful product sync.
	SyncTypeProductDelta SyncType = "PRODUCT_DELTA"
	// SyncTypeStock updates stock fields only.
	SyncTypeStock SyncType = "STOCK"
)

// IsValid returns true if the sync type is a known value.
func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeConfig, SyncTypeProductFull, SyncTypeProductDelta, SyncTypeStock:
		return true
	}
	return false
}

// WatermarkKey returns the sync type under which the watermark for this sync
// is stored. Full and delta product syncs share one watermark.
func (t SyncType) WatermarkKey() SyncType {
	if t == SyncTypeProductFull || t == SyncTypeProductDelta {
		return SyncTypeProductDelta
	}
	return t
}

// SyncDirection indicates which way entities flow.
type SyncDirection string

const (
	// DirectionSourceToDestination pushes source entities to the destination platform.
	DirectionSourceToDestination SyncDirection = "SOURCE_TO_DESTINATION"
)

// JobStatus represents the lifecycle state of a sync job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// IsValid returns true if the job status is a known value.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

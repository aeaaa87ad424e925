package sync

import "errors"

var (
	// Job errors
	ErrJobInvalidTenantID   = errors.New("sync: invalid tenant ID")
	ErrJobInvalidSyncType   = errors.New("sync: invalid sync type")
	ErrJobNotFound          = errors.New("sync: job not found")
	ErrJobNotPending        = errors.New("sync: job is not pending")
	ErrJobAlreadyTerminal   = errors.New("sync: job already in a terminal state")
	ErrJobMissingCredential = errors.New("sync: job carries no credentials")

	// Schedule errors
	ErrScheduleInvalidCron = errors.New("sync: invalid cron expression")
	ErrScheduleNotFound    = errors.New("sync: schedule not found")

	// Watermark errors
	ErrStateNotFound = errors.New("sync: no sync state for tenant and type")
)

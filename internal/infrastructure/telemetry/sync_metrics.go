// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics provides operational metrics for the sync engine.
// It tracks job outcomes, synced item activity, and queue health.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	jobTotal  *Counter
	itemTotal *Counter

	// Histogram metrics
	runDuration *Histogram

	// Gauge metrics (point-in-time values)
	queueDepth *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	queueProvider QueueStatsProvider
}

// QueueStatsProvider provides job queue data for periodic metrics collection.
// This interface allows the telemetry layer to query queue state without
// depending on the sync domain directly.
type QueueStatsProvider interface {
	// CountJobsByStatus returns the number of jobs per status for a tenant.
	CountJobsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	QueueProvider   QueueStatsProvider
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		queueProvider: cfg.QueueProvider,
	}

	var err error

	sm.jobTotal, err = NewCounter(
		cfg.Meter,
		"syncbridge_job_total",
		"Total number of sync jobs finished",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	sm.itemTotal, err = NewCounter(
		cfg.Meter,
		"syncbridge_item_total",
		"Total number of catalog entities processed",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "syncbridge_run_duration_seconds",
		Description: "Duration of a full sync run",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.queueDepth, err = NewGauge(
		cfg.Meter,
		"syncbridge_queue_depth",
		"Number of jobs in the queue by status",
		"{jobs}",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Job Metrics
// =============================================================================

// ItemAction labels what happened to a single catalog entity during a run.
type ItemAction string

const (
	ItemActionCreated ItemAction = "created"
	ItemActionUpdated ItemAction = "updated"
	ItemActionSkipped ItemAction = "skipped"
	ItemActionFailed  ItemAction = "failed"
)

// RecordJobFinished records a finished job with its terminal status.
// This should be called by the dispatcher after Complete or Fail.
func (sm *SyncMetrics) RecordJobFinished(ctx context.Context, tenantID uuid.UUID, syncType, status string) {
	sm.jobTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrSyncType.String(syncType),
		AttrJobStatus.String(status),
	)
}

// RecordRunDuration records how long a sync run took end to end.
func (sm *SyncMetrics) RecordRunDuration(ctx context.Context, tenantID uuid.UUID, syncType string, d time.Duration) {
	sm.runDuration.RecordDuration(ctx, d,
		AttrTenantID.String(tenantID.String()),
		AttrSyncType.String(syncType),
	)
}

// RecordItem records the outcome for a single catalog entity.
func (sm *SyncMetrics) RecordItem(ctx context.Context, tenantID uuid.UUID, entityKind string, action ItemAction) {
	sm.itemTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEntityKind.String(entityKind),
		AttrAction.String(string(action)),
	)
}

// RecordItems records the same outcome for a batch of entities.
func (sm *SyncMetrics) RecordItems(ctx context.Context, tenantID uuid.UUID, entityKind string, action ItemAction, count int64) {
	if count <= 0 {
		return
	}
	sm.itemTotal.Add(ctx, count,
		AttrTenantID.String(tenantID.String()),
		AttrEntityKind.String(entityKind),
		AttrAction.String(string(action)),
	)
}

// =============================================================================
// Queue Metrics
// =============================================================================

// RecordQueueDepth records the current queue depth for one status.
// This is a gauge metric that should be updated periodically.
func (sm *SyncMetrics) RecordQueueDepth(ctx context.Context, tenantID uuid.UUID, status string, depth int64) {
	sm.queueDepth.Record(ctx, depth,
		AttrTenantID.String(tenantID.String()),
		AttrJobStatus.String(status),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of queue gauge metrics.
// It collects every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go sm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	sm.collectQueueMetrics(ctx, tenantProvider)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic sync metrics collection")
			return
		case <-ticker.C:
			sm.collectQueueMetrics(ctx, tenantProvider)
		}
	}
}

// collectQueueMetrics collects queue gauge metrics for all tenants.
func (sm *SyncMetrics) collectQueueMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if sm.queueProvider == nil {
		sm.logger.Debug("No queue provider configured, skipping queue metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		sm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		sm.collectTenantQueueMetrics(ctx, tenantID)
	}
}

// collectTenantQueueMetrics collects queue metrics for a single tenant.
func (sm *SyncMetrics) collectTenantQueueMetrics(ctx context.Context, tenantID uuid.UUID) {
	byStatus, err := sm.queueProvider.CountJobsByStatus(ctx, tenantID)
	if err != nil {
		sm.logger.Warn("Failed to count jobs for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}

	for status, depth := range byStatus {
		sm.RecordQueueDepth(ctx, tenantID, status, depth)
	}
}

// Stop stops the periodic collection.
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

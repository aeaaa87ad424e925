package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/application/orchestrator"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
	"github.com/syncbridge/backend/internal/infrastructure/telemetry"
	"github.com/syncbridge/backend/internal/infrastructure/vault"
)

// ErrQueueEmpty signals that no pending job was available.
var ErrQueueEmpty = errors.New("scheduler: queue empty")

// SourceFactory builds a source client from decrypted credentials. Swapped
// out in tests.
type SourceFactory func(creds tenant.SourceCredentials) (orchestrator.SourceClient, error)

// DestFactory builds a destination client from decrypted credentials.
type DestFactory func(creds tenant.DestinationCredentials) (destination.API, error)

// DefaultSourceFactory builds the real source API client.
func DefaultSourceFactory(config sourceapi.Config, logger *zap.Logger) SourceFactory {
	return func(creds tenant.SourceCredentials) (orchestrator.SourceClient, error) {
		return sourceapi.NewClient(creds, config, logger)
	}
}

// DefaultDestFactory builds the real remote destination client.
func DefaultDestFactory(logger *zap.Logger) DestFactory {
	return func(creds tenant.DestinationCredentials) (destination.API, error) {
		return destination.NewRemoteClient(creds, logger)
	}
}

// Dispatcher pulls one job at a time, assembles its execution environment
// and runs the matching orchestrator. On success the job is completed with
// the aggregate counters; on a phase failure it is marked FAILED and the
// error is returned so the caller's retry policy applies.
type Dispatcher struct {
	jobs     sync.JobRepository
	tenants  tenant.Repository
	configs  tenant.ConfigRepository
	vault    *vault.Vault
	lock     RunLock
	config   *orchestrator.ConfigOrchestrator
	products *orchestrator.ProductOrchestrator
	stock    *orchestrator.StockOrchestrator

	newSource SourceFactory
	newDest   DestFactory
	logger    *zap.Logger
	metrics   *telemetry.SyncMetrics
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(
	jobs sync.JobRepository,
	tenants tenant.Repository,
	configs tenant.ConfigRepository,
	v *vault.Vault,
	lock RunLock,
	config *orchestrator.ConfigOrchestrator,
	products *orchestrator.ProductOrchestrator,
	stock *orchestrator.StockOrchestrator,
	newSource SourceFactory,
	newDest DestFactory,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		jobs:      jobs,
		tenants:   tenants,
		configs:   configs,
		vault:     v,
		lock:      lock,
		config:    config,
		products:  products,
		stock:     stock,
		newSource: newSource,
		newDest:   newDest,
		logger:    logger,
	}
}

// SetSyncMetrics attaches the metrics collector. Optional; when unset the
// dispatcher runs without recording metrics.
func (d *Dispatcher) SetSyncMetrics(sm *telemetry.SyncMetrics) {
	d.metrics = sm
}

// DispatchNext claims and fully executes one pending job. Returns
// ErrQueueEmpty when there is nothing to do.
func (d *Dispatcher) DispatchNext(ctx context.Context) error {
	job, err := d.jobs.ClaimNextPending(ctx)
	if errors.Is(err, sync.ErrJobNotFound) {
		return ErrQueueEmpty
	}
	if err != nil {
		return err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "sync_job", "dispatch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrJobID, job.ID,
		telemetry.SpanAttrSyncType, string(job.SyncType),
		telemetry.SpanAttrTenantID, job.TenantID,
	)

	acquired, err := d.lock.Acquire(ctx, job.TenantID, job.SyncType)
	if err != nil {
		telemetry.RecordError(span, err)
		return d.failJob(ctx, job, err)
	}
	if !acquired {
		// Another run for this tenant and kind is in flight; put the job back.
		d.logger.Info("run lock held, requeueing job",
			zap.String("job_id", job.ID.String()),
			zap.String("sync_type", string(job.SyncType)))
		job.ResetToPending()
		return d.jobs.Save(ctx, job)
	}
	defer func() {
		if err := d.lock.Release(ctx, job.TenantID, job.SyncType); err != nil {
			d.logger.Warn("run lock release failed", zap.Error(err))
		}
	}()

	started := time.Now()
	var result *sync.Result
	var runErr error
	telemetry.WithProfilingLabels(ctx, telemetry.SyncRunLabels(string(job.SyncType), job.TenantID.String()), func(c context.Context) {
		result, runErr = d.run(c, job)
	})
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		return d.failJob(ctx, job, runErr)
	}

	if err := job.Complete(result); err != nil {
		return err
	}
	if err := d.jobs.Save(ctx, job); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.RecordJobFinished(ctx, job.TenantID, string(job.SyncType), string(job.Status))
		d.metrics.RecordRunDuration(ctx, job.TenantID, string(job.SyncType), time.Since(started))
	}
	telemetry.SetOK(span)
	d.logger.Info("job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("sync_type", string(job.SyncType)),
		zap.Int("processed", result.ItemsProcessed),
		zap.Int("failed", result.ItemsFailed))
	return nil
}

// failJob records a phase failure on the job and re-raises the error.
func (d *Dispatcher) failJob(ctx context.Context, job *sync.Job, cause error) error {
	d.logger.Error("job failed",
		zap.String("job_id", job.ID.String()),
		zap.String("sync_type", string(job.SyncType)),
		zap.Error(cause))
	if err := job.Fail(cause.Error()); err == nil {
		if saveErr := d.jobs.Save(ctx, job); saveErr != nil {
			d.logger.Error("failed to persist job failure", zap.Error(saveErr))
		}
		if d.metrics != nil {
			d.metrics.RecordJobFinished(ctx, job.TenantID, string(job.SyncType), string(job.Status))
		}
	}
	return cause
}

// run builds the per-job environment and executes the orchestrator.
func (d *Dispatcher) run(ctx context.Context, job *sync.Job) (*sync.Result, error) {
	env, err := d.buildEnv(ctx, job)
	if err != nil {
		return nil, err
	}

	switch job.SyncType {
	case sync.SyncTypeConfig:
		return d.config.Run(ctx, env)
	case sync.SyncTypeProductFull, sync.SyncTypeProductDelta:
		return d.products.Run(ctx, env, job)
	case sync.SyncTypeStock:
		return d.stock.Run(ctx, env)
	default:
		return nil, fmt.Errorf("scheduler: unknown sync type %q", job.SyncType)
	}
}

func (d *Dispatcher) buildEnv(ctx context.Context, job *sync.Job) (orchestrator.Env, error) {
	t, err := d.tenants.FindByID(ctx, job.TenantID)
	if err != nil {
		return orchestrator.Env{}, fmt.Errorf("load tenant: %w", err)
	}
	cfg, err := d.configs.Load(ctx, job.TenantID)
	if err != nil {
		return orchestrator.Env{}, fmt.Errorf("load tenant config: %w", err)
	}

	var srcCreds tenant.SourceCredentials
	if err := d.vault.DecryptJSON(job.EncryptedSourceCredentials, &srcCreds); err != nil {
		return orchestrator.Env{}, fmt.Errorf("decrypt source credentials: %w", err)
	}
	var dstCreds tenant.DestinationCredentials
	if err := d.vault.DecryptJSON(job.EncryptedDestCredentials, &dstCreds); err != nil {
		return orchestrator.Env{}, fmt.Errorf("decrypt destination credentials: %w", err)
	}

	source, err := d.newSource(srcCreds)
	if err != nil {
		return orchestrator.Env{}, err
	}
	dest, err := d.newDest(dstCreds)
	if err != nil {
		return orchestrator.Env{}, err
	}

	return orchestrator.Env{
		TenantID: t.ID,
		Settings: t.Settings,
		Config:   cfg,
		Source:   source,
		Dest:     dest,
	}, nil
}

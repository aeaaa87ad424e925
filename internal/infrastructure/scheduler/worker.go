package scheduler

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/sync"
)

const (
	defaultPoolSize     = 5
	defaultPollInterval = 5 * time.Second
	defaultStuckCutoff  = 30 * time.Minute
)

// Pool is the fixed worker pool. Each worker pulls and fully executes one
// job at a time; work inside a job stays sequential.
type Pool struct {
	dispatcher *Dispatcher
	jobs       sync.JobRepository
	logger     *zap.Logger

	size         int
	pollInterval time.Duration
	stuckCutoff  time.Duration

	wg gosync.WaitGroup
}

// PoolOption tunes the worker pool.
type PoolOption func(*Pool)

// WithPoolSize sets how many workers run concurrently.
func WithPoolSize(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithPollInterval sets how long an idle worker waits before polling again.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithStuckCutoff sets how old a PROCESSING job must be before the recovery
// sweep returns it to the queue.
func WithStuckCutoff(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.stuckCutoff = d
		}
	}
}

// NewPool constructs a worker pool.
func NewPool(dispatcher *Dispatcher, jobs sync.JobRepository, logger *zap.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		dispatcher:   dispatcher,
		jobs:         jobs,
		logger:       logger,
		size:         defaultPoolSize,
		pollInterval: defaultPollInterval,
		stuckCutoff:  defaultStuckCutoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start runs the recovery sweep and launches the workers. It returns
// immediately; workers stop when ctx is cancelled and Wait returns.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.recoverStuck(ctx); err != nil {
		return err
	}

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// recoverStuck returns jobs stuck in PROCESSING beyond the cutoff to
// PENDING. Runs once at startup, before any worker pulls.
func (p *Pool) recoverStuck(ctx context.Context) error {
	reset, err := p.jobs.ResetStuck(ctx, time.Now().Add(-p.stuckCutoff))
	if err != nil {
		return err
	}
	if reset > 0 {
		p.logger.Warn("reset stuck jobs", zap.Int64("count", reset))
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker", id))

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopping")
			return
		default:
		}

		err := p.dispatcher.DispatchNext(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrQueueEmpty):
			if sleepErr := sleepContext(ctx, p.pollInterval); sleepErr != nil {
				return
			}
		case errors.Is(err, context.Canceled):
			return
		default:
			// The failure is already recorded on the job; pause briefly so a
			// persistent infrastructure fault cannot spin the worker.
			logger.Error("dispatch failed", zap.Error(err))
			if sleepErr := sleepContext(ctx, p.pollInterval); sleepErr != nil {
				return
			}
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

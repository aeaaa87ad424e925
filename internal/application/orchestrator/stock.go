package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/application/transform"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// StockOrchestrator updates stock quantities only. Same shape as the product
// sync but without dependency resolution: variations whose SKU does not
// exist at the destination yet are skipped, a product sync creates them.
type StockOrchestrator struct {
	states sync.StateRepository
	logs   sync.LogWriter
	logger *zap.Logger
}

// NewStockOrchestrator constructs a StockOrchestrator.
func NewStockOrchestrator(states sync.StateRepository, logs sync.LogWriter, logger *zap.Logger) *StockOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockOrchestrator{states: states, logs: logs, logger: logger}
}

// Run executes one stock sync. Delta-bounded by the stock watermark, full
// fetch on the first ever run.
func (o *StockOrchestrator) Run(ctx context.Context, env Env) (*sync.Result, error) {
	start := time.Now()
	result := sync.NewResult()
	defer func() {
		if err := o.logs.Flush(ctx); err != nil {
			o.logger.Warn("log flush failed", zap.Error(err))
		}
	}()

	state, err := touchState(ctx, o.states, env.TenantID, sync.SyncTypeStock, start)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if state.HasWatermark() {
		entries, err = env.Source.FetchDelta(ctx, sourceapi.ResourceVariations, *state.LastSucceededAt, []string{"stock"})
	} else {
		entries, err = env.Source.FetchAll(ctx, sourceapi.ResourceVariations, sourceapi.Filters{"with": "stock"})
	}
	if err != nil {
		return nil, err
	}

	for offset := 0; offset < len(entries); offset += processBatchSize {
		end := offset + processBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		o.processBatch(ctx, env, entries[offset:end], result)
	}

	state.RecordSuccess(start)
	if err := o.states.Save(ctx, state); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	o.logger.Info("stock sync finished",
		zap.String("tenant_id", env.TenantID.String()),
		zap.Int("processed", result.ItemsProcessed),
		zap.Int("updated", result.ItemsUpdated),
		zap.Int("failed", result.ItemsFailed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (o *StockOrchestrator) processBatch(ctx context.Context, env Env, entries []json.RawMessage, result *sync.Result) {
	updates := make([]destination.StockUpdate, 0, len(entries))
	byNumber := make(map[string]sourceapi.Variation, len(entries))

	for i, raw := range entries {
		var v sourceapi.Variation
		if err := json.Unmarshal(raw, &v); err != nil {
			result.RecordFailure(fmt.Sprintf("variation entry %d: %v", i, err))
			continue
		}
		if v.Number == "" {
			result.RecordFailure(fmt.Sprintf("variation %d: no number", v.ID))
			continue
		}

		existingID, err := env.Dest.ProductIDBySKU(ctx, v.Number)
		if err != nil {
			o.recordItemFailure(ctx, env, result, v, fmt.Errorf("sku lookup: %w", err))
			continue
		}
		if existingID == "" {
			result.RecordSkipped()
			o.appendLog(ctx, env, v, sync.LogActionSkip, true, "no destination product")
			continue
		}

		updates = append(updates, destination.StockUpdate{
			SKU:   v.Number,
			Stock: transform.SumStock(v.Stock),
		})
		byNumber[v.Number] = v
	}
	if len(updates) == 0 {
		return
	}

	results, err := env.Dest.UpdateStockBatch(ctx, updates)
	if err != nil {
		for _, u := range updates {
			o.recordItemFailure(ctx, env, result, byNumber[u.SKU], err)
		}
		return
	}
	for i, res := range results {
		v := byNumber[updates[i].SKU]
		if !res.Success {
			o.recordItemFailure(ctx, env, result, v, fmt.Errorf("destination rejected stock update: %s", res.Error))
			continue
		}
		result.RecordUpdated()
		o.appendLog(ctx, env, v, sync.LogActionUpdate, true, "")
	}
}

func (o *StockOrchestrator) recordItemFailure(ctx context.Context, env Env, result *sync.Result, v sourceapi.Variation, err error) {
	result.RecordFailure(fmt.Sprintf("variation %d (%s): %v", v.ID, v.Number, err))
	o.appendLog(ctx, env, v, sync.LogActionError, false, err.Error())
}

func (o *StockOrchestrator) appendLog(ctx context.Context, env Env, v sourceapi.Variation, action sync.LogAction, success bool, details string) {
	entry := sync.NewLogEntry(env.TenantID, "stock", formatID(v.ID), action, success, details)
	if err := o.logs.Append(ctx, entry); err != nil {
		o.logger.Warn("audit log append failed", zap.Error(err))
	}
}

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/application/resolver"
	"github.com/syncbridge/backend/internal/application/transform"
	"github.com/syncbridge/backend/internal/domain/mapping"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

const entityTypeProduct = "product"

// ProductOrchestrator syncs the product catalog. It selects FULL or DELTA
// per job, refreshes stale config first, resolves each variation's auxiliary
// entities, transforms and writes products by their SKU.
type ProductOrchestrator struct {
	config       *ConfigOrchestrator
	mappings     mapping.Store
	states       sync.StateRepository
	logs         sync.LogWriter
	catalogCache *cache.CatalogCache
	transformer  *transform.Transformer
	logger       *zap.Logger
}

// NewProductOrchestrator constructs a ProductOrchestrator.
func NewProductOrchestrator(config *ConfigOrchestrator, mappings mapping.Store, states sync.StateRepository, logs sync.LogWriter, catalogCache *cache.CatalogCache, logger *zap.Logger) *ProductOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductOrchestrator{
		config:       config,
		mappings:     mappings,
		states:       states,
		logs:         logs,
		catalogCache: catalogCache,
		transformer:  transform.NewTransformer(logger),
		logger:       logger,
	}
}

// Run executes one product sync job. The product watermark advances only
// when the whole loop completes; per-item failures are counted and logged
// without halting it.
func (o *ProductOrchestrator) Run(ctx context.Context, env Env, job *sync.Job) (*sync.Result, error) {
	start := time.Now()
	result := sync.NewResult()
	defer func() {
		if err := o.logs.Flush(ctx); err != nil {
			o.logger.Warn("log flush failed", zap.Error(err))
		}
	}()

	if err := o.refreshStaleConfig(ctx, env, result); err != nil {
		return nil, err
	}

	state, err := touchState(ctx, o.states, env.TenantID, job.SyncType.WatermarkKey(), start)
	if err != nil {
		return nil, err
	}

	// A delta job without a watermark degrades to a full fetch, so the
	// strategy is decided here, before the state records this attempt.
	fullFetch := job.SyncType != sync.SyncTypeProductDelta || !state.HasWatermark()

	entries, err := o.fetchVariations(ctx, env, job.SyncType, state)
	if err != nil {
		return nil, err
	}

	snap, err := o.catalogCache.Snapshot(ctx, env.TenantID)
	if err != nil {
		return nil, err
	}

	opts, err := buildTransformOptions(env)
	if err != nil {
		return nil, err
	}
	resolvers := resolver.NewSet(o.mappings, env.Dest, resolver.Config{
		LanguagePreference: env.Settings.LanguagePreference,
		RootCategoryID:     env.Config.GetString(tenant.ConfigKeyDestRootCategoryID, ""),
		MediaFolderName:    env.Config.GetString(tenant.ConfigKeyMediaFolderName, ""),
	}, o.logger)

	skipExisting := env.Settings.SkipExisting || job.SkipExisting()

	for offset := 0; offset < len(entries); offset += processBatchSize {
		end := offset + processBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		o.processBatch(ctx, env, entries[offset:end], snap, resolvers, opts, skipExisting, result)
	}

	// Only a full fetch enumerates everything the source still has, so only
	// then can absence be read as removal.
	if fullFetch {
		if err := resolvers.ReconcileOrphans(ctx, env.TenantID); err != nil {
			return nil, err
		}
	}

	state.RecordSuccess(start)
	if err := o.states.Save(ctx, state); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	o.logger.Info("product sync finished",
		zap.String("tenant_id", env.TenantID.String()),
		zap.String("sync_type", string(job.SyncType)),
		zap.Int("processed", result.ItemsProcessed),
		zap.Int("created", result.ItemsCreated),
		zap.Int("updated", result.ItemsUpdated),
		zap.Int("failed", result.ItemsFailed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// refreshStaleConfig runs a nested config sync when the tenant's replica is
// older than the configured staleness threshold.
func (o *ProductOrchestrator) refreshStaleConfig(ctx context.Context, env Env, result *sync.Result) error {
	state, err := o.states.Find(ctx, env.TenantID, sync.SyncTypeConfig)
	if err != nil && !isStateNotFound(err) {
		return err
	}
	if !state.IsStale(env.Settings.ConfigStaleness) {
		return nil
	}

	o.logger.Info("config replica stale, refreshing before product sync",
		zap.String("tenant_id", env.TenantID.String()))
	nested, err := o.config.Run(ctx, env)
	if err != nil {
		return fmt.Errorf("nested config sync: %w", err)
	}
	result.Merge(nested)
	return nil
}

// fetchVariations selects the fetch strategy. A delta sync without a prior
// watermark degrades to a full fetch.
func (o *ProductOrchestrator) fetchVariations(ctx context.Context, env Env, syncType sync.SyncType, state *sync.State) ([]json.RawMessage, error) {
	if syncType == sync.SyncTypeProductDelta && state.HasWatermark() {
		return env.Source.FetchDelta(ctx, sourceapi.ResourceVariations, *state.LastSucceededAt, sourceapi.VariationRelations)
	}
	if syncType == sync.SyncTypeProductDelta {
		o.logger.Info("no product watermark, falling back to full sync",
			zap.String("tenant_id", env.TenantID.String()))
	}
	return env.Source.FetchAll(ctx, sourceapi.ResourceVariations, sourceapi.Filters{
		"with": strings.Join(sourceapi.VariationRelations, ","),
	})
}

func (o *ProductOrchestrator) processBatch(ctx context.Context, env Env, entries []json.RawMessage, snap *cache.Snapshot, resolvers *resolver.Set, opts transform.Options, skipExisting bool, result *sync.Result) {
	variations := make([]sourceapi.Variation, 0, len(entries))
	raws := make([]json.RawMessage, 0, len(entries))
	for i, raw := range entries {
		var v sourceapi.Variation
		if err := json.Unmarshal(raw, &v); err != nil {
			result.RecordFailure(fmt.Sprintf("variation entry %d: %v", i, err))
			continue
		}
		variations = append(variations, v)
		raws = append(raws, raw)
	}

	batch, err := resolvers.ResolveBatch(ctx, env.TenantID, snap, variations)
	if err != nil {
		// Store failures block the batch, not the run; every variation in it
		// counts as failed.
		for _, v := range variations {
			o.recordItemFailure(ctx, env, result, v, fmt.Errorf("resolve dependencies: %w", err))
		}
		return
	}

	for i, v := range variations {
		o.processVariation(ctx, env, v, raws[i], batch, opts, skipExisting, result)
	}
}

func (o *ProductOrchestrator) processVariation(ctx context.Context, env Env, v sourceapi.Variation, raw json.RawMessage, batch *resolver.Batch, opts transform.Options, skipExisting bool, result *sync.Result) {
	product, err := o.transformer.Transform(v, raw, batch.RefsFor(v), opts)
	if err != nil {
		o.recordItemFailure(ctx, env, result, v, err)
		return
	}

	existingID, err := env.Dest.ProductIDBySKU(ctx, product.SKU)
	if err != nil {
		o.recordItemFailure(ctx, env, result, v, fmt.Errorf("sku lookup: %w", err))
		return
	}

	switch {
	case existingID == "":
		res, err := env.Dest.CreateProduct(ctx, product)
		if err == nil && !res.Success {
			err = fmt.Errorf("destination rejected create: %s", res.Error)
		}
		if err != nil {
			o.recordItemFailure(ctx, env, result, v, err)
			return
		}
		result.RecordCreated()
		o.appendLog(ctx, env, v, sync.LogActionCreate, true, "")

	case skipExisting:
		result.RecordSkipped()
		o.appendLog(ctx, env, v, sync.LogActionSkip, true, "exists, create-only sync")

	default:
		res, err := env.Dest.UpdateProduct(ctx, existingID, product)
		if err == nil && !res.Success {
			err = fmt.Errorf("destination rejected update: %s", res.Error)
		}
		if err != nil {
			o.recordItemFailure(ctx, env, result, v, err)
			return
		}
		result.RecordUpdated()
		o.appendLog(ctx, env, v, sync.LogActionUpdate, true, "")
	}
}

func (o *ProductOrchestrator) recordItemFailure(ctx context.Context, env Env, result *sync.Result, v sourceapi.Variation, err error) {
	msg := fmt.Sprintf("variation %d (%s): %v", v.ID, v.Number, err)
	result.RecordFailure(msg)
	o.appendLog(ctx, env, v, sync.LogActionError, false, err.Error())
}

func (o *ProductOrchestrator) appendLog(ctx context.Context, env Env, v sourceapi.Variation, action sync.LogAction, success bool, details string) {
	entry := sync.NewLogEntry(env.TenantID, entityTypeProduct, formatID(v.ID), action, success, details)
	if err := o.logs.Append(ctx, entry); err != nil {
		o.logger.Warn("audit log append failed", zap.Error(err))
	}
}

// buildTransformOptions assembles per-run transform settings from tenant
// settings and typed config entries.
func buildTransformOptions(env Env) (transform.Options, error) {
	opts := transform.Options{
		LanguagePreference: env.Settings.LanguagePreference,
		DefaultPriceTypeID: int64(env.Config.GetNumber(tenant.ConfigKeyDefaultPriceTypeID, 0)),
		RRPPriceTypeID:     int64(env.Config.GetNumber(tenant.ConfigKeyRRPPriceTypeID, 0)),
		TaxRate:            decimal.NewFromFloat(env.Config.GetNumber(tenant.ConfigKeyDestTaxRate, 0)),
		TaxID:              env.Config.GetString(tenant.ConfigKeyDestTaxID, ""),
		CurrencyID:         env.Config.GetString(tenant.ConfigKeyDestCurrencyID, ""),
		SalesChannelID:     env.Config.GetString(tenant.ConfigKeyDestSalesChannelID, ""),
	}

	var specs []transform.RuleSpec
	if err := env.Config.GetJSON(tenant.ConfigKeyFieldRules, &specs); err == nil {
		rules, err := transform.CompileRules(specs)
		if err != nil {
			return transform.Options{}, fmt.Errorf("field rules: %w", err)
		}
		opts.Rules = rules
	}
	return opts, nil
}

func isStateNotFound(err error) bool {
	return errors.Is(err, sync.ErrStateNotFound)
}

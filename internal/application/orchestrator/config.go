package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/cache"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// ConfigOrchestrator refreshes the local replica of source configuration
// data. Each kind is fetched and fully rebuilt in sequence; name maps are
// rebuilt from the source detail records, never merged.
type ConfigOrchestrator struct {
	replica      catalog.CacheRepository
	states       sync.StateRepository
	catalogCache *cache.CatalogCache
	logger       *zap.Logger
}

// NewConfigOrchestrator constructs a ConfigOrchestrator.
func NewConfigOrchestrator(replica catalog.CacheRepository, states sync.StateRepository, catalogCache *cache.CatalogCache, logger *zap.Logger) *ConfigOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigOrchestrator{
		replica:      replica,
		states:       states,
		catalogCache: catalogCache,
		logger:       logger,
	}
}

// Run executes one config sync. Fetch failures abort the run; individual
// records that fail to decode are counted and skipped. On completion the
// CONFIG watermark advances and the in-memory snapshot is invalidated.
func (o *ConfigOrchestrator) Run(ctx context.Context, env Env) (*sync.Result, error) {
	start := time.Now()
	result := sync.NewResult()

	state, err := touchState(ctx, o.states, env.TenantID, sync.SyncTypeConfig, start)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func(context.Context, Env, *sync.Result) error
	}{
		{"categories", o.syncCategories},
		{"attributes", o.syncAttributes},
		{"sales prices", o.syncSalesPrices},
		{"manufacturers", o.syncManufacturers},
		{"units", o.syncUnits},
		{"properties", o.syncProperties},
	}
	for _, step := range steps {
		processedBefore, failedBefore := result.ItemsProcessed, result.ItemsFailed
		if err := step.run(ctx, env, result); err != nil {
			return nil, fmt.Errorf("config sync %s: %w", step.name, err)
		}
		processed := result.ItemsProcessed - processedBefore
		failed := result.ItemsFailed - failedBefore
		result.RecordKind(step.name, processed, failed)
		o.logger.Info("config kind synced",
			zap.String("tenant_id", env.TenantID.String()),
			zap.String("kind", step.name),
			zap.Int("synced", processed-failed),
			zap.Int("failed", failed))
	}

	state.RecordSuccess(start)
	if err := o.states.Save(ctx, state); err != nil {
		return nil, err
	}
	o.catalogCache.Invalidate(env.TenantID)

	result.Duration = time.Since(start)
	o.logger.Info("config sync finished",
		zap.String("tenant_id", env.TenantID.String()),
		zap.Int("processed", result.ItemsProcessed),
		zap.Int("failed", result.ItemsFailed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// decodeEach unmarshals entries one at a time so a single malformed record
// costs one failure counter, not the whole kind.
func decodeEach[T any](entries []json.RawMessage, result *sync.Result, kind string) []T {
	out := make([]T, 0, len(entries))
	for i, raw := range entries {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			result.RecordFailure(fmt.Sprintf("%s entry %d: %v", kind, i, err))
			continue
		}
		out = append(out, v)
	}
	return out
}

func (o *ConfigOrchestrator) syncCategories(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceCategories, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedCategory, 0, len(entries))
	for _, c := range decodeEach[sourceapi.Category](entries, result, "category") {
		rows = append(rows, catalog.CachedCategory{
			ID:             uuid.New(),
			TenantID:       env.TenantID,
			SourceID:       formatID(c.ID),
			ParentSourceID: optionalID(c.ParentID),
			Names:          catalog.BuildNameMap(c.Translations()),
			Level:          c.Level,
			UpdatedAt:      time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceCategories(ctx, env.TenantID, rows)
}

func (o *ConfigOrchestrator) syncAttributes(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceAttributes, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedAttribute, 0, len(entries))
	for _, a := range decodeEach[sourceapi.Attribute](entries, result, "attribute") {
		values := make([]catalog.CachedAttributeValue, 0, len(a.Values))
		for _, v := range a.Values {
			values = append(values, catalog.CachedAttributeValue{
				SourceID: formatID(v.ID),
				Names:    catalog.BuildNameMap(v.Names),
				Position: v.Position,
			})
		}
		rows = append(rows, catalog.CachedAttribute{
			ID:        uuid.New(),
			TenantID:  env.TenantID,
			SourceID:  formatID(a.ID),
			Names:     catalog.BuildNameMap(a.Names),
			Values:    values,
			UpdatedAt: time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceAttributes(ctx, env.TenantID, rows)
}

func (o *ConfigOrchestrator) syncSalesPrices(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceSalesPrices, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedSalesPrice, 0, len(entries))
	for _, p := range decodeEach[sourceapi.SalesPrice](entries, result, "sales price") {
		rows = append(rows, catalog.CachedSalesPrice{
			ID:         uuid.New(),
			TenantID:   env.TenantID,
			SourceID:   formatID(p.ID),
			Names:      catalog.BuildNameMap(p.Names),
			Type:       p.Type,
			Currency:   p.Currency,
			MinimumQty: p.MinimumQuantity,
			UpdatedAt:  time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceSalesPrices(ctx, env.TenantID, rows)
}

func (o *ConfigOrchestrator) syncManufacturers(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceManufacturers, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedManufacturer, 0, len(entries))
	for _, m := range decodeEach[sourceapi.Manufacturer](entries, result, "manufacturer") {
		rows = append(rows, catalog.CachedManufacturer{
			ID:        uuid.New(),
			TenantID:  env.TenantID,
			SourceID:  formatID(m.ID),
			Name:      m.Name,
			LogoURL:   m.LogoURL,
			UpdatedAt: time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceManufacturers(ctx, env.TenantID, rows)
}

func (o *ConfigOrchestrator) syncUnits(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceUnits, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedUnit, 0, len(entries))
	for _, u := range decodeEach[sourceapi.Unit](entries, result, "unit") {
		rows = append(rows, catalog.CachedUnit{
			ID:        uuid.New(),
			TenantID:  env.TenantID,
			SourceID:  formatID(u.ID),
			UnitCode:  u.UnitOfMeasurement,
			Names:     catalog.BuildNameMap(u.Names),
			UpdatedAt: time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceUnits(ctx, env.TenantID, rows)
}

func (o *ConfigOrchestrator) syncProperties(ctx context.Context, env Env, result *sync.Result) error {
	entries, err := env.Source.FetchAll(ctx, sourceapi.ResourceProperties, nil)
	if err != nil {
		return err
	}

	rows := make([]catalog.CachedProperty, 0, len(entries))
	for _, p := range decodeEach[sourceapi.Property](entries, result, "property") {
		selections := make([]catalog.CachedPropertySelection, 0, len(p.Selections))
		for _, s := range p.Selections {
			selections = append(selections, catalog.CachedPropertySelection{
				SourceID: formatID(s.ID),
				Names:    catalog.BuildNameMap(s.Names),
				Position: s.Position,
			})
		}
		rows = append(rows, catalog.CachedProperty{
			ID:         uuid.New(),
			TenantID:   env.TenantID,
			SourceID:   formatID(p.ID),
			Names:      catalog.BuildNameMap(p.Names),
			CastType:   p.Cast,
			Selections: selections,
			UpdatedAt:  time.Now(),
		})
		result.RecordUpdated()
	}
	return o.replica.ReplaceProperties(ctx, env.TenantID, rows)
}

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/catalog"
)

// Constants for in-memory cache configuration
const (
	defaultSnapshotTTL     = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// Snapshot is one tenant's catalog replica loaded into memory for fast
// lookups during a sync run. All maps are keyed by source ID.
type Snapshot struct {
	Categories    map[string]catalog.CachedCategory
	Manufacturers map[string]catalog.CachedManufacturer
	Units         map[string]catalog.CachedUnit
	Attributes    map[string]catalog.CachedAttribute
	Properties    map[string]catalog.CachedProperty

	// SalesPrices keeps the repository order so callers can fall back to
	// the first definition when no explicit default is configured.
	SalesPrices []catalog.CachedSalesPrice

	LoadedAt time.Time
}

// SalesPrice returns the sales price definition with the given source ID.
func (s *Snapshot) SalesPrice(sourceID string) (*catalog.CachedSalesPrice, bool) {
	for i := range s.SalesPrices {
		if s.SalesPrices[i].SourceID == sourceID {
			return &s.SalesPrices[i], true
		}
	}
	return nil, false
}

// CatalogCache is a per-tenant read-through TTL cache in front of the
// catalog replica tables. One snapshot serves many variations within a
// run, so a product sync touches the database once per tenant instead of
// once per lookup.
type CatalogCache struct {
	repo      catalog.CacheRepository
	snapshots sync.Map // map[uuid.UUID]*cacheEntry[Snapshot]
	ttl       time.Duration
	logger    *zap.Logger
	stopCh    chan struct{}
	stopped   int32

	// loadMu serializes snapshot loads so concurrent misses for the same
	// tenant do not each hit the database.
	loadMu sync.Mutex

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry[T]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// CatalogCacheOption is a functional option for configuring the cache
type CatalogCacheOption func(*CatalogCache)

// WithSnapshotTTL sets how long a tenant snapshot stays valid.
func WithSnapshotTTL(ttl time.Duration) CatalogCacheOption {
	return func(c *CatalogCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCatalogCacheLogger sets the logger for the cache
func WithCatalogCacheLogger(logger *zap.Logger) CatalogCacheOption {
	return func(c *CatalogCache) {
		c.logger = logger
	}
}

// NewCatalogCache creates a new per-tenant catalog snapshot cache.
func NewCatalogCache(repo catalog.CacheRepository, opts ...CatalogCacheOption) *CatalogCache {
	cache := &CatalogCache{
		repo:   repo,
		ttl:    defaultSnapshotTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Snapshot returns the tenant's catalog snapshot, loading it from the
// repository on a miss or after expiry.
func (c *CatalogCache) Snapshot(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error) {
	if value, ok := c.snapshots.Load(tenantID); ok {
		entry := value.(*cacheEntry[Snapshot])
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, nil
		}
		c.snapshots.Delete(tenantID)
	}

	atomic.AddInt64(&c.misses, 1)

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// Another goroutine may have loaded while we waited for the lock.
	if value, ok := c.snapshots.Load(tenantID); ok {
		entry := value.(*cacheEntry[Snapshot])
		if !entry.isExpired() {
			return entry.value, nil
		}
	}

	snapshot, err := c.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c.snapshots.Store(tenantID, &cacheEntry[Snapshot]{
		value:     snapshot,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.logger.Debug("Loaded catalog snapshot",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("categories", len(snapshot.Categories)),
		zap.Int("manufacturers", len(snapshot.Manufacturers)),
		zap.Int("units", len(snapshot.Units)),
		zap.Int("attributes", len(snapshot.Attributes)),
		zap.Int("properties", len(snapshot.Properties)),
		zap.Int("sales_prices", len(snapshot.SalesPrices)))
	return snapshot, nil
}

// Invalidate drops the tenant's snapshot so the next access reloads it.
// The config orchestrator calls this after rebuilding the replica tables.
func (c *CatalogCache) Invalidate(tenantID uuid.UUID) {
	c.snapshots.Delete(tenantID)
	c.logger.Debug("Invalidated catalog snapshot", zap.String("tenant_id", tenantID.String()))
}

// Clear drops every tenant snapshot.
func (c *CatalogCache) Clear() {
	c.snapshots.Range(func(key, _ any) bool {
		c.snapshots.Delete(key)
		return true
	})
}

// Close stops the background cleanup goroutine.
func (c *CatalogCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *CatalogCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *CatalogCache) load(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error) {
	categories, err := c.repo.AllCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	manufacturers, err := c.repo.AllManufacturers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	units, err := c.repo.AllUnits(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	attributes, err := c.repo.AllAttributes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	properties, err := c.repo.AllProperties(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	prices, err := c.repo.AllSalesPrices(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Categories:    make(map[string]catalog.CachedCategory, len(categories)),
		Manufacturers: make(map[string]catalog.CachedManufacturer, len(manufacturers)),
		Units:         make(map[string]catalog.CachedUnit, len(units)),
		Attributes:    make(map[string]catalog.CachedAttribute, len(attributes)),
		Properties:    make(map[string]catalog.CachedProperty, len(properties)),
		SalesPrices:   prices,
		LoadedAt:      time.Now(),
	}
	for _, cat := range categories {
		snapshot.Categories[cat.SourceID] = cat
	}
	for _, m := range manufacturers {
		snapshot.Manufacturers[m.SourceID] = m
	}
	for _, u := range units {
		snapshot.Units[u.SourceID] = u
	}
	for _, a := range attributes {
		snapshot.Attributes[a.SourceID] = a
	}
	for _, p := range properties {
		snapshot.Properties[p.SourceID] = p
	}
	return snapshot, nil
}

// cleanupExpired periodically removes expired snapshots from the cache
func (c *CatalogCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired snapshots
func (c *CatalogCache) doCleanup() {
	var removed int
	c.snapshots.Range(func(key, value any) bool {
		entry := value.(*cacheEntry[Snapshot])
		if entry.isExpired() {
			c.snapshots.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired catalog snapshots", zap.Int("removed", removed))
	}
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

func setupCatalogCacheTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.CachedCategoryModel{},
		&models.CachedManufacturerModel{},
		&models.CachedUnitModel{},
		&models.CachedAttributeModel{},
		&models.CachedPropertyModel{},
		&models.CachedSalesPriceModel{},
	)
	require.NoError(t, err)

	return db
}

func TestGormCatalogCacheRepository_ReplaceIsFullRebuild(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first := []catalog.CachedCategory{
		{ID: uuid.New(), TenantID: tenantID, SourceID: "16", Names: catalog.NameMap{"en": "Shoes"}, UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "17", Names: catalog.NameMap{"en": "Shirts"}, UpdatedAt: time.Now()},
	}
	require.NoError(t, repo.ReplaceCategories(ctx, tenantID, first))

	// The second sync no longer sees category 17.
	second := []catalog.CachedCategory{
		{ID: uuid.New(), TenantID: tenantID, SourceID: "16", Names: catalog.NameMap{"en": "Footwear"}, UpdatedAt: time.Now()},
	}
	require.NoError(t, repo.ReplaceCategories(ctx, tenantID, second))

	all, err := repo.AllCategories(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "16", all[0].SourceID)
	assert.Equal(t, "Footwear", all[0].Names["en"])
}

func TestGormCatalogCacheRepository_ReplaceDoesNotTouchOtherTenants(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, repo.ReplaceUnits(ctx, tenantA, []catalog.CachedUnit{
		{ID: uuid.New(), TenantID: tenantA, SourceID: "1", UnitCode: "C62", UpdatedAt: time.Now()},
	}))
	require.NoError(t, repo.ReplaceUnits(ctx, tenantB, []catalog.CachedUnit{
		{ID: uuid.New(), TenantID: tenantB, SourceID: "1", UnitCode: "KGM", UpdatedAt: time.Now()},
	}))

	require.NoError(t, repo.ReplaceUnits(ctx, tenantA, nil))

	unitsA, err := repo.AllUnits(ctx, tenantA)
	require.NoError(t, err)
	assert.Empty(t, unitsA)

	unitsB, err := repo.AllUnits(ctx, tenantB)
	require.NoError(t, err)
	require.Len(t, unitsB, 1)
	assert.Equal(t, "KGM", unitsB[0].UnitCode)
}

func TestGormCatalogCacheRepository_CategoriesOrderedByLevel(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.ReplaceCategories(ctx, tenantID, []catalog.CachedCategory{
		{ID: uuid.New(), TenantID: tenantID, SourceID: "30", ParentSourceID: "20", Level: 2, UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "10", Level: 0, UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "20", ParentSourceID: "10", Level: 1, UpdatedAt: time.Now()},
	}))

	all, err := repo.AllCategories(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "10", all[0].SourceID)
	assert.Equal(t, "20", all[1].SourceID)
	assert.Equal(t, "30", all[2].SourceID)
}

func TestGormCatalogCacheRepository_AttributeValuesRoundTrip(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	attr := catalog.CachedAttribute{
		ID:       uuid.New(),
		TenantID: tenantID,
		SourceID: "4",
		Names:    catalog.NameMap{"en": "Color", "de": "Farbe"},
		Values: []catalog.CachedAttributeValue{
			{SourceID: "41", Names: catalog.NameMap{"en": "Red"}, Position: 1},
			{SourceID: "42", Names: catalog.NameMap{"en": "Blue"}, Position: 2},
		},
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.ReplaceAttributes(ctx, tenantID, []catalog.CachedAttribute{attr}))

	found, err := repo.FindAttributes(ctx, tenantID, []string{"4"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Farbe", found[0].Names["de"])
	require.Len(t, found[0].Values, 2)

	value, ok := found[0].Value("42")
	require.True(t, ok)
	assert.Equal(t, "Blue", value.Names["en"])
}

func TestGormCatalogCacheRepository_SalesPricesKeepDefinitionOrder(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.ReplaceSalesPrices(ctx, tenantID, []catalog.CachedSalesPrice{
		{ID: uuid.New(), TenantID: tenantID, SourceID: "3", Type: "default", UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "1", Type: "rrp", UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "2", Type: "special", UpdatedAt: time.Now()},
	}))

	all, err := repo.AllSalesPrices(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].SourceID)
	assert.Equal(t, "1", all[1].SourceID)
	assert.Equal(t, "2", all[2].SourceID)
}

func TestGormCatalogCacheRepository_FindSubset(t *testing.T) {
	db := setupCatalogCacheTestDB(t)
	repo := NewGormCatalogCacheRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.ReplaceManufacturers(ctx, tenantID, []catalog.CachedManufacturer{
		{ID: uuid.New(), TenantID: tenantID, SourceID: "12", Name: "Acme", UpdatedAt: time.Now()},
		{ID: uuid.New(), TenantID: tenantID, SourceID: "13", Name: "Globex", UpdatedAt: time.Now()},
	}))

	found, err := repo.FindManufacturers(ctx, tenantID, []string{"13", "99"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Globex", found[0].Name)

	none, err := repo.FindManufacturers(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

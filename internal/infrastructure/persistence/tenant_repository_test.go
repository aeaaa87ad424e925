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

	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

func setupTenantTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.TenantModel{}, &models.TenantConfigModel{})
	require.NoError(t, err)

	return db
}

func TestGormTenantRepository_SaveAndFind(t *testing.T) {
	db := setupTenantTestDB(t)
	repo := NewGormTenantRepository(db)
	ctx := context.Background()

	created, err := tenant.NewTenant("acme", "https://erp.acme.test", "https://shop.acme.test")
	require.NoError(t, err)
	created.Settings.ConfigStaleness = 2 * time.Hour
	created.Settings.LanguagePreference = []string{"de", "en"}
	require.NoError(t, repo.Save(ctx, created))

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", found.Name)
	assert.Equal(t, "https://erp.acme.test", found.SourceEndpoint)
	assert.Equal(t, 2*time.Hour, found.Settings.ConfigStaleness)
	assert.Equal(t, []string{"de", "en"}, found.Settings.LanguagePreference)
	assert.True(t, found.Active)
}

func TestGormTenantRepository_FindByIDNotFound(t *testing.T) {
	db := setupTenantTestDB(t)
	repo := NewGormTenantRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, tenant.ErrNotFound)
}

func TestGormTenantConfigRepository_SetAndLoad(t *testing.T) {
	db := setupTenantTestDB(t)
	repo := NewGormTenantConfigRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.Set(ctx, tenant.NewStringEntry(tenantID, tenant.ConfigKeyDestTaxID, "tax-19")))
	require.NoError(t, repo.Set(ctx, tenant.NewNumberEntry(tenantID, tenant.ConfigKeyDestTaxRate, 19)))
	require.NoError(t, repo.Set(ctx, tenant.NewBooleanEntry(tenantID, "sync.dryRun", true)))

	jsonEntry, err := tenant.NewJSONEntry(tenantID, tenant.ConfigKeyTaxIDTable, map[string]string{"1": "tax-19", "2": "tax-7"})
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, jsonEntry))

	cfg, err := repo.Load(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "tax-19", cfg.GetString(tenant.ConfigKeyDestTaxID, ""))
	assert.Equal(t, float64(19), cfg.GetNumber(tenant.ConfigKeyDestTaxRate, 0))
	assert.True(t, cfg.GetBoolean("sync.dryRun", false))

	var table map[string]string
	require.NoError(t, cfg.GetJSON(tenant.ConfigKeyTaxIDTable, &table))
	assert.Equal(t, "tax-7", table["2"])
}

func TestGormTenantConfigRepository_SetReplacesValue(t *testing.T) {
	db := setupTenantTestDB(t)
	repo := NewGormTenantConfigRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.Set(ctx, tenant.NewStringEntry(tenantID, tenant.ConfigKeyDestCurrencyID, "cur-eur")))
	require.NoError(t, repo.Set(ctx, tenant.NewStringEntry(tenantID, tenant.ConfigKeyDestCurrencyID, "cur-usd")))

	cfg, err := repo.Load(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "cur-usd", cfg.GetString(tenant.ConfigKeyDestCurrencyID, ""))

	var count int64
	require.NoError(t, db.Model(&models.TenantConfigModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormTenantConfigRepository_LoadEmpty(t *testing.T) {
	db := setupTenantTestDB(t)
	repo := NewGormTenantConfigRepository(db)

	cfg, err := repo.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.GetString(tenant.ConfigKeyFrontendURL, "fallback"))
}

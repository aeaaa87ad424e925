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

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

func setupSyncStateTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SyncStateModel{})
	require.NoError(t, err)

	return db
}

func TestGormSyncStateRepository_FindNotFound(t *testing.T) {
	db := setupSyncStateTestDB(t)
	repo := NewGormSyncStateRepository(db)

	_, err := repo.Find(context.Background(), uuid.New(), sync.SyncTypeConfig)
	assert.ErrorIs(t, err, sync.ErrStateNotFound)
}

func TestGormSyncStateRepository_SaveAndFind(t *testing.T) {
	db := setupSyncStateTestDB(t)
	repo := NewGormSyncStateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	state := sync.NewState(tenantID, sync.SyncTypeConfig)
	now := time.Now()
	state.RecordAttempt(now)
	state.RecordSuccess(now)
	require.NoError(t, repo.Save(ctx, state))

	found, err := repo.Find(ctx, tenantID, sync.SyncTypeConfig)
	require.NoError(t, err)
	assert.True(t, found.HasWatermark())
	assert.WithinDuration(t, now, *found.LastSucceededAt, time.Second)
}

func TestGormSyncStateRepository_SaveUpsertsOnIdentity(t *testing.T) {
	db := setupSyncStateTestDB(t)
	repo := NewGormSyncStateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first := sync.NewState(tenantID, sync.SyncTypeProductDelta)
	firstRun := time.Now().Add(-time.Hour)
	first.RecordSuccess(firstRun)
	require.NoError(t, repo.Save(ctx, first))

	// A second state object for the same identity, as written by a
	// concurrent or later job.
	second := sync.NewState(tenantID, sync.SyncTypeProductDelta)
	secondRun := time.Now()
	second.RecordSuccess(secondRun)
	require.NoError(t, repo.Save(ctx, second))

	var count int64
	require.NoError(t, db.Model(&models.SyncStateModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.Find(ctx, tenantID, sync.SyncTypeProductDelta)
	require.NoError(t, err)
	assert.WithinDuration(t, secondRun, *found.LastSucceededAt, time.Second)
}

func TestGormSyncStateRepository_TypesIsolated(t *testing.T) {
	db := setupSyncStateTestDB(t)
	repo := NewGormSyncStateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	configState := sync.NewState(tenantID, sync.SyncTypeConfig)
	configState.RecordSuccess(time.Now())
	require.NoError(t, repo.Save(ctx, configState))

	_, err := repo.Find(ctx, tenantID, sync.SyncTypeStock)
	assert.ErrorIs(t, err, sync.ErrStateNotFound)
}

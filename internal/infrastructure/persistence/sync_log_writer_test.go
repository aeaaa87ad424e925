package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

func setupSyncLogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SyncLogModel{})
	require.NoError(t, err)

	return db
}

func countLogRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.SyncLogModel{}).Count(&count).Error)
	return count
}

func TestBufferedSyncLogWriter_BuffersUntilBatchSize(t *testing.T) {
	db := setupSyncLogTestDB(t)
	writer := NewBufferedSyncLogWriter(db, WithLogBatchSize(3))
	ctx := context.Background()
	tenantID := uuid.New()

	for i := 0; i < 2; i++ {
		entry := sync.NewLogEntry(tenantID, "product", fmt.Sprintf("sku-%d", i), sync.LogActionCreate, true, "")
		require.NoError(t, writer.Append(ctx, entry))
	}

	assert.Equal(t, int64(0), countLogRows(t, db))
	assert.Equal(t, 2, writer.Buffered())

	// Third append crosses the threshold and flushes.
	entry := sync.NewLogEntry(tenantID, "product", "sku-2", sync.LogActionUpdate, true, "")
	require.NoError(t, writer.Append(ctx, entry))

	assert.Equal(t, int64(3), countLogRows(t, db))
	assert.Equal(t, 0, writer.Buffered())
}

func TestBufferedSyncLogWriter_FlushWritesTail(t *testing.T) {
	db := setupSyncLogTestDB(t)
	writer := NewBufferedSyncLogWriter(db, WithLogBatchSize(10))
	ctx := context.Background()
	tenantID := uuid.New()

	entry := sync.NewLogEntry(tenantID, "category", "16", sync.LogActionError, false, "name resolution failed")
	require.NoError(t, writer.Append(ctx, entry))
	require.NoError(t, writer.Flush(ctx))

	assert.Equal(t, int64(1), countLogRows(t, db))

	var row models.SyncLogModel
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, sync.LogActionError, row.Action)
	assert.False(t, row.Success)
	assert.Equal(t, "name resolution failed", row.Details)
}

func TestBufferedSyncLogWriter_FlushOnEmptyBufferIsNoop(t *testing.T) {
	db := setupSyncLogTestDB(t)
	writer := NewBufferedSyncLogWriter(db)

	require.NoError(t, writer.Flush(context.Background()))
	assert.Equal(t, int64(0), countLogRows(t, db))
}

package persistence

import (
	"context"
	gosync "sync"

	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/sync"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// defaultLogBatchSize is the buffer threshold that triggers an automatic
// flush of audit rows.
const defaultLogBatchSize = 50

// BufferedSyncLogWriter implements sync.LogWriter with write batching. Audit
// rows are buffered in memory and written in one INSERT per batch; callers
// must Flush at the end of a run to persist the tail.
type BufferedSyncLogWriter struct {
	db        *gorm.DB
	batchSize int

	mu     gosync.Mutex
	buffer []*models.SyncLogModel
}

// BufferedSyncLogWriterOption configures the writer.
type BufferedSyncLogWriterOption func(*BufferedSyncLogWriter)

// WithLogBatchSize overrides the flush threshold.
func WithLogBatchSize(size int) BufferedSyncLogWriterOption {
	return func(w *BufferedSyncLogWriter) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewBufferedSyncLogWriter creates a buffered audit log writer.
func NewBufferedSyncLogWriter(db *gorm.DB, opts ...BufferedSyncLogWriterOption) *BufferedSyncLogWriter {
	w := &BufferedSyncLogWriter{
		db:        db,
		batchSize: defaultLogBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.buffer = make([]*models.SyncLogModel, 0, w.batchSize)
	return w
}

// Append buffers one entry and flushes when the buffer reaches the batch size.
func (w *BufferedSyncLogWriter) Append(ctx context.Context, entry *sync.LogEntry) error {
	model := &models.SyncLogModel{}
	model.FromDomain(entry)

	w.mu.Lock()
	w.buffer = append(w.buffer, model)
	if len(w.buffer) < w.batchSize {
		w.mu.Unlock()
		return nil
	}
	batch := w.takeLocked()
	w.mu.Unlock()

	return w.write(ctx, batch)
}

// Flush writes any buffered entries.
func (w *BufferedSyncLogWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.takeLocked()
	w.mu.Unlock()

	return w.write(ctx, batch)
}

// Buffered returns the number of entries waiting for a flush.
func (w *BufferedSyncLogWriter) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

func (w *BufferedSyncLogWriter) takeLocked() []*models.SyncLogModel {
	batch := w.buffer
	w.buffer = make([]*models.SyncLogModel, 0, w.batchSize)
	return batch
}

func (w *BufferedSyncLogWriter) write(ctx context.Context, batch []*models.SyncLogModel) error {
	if len(batch) == 0 {
		return nil
	}
	if err := w.db.WithContext(ctx).CreateInBatches(batch, w.batchSize).Error; err != nil {
		// Put the batch back so a later flush can retry.
		w.mu.Lock()
		w.buffer = append(batch, w.buffer...)
		w.mu.Unlock()
		return err
	}
	return nil
}

// Ensure BufferedSyncLogWriter implements sync.LogWriter
var _ sync.LogWriter = (*BufferedSyncLogWriter)(nil)

// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQueueStatsProvider implements QueueStatsProvider using GORM.
// It queries the sync_jobs table directly for aggregated queue depths.
type GormQueueStatsProvider struct {
	db *gorm.DB
}

// NewGormQueueStatsProvider creates a new GormQueueStatsProvider.
func NewGormQueueStatsProvider(db *gorm.DB) *GormQueueStatsProvider {
	return &GormQueueStatsProvider{db: db}
}

// CountJobsByStatus returns the number of jobs per status for a tenant.
func (p *GormQueueStatsProvider) CountJobsByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	type result struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("sync_jobs").
		Select("status, COUNT(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Status] = r.Count
	}

	return m, nil
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all active tenant IDs.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("active = ?", true).
		Find(&ids).Error

	return ids, err
}

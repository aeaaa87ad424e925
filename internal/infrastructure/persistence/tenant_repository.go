package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/syncbridge/backend/internal/domain/tenant"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// GormTenantRepository implements tenant.Repository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	model := models.TenantModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormTenantRepository implements tenant.Repository
var _ tenant.Repository = (*GormTenantRepository)(nil)

// ---------------------------------------------------------------------------
// Tenant configuration
// ---------------------------------------------------------------------------

// GormTenantConfigRepository implements tenant.ConfigRepository using GORM
type GormTenantConfigRepository struct {
	db *gorm.DB
}

// NewGormTenantConfigRepository creates a new GormTenantConfigRepository
func NewGormTenantConfigRepository(db *gorm.DB) *GormTenantConfigRepository {
	return &GormTenantConfigRepository{db: db}
}

// Load returns all settings for a tenant
func (r *GormTenantConfigRepository) Load(ctx context.Context, tenantID uuid.UUID) (*tenant.Config, error) {
	var configModels []models.TenantConfigModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	entries := make([]tenant.ConfigEntry, len(configModels))
	for i := range configModels {
		entries[i] = configModels[i].ToDomain()
	}
	return tenant.NewConfig(tenantID, entries), nil
}

// Set creates or replaces one setting
func (r *GormTenantConfigRepository) Set(ctx context.Context, entry tenant.ConfigEntry) error {
	model := &models.TenantConfigModel{}
	model.FromDomain(entry)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"value_type",
			"raw_value",
			"updated_at",
		}),
	}).Create(model).Error
}

// Ensure GormTenantConfigRepository implements tenant.ConfigRepository
var _ tenant.ConfigRepository = (*GormTenantConfigRepository)(nil)

package persistence

import (
	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// AutoMigrate creates or updates the schema for all sync engine tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TenantModel{},
		&models.TenantConfigModel{},
		&models.EntityMappingModel{},
		&models.SyncJobModel{},
		&models.SyncStateModel{},
		&models.SyncScheduleModel{},
		&models.SyncLogModel{},
		&models.CachedCategoryModel{},
		&models.CachedManufacturerModel{},
		&models.CachedUnitModel{},
		&models.CachedAttributeModel{},
		&models.CachedPropertyModel{},
		&models.CachedSalesPriceModel{},
	)
}

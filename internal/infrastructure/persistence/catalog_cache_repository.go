package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/infrastructure/persistence/models"
)

// replicaBatchSize bounds one INSERT when rebuilding a replica table.
const replicaBatchSize = 200

// GormCatalogCacheRepository implements catalog.CacheRepository using GORM.
// Replace operations rebuild a kind's rows for the tenant inside one
// transaction, so readers never observe a half-replaced replica.
type GormCatalogCacheRepository struct {
	db *gorm.DB
}

// NewGormCatalogCacheRepository creates a new GormCatalogCacheRepository
func NewGormCatalogCacheRepository(db *gorm.DB) *GormCatalogCacheRepository {
	return &GormCatalogCacheRepository{db: db}
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// ReplaceCategories rebuilds the category replica for a tenant.
func (r *GormCatalogCacheRepository) ReplaceCategories(ctx context.Context, tenantID uuid.UUID, categories []catalog.CachedCategory) error {
	rows := make([]*models.CachedCategoryModel, len(categories))
	for i := range categories {
		rows[i] = &models.CachedCategoryModel{}
		rows[i].FromDomain(categories[i])
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedCategoryModel{}, rows)
}

// FindCategories returns the replicated categories with the given source IDs.
func (r *GormCatalogCacheRepository) FindCategories(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]catalog.CachedCategory, error) {
	if len(sourceIDs) == 0 {
		return []catalog.CachedCategory{}, nil
	}
	var rows []models.CachedCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ?", tenantID, sourceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return categoryRowsToDomain(rows), nil
}

// AllCategories returns every replicated category for a tenant ordered by
// tree level, parents before children.
func (r *GormCatalogCacheRepository) AllCategories(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedCategory, error) {
	var rows []models.CachedCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("level ASC, source_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return categoryRowsToDomain(rows), nil
}

func categoryRowsToDomain(rows []models.CachedCategoryModel) []catalog.CachedCategory {
	out := make([]catalog.CachedCategory, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ---------------------------------------------------------------------------
// Manufacturers
// ---------------------------------------------------------------------------

// ReplaceManufacturers rebuilds the manufacturer replica for a tenant.
func (r *GormCatalogCacheRepository) ReplaceManufacturers(ctx context.Context, tenantID uuid.UUID, manufacturers []catalog.CachedManufacturer) error {
	rows := make([]*models.CachedManufacturerModel, len(manufacturers))
	for i := range manufacturers {
		rows[i] = &models.CachedManufacturerModel{}
		rows[i].FromDomain(manufacturers[i])
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedManufacturerModel{}, rows)
}

// FindManufacturers returns the replicated manufacturers with the given source IDs.
func (r *GormCatalogCacheRepository) FindManufacturers(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]catalog.CachedManufacturer, error) {
	if len(sourceIDs) == 0 {
		return []catalog.CachedManufacturer{}, nil
	}
	var rows []models.CachedManufacturerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ?", tenantID, sourceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return manufacturerRowsToDomain(rows), nil
}

// AllManufacturers returns every replicated manufacturer for a tenant.
func (r *GormCatalogCacheRepository) AllManufacturers(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedManufacturer, error) {
	var rows []models.CachedManufacturerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("source_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return manufacturerRowsToDomain(rows), nil
}

func manufacturerRowsToDomain(rows []models.CachedManufacturerModel) []catalog.CachedManufacturer {
	out := make([]catalog.CachedManufacturer, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

// ReplaceUnits rebuilds the unit replica for a tenant.
func (r *GormCatalogCacheRepository) ReplaceUnits(ctx context.Context, tenantID uuid.UUID, units []catalog.CachedUnit) error {
	rows := make([]*models.CachedUnitModel, len(units))
	for i := range units {
		rows[i] = &models.CachedUnitModel{}
		rows[i].FromDomain(units[i])
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedUnitModel{}, rows)
}

// FindUnits returns the replicated units with the given source IDs.
func (r *GormCatalogCacheRepository) FindUnits(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]catalog.CachedUnit, error) {
	if len(sourceIDs) == 0 {
		return []catalog.CachedUnit{}, nil
	}
	var rows []models.CachedUnitModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ?", tenantID, sourceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitRowsToDomain(rows), nil
}

// AllUnits returns every replicated unit for a tenant.
func (r *GormCatalogCacheRepository) AllUnits(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedUnit, error) {
	var rows []models.CachedUnitModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("source_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return unitRowsToDomain(rows), nil
}

func unitRowsToDomain(rows []models.CachedUnitModel) []catalog.CachedUnit {
	out := make([]catalog.CachedUnit, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

// ReplaceAttributes rebuilds the attribute replica for a tenant.
func (r *GormCatalogCacheRepository) ReplaceAttributes(ctx context.Context, tenantID uuid.UUID, attributes []catalog.CachedAttribute) error {
	rows := make([]*models.CachedAttributeModel, len(attributes))
	for i := range attributes {
		rows[i] = &models.CachedAttributeModel{}
		rows[i].FromDomain(attributes[i])
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedAttributeModel{}, rows)
}

// FindAttributes returns the replicated attributes with the given source IDs.
func (r *GormCatalogCacheRepository) FindAttributes(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]catalog.CachedAttribute, error) {
	if len(sourceIDs) == 0 {
		return []catalog.CachedAttribute{}, nil
	}
	var rows []models.CachedAttributeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ?", tenantID, sourceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return attributeRowsToDomain(rows), nil
}

// AllAttributes returns every replicated attribute for a tenant.
func (r *GormCatalogCacheRepository) AllAttributes(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedAttribute, error) {
	var rows []models.CachedAttributeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("source_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return attributeRowsToDomain(rows), nil
}

func attributeRowsToDomain(rows []models.CachedAttributeModel) []catalog.CachedAttribute {
	out := make([]catalog.CachedAttribute, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// ReplaceProperties rebuilds the property replica for a tenant.
func (r *GormCatalogCacheRepository) ReplaceProperties(ctx context.Context, tenantID uuid.UUID, properties []catalog.CachedProperty) error {
	rows := make([]*models.CachedPropertyModel, len(properties))
	for i := range properties {
		rows[i] = &models.CachedPropertyModel{}
		rows[i].FromDomain(properties[i])
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedPropertyModel{}, rows)
}

// FindProperties returns the replicated properties with the given source IDs.
func (r *GormCatalogCacheRepository) FindProperties(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]catalog.CachedProperty, error) {
	if len(sourceIDs) == 0 {
		return []catalog.CachedProperty{}, nil
	}
	var rows []models.CachedPropertyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_id IN ?", tenantID, sourceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return propertyRowsToDomain(rows), nil
}

// AllProperties returns every replicated property for a tenant.
func (r *GormCatalogCacheRepository) AllProperties(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedProperty, error) {
	var rows []models.CachedPropertyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("source_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return propertyRowsToDomain(rows), nil
}

func propertyRowsToDomain(rows []models.CachedPropertyModel) []catalog.CachedProperty {
	out := make([]catalog.CachedProperty, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

// ---------------------------------------------------------------------------
// Sales prices
// ---------------------------------------------------------------------------

// ReplaceSalesPrices rebuilds the sales price replica for a tenant. The slice
// order is preserved in a position column so reads return the source system's
// definition order.
func (r *GormCatalogCacheRepository) ReplaceSalesPrices(ctx context.Context, tenantID uuid.UUID, prices []catalog.CachedSalesPrice) error {
	rows := make([]*models.CachedSalesPriceModel, len(prices))
	for i := range prices {
		rows[i] = &models.CachedSalesPriceModel{}
		rows[i].FromDomain(prices[i])
		rows[i].Position = i
	}
	return replaceRows(ctx, r.db, tenantID, &models.CachedSalesPriceModel{}, rows)
}

// AllSalesPrices returns every replicated sales price for a tenant in
// definition order.
func (r *GormCatalogCacheRepository) AllSalesPrices(ctx context.Context, tenantID uuid.UUID) ([]catalog.CachedSalesPrice, error) {
	var rows []models.CachedSalesPriceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.CachedSalesPrice, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// replaceRows deletes a tenant's rows for one replica table and inserts the
// replacement set inside a single transaction.
func replaceRows[T any](ctx context.Context, db *gorm.DB, tenantID uuid.UUID, model any, rows []*T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(model).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, replicaBatchSize).Error
	})
}

// Ensure GormCatalogCacheRepository implements catalog.CacheRepository
var _ catalog.CacheRepository = (*GormCatalogCacheRepository)(nil)

package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CacheRepository persists the local replica of source configuration data.
// ReplaceAll semantics: each config sync fully rebuilds a kind's rows for the
// tenant rather than merging into them.
type CacheRepository interface {
	// Categories
	ReplaceCategories(ctx context.Context, tenantID uuid.UUID, categories []CachedCategory) error
	FindCategories(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]CachedCategory, error)
	AllCategories(ctx context.Context, tenantID uuid.UUID) ([]CachedCategory, error)

	// Manufacturers
	ReplaceManufacturers(ctx context.Context, tenantID uuid.UUID, manufacturers []CachedManufacturer) error
	FindManufacturers(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]CachedManufacturer, error)
	AllManufacturers(ctx context.Context, tenantID uuid.UUID) ([]CachedManufacturer, error)

	// Units
	ReplaceUnits(ctx context.Context, tenantID uuid.UUID, units []CachedUnit) error
	FindUnits(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]CachedUnit, error)
	AllUnits(ctx context.Context, tenantID uuid.UUID) ([]CachedUnit, error)

	// Attributes (group + values)
	ReplaceAttributes(ctx context.Context, tenantID uuid.UUID, attributes []CachedAttribute) error
	FindAttributes(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]CachedAttribute, error)
	AllAttributes(ctx context.Context, tenantID uuid.UUID) ([]CachedAttribute, error)

	// Properties (group + selections)
	ReplaceProperties(ctx context.Context, tenantID uuid.UUID, properties []CachedProperty) error
	FindProperties(ctx context.Context, tenantID uuid.UUID, sourceIDs []string) ([]CachedProperty, error)
	AllProperties(ctx context.Context, tenantID uuid.UUID) ([]CachedProperty, error)

	// Sales prices
	ReplaceSalesPrices(ctx context.Context, tenantID uuid.UUID, prices []CachedSalesPrice) error
	AllSalesPrices(ctx context.Context, tenantID uuid.UUID) ([]CachedSalesPrice, error)
}

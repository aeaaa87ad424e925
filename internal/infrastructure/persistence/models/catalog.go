package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syncbridge/backend/internal/domain/catalog"
)

// The catalog replica tables store per-tenant copies of source configuration
// data. Translated names and child collections are serialized as JSON text so
// the schema stays stable across source systems.

// ---------------------------------------------------------------------------
// CachedCategoryModel
// ---------------------------------------------------------------------------

// CachedCategoryModel is the persistence model for replicated categories.
type CachedCategoryModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_categories_identity,priority:1"`
	SourceID       string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_categories_identity,priority:2"`
	ParentSourceID string    `gorm:"type:varchar(128)"`
	NamesJSON      string    `gorm:"type:text;column:names"`
	Level          int       `gorm:"not null;default:0"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedCategoryModel) TableName() string {
	return "catalog_categories"
}

// ToDomain converts the persistence model to a domain CachedCategory.
func (m *CachedCategoryModel) ToDomain() catalog.CachedCategory {
	return catalog.CachedCategory{
		ID:             m.ID,
		TenantID:       m.TenantID,
		SourceID:       m.SourceID,
		ParentSourceID: m.ParentSourceID,
		Names:          decodeNameMap(m.NamesJSON),
		Level:          m.Level,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CachedCategory.
func (m *CachedCategoryModel) FromDomain(c catalog.CachedCategory) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.ParentSourceID = c.ParentSourceID
	m.NamesJSON = encodeNameMap(c.Names)
	m.Level = c.Level
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// CachedManufacturerModel
// ---------------------------------------------------------------------------

// CachedManufacturerModel is the persistence model for replicated manufacturers.
type CachedManufacturerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_manufacturers_identity,priority:1"`
	SourceID  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_manufacturers_identity,priority:2"`
	Name      string    `gorm:"type:varchar(255);not null"`
	LogoURL   string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedManufacturerModel) TableName() string {
	return "catalog_manufacturers"
}

// ToDomain converts the persistence model to a domain CachedManufacturer.
func (m *CachedManufacturerModel) ToDomain() catalog.CachedManufacturer {
	return catalog.CachedManufacturer{
		ID:        m.ID,
		TenantID:  m.TenantID,
		SourceID:  m.SourceID,
		Name:      m.Name,
		LogoURL:   m.LogoURL,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CachedManufacturer.
func (m *CachedManufacturerModel) FromDomain(c catalog.CachedManufacturer) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.Name = c.Name
	m.LogoURL = c.LogoURL
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// CachedUnitModel
// ---------------------------------------------------------------------------

// CachedUnitModel is the persistence model for replicated measurement units.
type CachedUnitModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_units_identity,priority:1"`
	SourceID  string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_units_identity,priority:2"`
	UnitCode  string    `gorm:"type:varchar(20);not null"`
	NamesJSON string    `gorm:"type:text;column:names"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedUnitModel) TableName() string {
	return "catalog_units"
}

// ToDomain converts the persistence model to a domain CachedUnit.
func (m *CachedUnitModel) ToDomain() catalog.CachedUnit {
	return catalog.CachedUnit{
		ID:        m.ID,
		TenantID:  m.TenantID,
		SourceID:  m.SourceID,
		UnitCode:  m.UnitCode,
		Names:     decodeNameMap(m.NamesJSON),
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CachedUnit.
func (m *CachedUnitModel) FromDomain(c catalog.CachedUnit) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.UnitCode = c.UnitCode
	m.NamesJSON = encodeNameMap(c.Names)
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// CachedAttributeModel
// ---------------------------------------------------------------------------

// CachedAttributeModel is the persistence model for replicated attribute
// groups. Child values are stored as a JSON array on the group row.
type CachedAttributeModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_attributes_identity,priority:1"`
	SourceID   string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_attributes_identity,priority:2"`
	NamesJSON  string    `gorm:"type:text;column:names"`
	ValuesJSON string    `gorm:"type:text;column:attribute_values"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedAttributeModel) TableName() string {
	return "catalog_attributes"
}

// ToDomain converts the persistence model to a domain CachedAttribute.
func (m *CachedAttributeModel) ToDomain() catalog.CachedAttribute {
	attr := catalog.CachedAttribute{
		ID:        m.ID,
		TenantID:  m.TenantID,
		SourceID:  m.SourceID,
		Names:     decodeNameMap(m.NamesJSON),
		UpdatedAt: m.UpdatedAt,
	}
	if m.ValuesJSON != "" {
		var values []catalog.CachedAttributeValue
		if err := json.Unmarshal([]byte(m.ValuesJSON), &values); err == nil {
			attr.Values = values
		}
	}
	return attr
}

// FromDomain populates the persistence model from a domain CachedAttribute.
func (m *CachedAttributeModel) FromDomain(c catalog.CachedAttribute) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.NamesJSON = encodeNameMap(c.Names)
	m.UpdatedAt = c.UpdatedAt

	if len(c.Values) > 0 {
		if raw, err := json.Marshal(c.Values); err == nil {
			m.ValuesJSON = string(raw)
		}
	} else {
		m.ValuesJSON = "[]"
	}
}

// ---------------------------------------------------------------------------
// CachedPropertyModel
// ---------------------------------------------------------------------------

// CachedPropertyModel is the persistence model for replicated property
// groups. Child selections are stored as a JSON array on the group row.
type CachedPropertyModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_properties_identity,priority:1"`
	SourceID       string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_properties_identity,priority:2"`
	NamesJSON      string    `gorm:"type:text;column:names"`
	CastType       string    `gorm:"type:varchar(30)"`
	SelectionsJSON string    `gorm:"type:text;column:selections"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedPropertyModel) TableName() string {
	return "catalog_properties"
}

// ToDomain converts the persistence model to a domain CachedProperty.
func (m *CachedPropertyModel) ToDomain() catalog.CachedProperty {
	prop := catalog.CachedProperty{
		ID:        m.ID,
		TenantID:  m.TenantID,
		SourceID:  m.SourceID,
		Names:     decodeNameMap(m.NamesJSON),
		CastType:  m.CastType,
		UpdatedAt: m.UpdatedAt,
	}
	if m.SelectionsJSON != "" {
		var selections []catalog.CachedPropertySelection
		if err := json.Unmarshal([]byte(m.SelectionsJSON), &selections); err == nil {
			prop.Selections = selections
		}
	}
	return prop
}

// FromDomain populates the persistence model from a domain CachedProperty.
func (m *CachedPropertyModel) FromDomain(c catalog.CachedProperty) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.NamesJSON = encodeNameMap(c.Names)
	m.CastType = c.CastType
	m.UpdatedAt = c.UpdatedAt

	if len(c.Selections) > 0 {
		if raw, err := json.Marshal(c.Selections); err == nil {
			m.SelectionsJSON = string(raw)
		}
	} else {
		m.SelectionsJSON = "[]"
	}
}

// ---------------------------------------------------------------------------
// CachedSalesPriceModel
// ---------------------------------------------------------------------------

// CachedSalesPriceModel is the persistence model for replicated sales price
// definitions.
type CachedSalesPriceModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_sales_prices_identity,priority:1"`
	SourceID   string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_catalog_sales_prices_identity,priority:2"`
	NamesJSON  string          `gorm:"type:text;column:names"`
	Type       string          `gorm:"type:varchar(30)"`
	Currency   string          `gorm:"type:varchar(10)"`
	MinimumQty decimal.Decimal `gorm:"type:decimal(15,4);not null;default:0"`
	Position   int             `gorm:"not null;default:0"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CachedSalesPriceModel) TableName() string {
	return "catalog_sales_prices"
}

// ToDomain converts the persistence model to a domain CachedSalesPrice.
func (m *CachedSalesPriceModel) ToDomain() catalog.CachedSalesPrice {
	return catalog.CachedSalesPrice{
		ID:         m.ID,
		TenantID:   m.TenantID,
		SourceID:   m.SourceID,
		Names:      decodeNameMap(m.NamesJSON),
		Type:       m.Type,
		Currency:   m.Currency,
		MinimumQty: m.MinimumQty,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CachedSalesPrice.
func (m *CachedSalesPriceModel) FromDomain(c catalog.CachedSalesPrice) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.SourceID = c.SourceID
	m.NamesJSON = encodeNameMap(c.Names)
	m.Type = c.Type
	m.Currency = c.Currency
	m.MinimumQty = c.MinimumQty
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func encodeNameMap(names catalog.NameMap) string {
	if len(names) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeNameMap(raw string) catalog.NameMap {
	names := catalog.NameMap{}
	if raw == "" {
		return names
	}
	_ = json.Unmarshal([]byte(raw), &names)
	return names
}

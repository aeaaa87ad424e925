package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Cached source entities
// ---------------------------------------------------------------------------
//
// These are local read-through replicas of source-of-truth configuration
// data. The config orchestrator refreshes them; dependency resolvers and the
// transformer consume them without further source-system calls.

// CachedCategory is a replica of one source category.
type CachedCategory struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	SourceID       string
	ParentSourceID string
	Names          NameMap
	Level          int
	UpdatedAt      time.Time
}

// CachedManufacturer is a replica of one source manufacturer.
type CachedManufacturer struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	SourceID  string
	Name      string
	LogoURL   string
	UpdatedAt time.Time
}

// CachedUnit is a replica of one source measurement unit.
type CachedUnit struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	SourceID  string
	UnitCode  string
	Names     NameMap
	UpdatedAt time.Time
}

// CachedAttributeValue is the child level of a cached attribute.
type CachedAttributeValue struct {
	SourceID string  `json:"sourceId"`
	Names    NameMap `json:"names"`
	Position int     `json:"position"`
}

// CachedAttribute is a replica of one source attribute group with its values.
type CachedAttribute struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	SourceID  string
	Names     NameMap
	Values    []CachedAttributeValue
	UpdatedAt time.Time
}

// Value returns the child value with the given source ID.
func (a *CachedAttribute) Value(sourceID string) (*CachedAttributeValue, bool) {
	for i := range a.Values {
		if a.Values[i].SourceID == sourceID {
			return &a.Values[i], true
		}
	}
	return nil, false
}

// CachedPropertySelection is the child level of a cached property.
type CachedPropertySelection struct {
	SourceID string  `json:"sourceId"`
	Names    NameMap `json:"names"`
	Position int     `json:"position"`
}

// CachedProperty is a replica of one source property group with its
// selection values.
type CachedProperty struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	SourceID   string
	Names      NameMap
	CastType   string
	Selections []CachedPropertySelection
	UpdatedAt  time.Time
}

// Selection returns the child selection with the given source ID.
func (p *CachedProperty) Selection(sourceID string) (*CachedPropertySelection, bool) {
	for i := range p.Selections {
		if p.Selections[i].SourceID == sourceID {
			return &p.Selections[i], true
		}
	}
	return nil, false
}

// CachedSalesPrice is a replica of one source sales price definition.
type CachedSalesPrice struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	SourceID   string
	Names      NameMap
	Type       string
	Currency   string
	MinimumQty decimal.Decimal
	UpdatedAt  time.Time
}

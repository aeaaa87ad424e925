package mapping

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// EntityMapping Entity
// ---------------------------------------------------------------------------

// EntityKind identifies which table family a mapping belongs to. Attribute
// values and property selections are the child level of two-tier kinds; their
// rows carry the parent group's source ID.
type EntityKind string

const (
	KindManufacturer      EntityKind = "MANUFACTURER"
	KindUnit              EntityKind = "UNIT"
	KindCategory          EntityKind = "CATEGORY"
	KindAttribute         EntityKind = "ATTRIBUTE"
	KindAttributeValue    EntityKind = "ATTRIBUTE_VALUE"
	KindProperty          EntityKind = "PROPERTY"
	KindPropertySelection EntityKind = "PROPERTY_SELECTION"
	KindMedia             EntityKind = "MEDIA"
)

// IsValid returns true if the kind is a known value.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindManufacturer, KindUnit, KindCategory, KindAttribute,
		KindAttributeValue, KindProperty, KindPropertySelection, KindMedia:
		return true
	}
	return false
}

// ParentKind returns the group-level kind for a child-level kind, or empty.
func (k EntityKind) ParentKind() EntityKind {
	switch k {
	case KindAttributeValue:
		return KindAttribute
	case KindPropertySelection:
		return KindProperty
	}
	return ""
}

// Type records how a mapping came to exist. MANUAL rows are operator-pinned
// and are never overwritten by automatic resolution.
type Type string

const (
	TypeManual Type = "MANUAL"
	TypeAuto   Type = "AUTO"
)

// Status is the lifecycle state of a mapping.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusOrphaned Status = "ORPHANED"
)

// EntityMapping is one persisted source↔destination ID correspondence.
// Invariant: at most one row per (tenant, kind, source ID).
type EntityMapping struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Kind     EntityKind
	// SourceID is the opaque identifier in the source system. For media it is
	// a content hash of the source URL rather than a numeric ID.
	SourceID string
	// ParentSourceID is set on child-level rows (attribute value, property
	// selection) and names the parent group's source ID.
	ParentSourceID string
	DestinationID  string
	MappingType    Type
	Status         Status
	LastSyncedAt   *time.Time
	LastSeenAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAutoMapping creates an automatically provisioned ACTIVE mapping.
func NewAutoMapping(tenantID uuid.UUID, kind EntityKind, sourceID, destinationID string) (*EntityMapping, error) {
	return newMapping(tenantID, kind, sourceID, destinationID, TypeAuto)
}

// NewManualMapping creates an operator-pinned ACTIVE mapping.
func NewManualMapping(tenantID uuid.UUID, kind EntityKind, sourceID, destinationID string) (*EntityMapping, error) {
	return newMapping(tenantID, kind, sourceID, destinationID, TypeManual)
}

func newMapping(tenantID uuid.UUID, kind EntityKind, sourceID, destinationID string, mappingType Type) (*EntityMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenantID
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if sourceID == "" {
		return nil, ErrInvalidSourceID
	}
	if destinationID == "" {
		return nil, ErrInvalidDestinationID
	}

	now := time.Now()
	return &EntityMapping{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Kind:          kind,
		SourceID:      sourceID,
		DestinationID: destinationID,
		MappingType:   mappingType,
		Status:        StatusActive,
		LastSyncedAt:  &now,
		LastSeenAt:    &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// WithParent sets the parent group source ID on a child-level mapping.
func (m *EntityMapping) WithParent(parentSourceID string) *EntityMapping {
	m.ParentSourceID = parentSourceID
	return m
}

// IsManual reports whether the mapping is operator-pinned.
func (m *EntityMapping) IsManual() bool {
	return m.MappingType == TypeManual
}

// MarkOrphaned transitions ACTIVE → ORPHANED.
func (m *EntityMapping) MarkOrphaned() {
	if m.Status == StatusOrphaned {
		return
	}
	m.Status = StatusOrphaned
	m.UpdatedAt = time.Now()
}

// Reactivate transitions ORPHANED → ACTIVE when the source entity reappears.
func (m *EntityMapping) Reactivate() {
	if m.Status == StatusActive {
		return
	}
	m.Status = StatusActive
	m.UpdatedAt = time.Now()
}

// TouchSeen records that the source entity was present in the latest fetch.
func (m *EntityMapping) TouchSeen(at time.Time) {
	m.LastSeenAt = &at
	m.UpdatedAt = time.Now()
}

// TouchSynced records a successful write to the destination.
func (m *EntityMapping) TouchSynced(at time.Time) {
	m.LastSyncedAt = &at
	m.UpdatedAt = time.Now()
}

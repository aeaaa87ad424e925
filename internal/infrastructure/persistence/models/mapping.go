package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/mapping"
)

// EntityMappingModel is the persistence model for the EntityMapping domain
// entity. The composite unique index is the dedup guarantee: concurrent
// upserts for the same source entity collapse into one row.
type EntityMappingModel struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_entity_mapping_identity,priority:1"`
	Kind           mapping.EntityKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_entity_mapping_identity,priority:2"`
	SourceID       string             `gorm:"type:varchar(128);not null;uniqueIndex:idx_entity_mapping_identity,priority:3"`
	ParentSourceID string             `gorm:"type:varchar(128)"`
	DestinationID  string             `gorm:"type:varchar(128);not null"`
	MappingType    mapping.Type       `gorm:"type:varchar(10);not null;default:'AUTO'"`
	Status         mapping.Status     `gorm:"type:varchar(10);not null;default:'ACTIVE';index"`
	LastSyncedAt   *time.Time
	LastSeenAt     *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntityMappingModel) TableName() string {
	return "entity_mappings"
}

// ToDomain converts the persistence model to a domain EntityMapping entity.
func (m *EntityMappingModel) ToDomain() *mapping.EntityMapping {
	return &mapping.EntityMapping{
		ID:             m.ID,
		TenantID:       m.TenantID,
		Kind:           m.Kind,
		SourceID:       m.SourceID,
		ParentSourceID: m.ParentSourceID,
		DestinationID:  m.DestinationID,
		MappingType:    m.MappingType,
		Status:         m.Status,
		LastSyncedAt:   m.LastSyncedAt,
		LastSeenAt:     m.LastSeenAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain EntityMapping entity.
func (m *EntityMappingModel) FromDomain(em *mapping.EntityMapping) {
	m.ID = em.ID
	m.TenantID = em.TenantID
	m.Kind = em.Kind
	m.SourceID = em.SourceID
	m.ParentSourceID = em.ParentSourceID
	m.DestinationID = em.DestinationID
	m.MappingType = em.MappingType
	m.Status = em.Status
	m.LastSyncedAt = em.LastSyncedAt
	m.LastSeenAt = em.LastSeenAt
	m.CreatedAt = em.CreatedAt
	m.UpdatedAt = em.UpdatedAt
}

// EntityMappingModelFromDomain creates a new persistence model from a domain entity.
func EntityMappingModelFromDomain(em *mapping.EntityMapping) *EntityMappingModel {
	m := &EntityMappingModel{}
	m.FromDomain(em)
	return m
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/syncbridge/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// TenantModel
// ---------------------------------------------------------------------------

// TenantModel is the persistence model for the Tenant domain entity.
// SyncSettings are serialized as a JSON column.
type TenantModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key"`
	Name                string    `gorm:"type:varchar(255);not null"`
	SourceEndpoint      string    `gorm:"type:text;not null"`
	DestinationEndpoint string    `gorm:"type:text;not null"`
	SettingsJSON        string    `gorm:"type:text;column:settings"`
	Active              bool      `gorm:"not null;default:true;index"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// settingsJSON is the serialized form of tenant.SyncSettings. Durations are
// stored in seconds.
type settingsJSON struct {
	ConfigStalenessSeconds int64    `json:"configStalenessSeconds"`
	SkipExisting           bool     `json:"skipExisting"`
	LanguagePreference     []string `json:"languagePreference"`
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *tenant.Tenant {
	t := &tenant.Tenant{
		ID:                  m.ID,
		Name:                m.Name,
		SourceEndpoint:      m.SourceEndpoint,
		DestinationEndpoint: m.DestinationEndpoint,
		Settings:            tenant.DefaultSyncSettings(),
		Active:              m.Active,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}

	if m.SettingsJSON != "" {
		var s settingsJSON
		if err := json.Unmarshal([]byte(m.SettingsJSON), &s); err == nil {
			t.Settings = tenant.SyncSettings{
				ConfigStaleness:    time.Duration(s.ConfigStalenessSeconds) * time.Second,
				SkipExisting:       s.SkipExisting,
				LanguagePreference: s.LanguagePreference,
			}
		}
	}

	return t
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.ID = t.ID
	m.Name = t.Name
	m.SourceEndpoint = t.SourceEndpoint
	m.DestinationEndpoint = t.DestinationEndpoint
	m.Active = t.Active
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt

	raw, err := json.Marshal(settingsJSON{
		ConfigStalenessSeconds: int64(t.Settings.ConfigStaleness / time.Second),
		SkipExisting:           t.Settings.SkipExisting,
		LanguagePreference:     t.Settings.LanguagePreference,
	})
	if err == nil {
		m.SettingsJSON = string(raw)
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant.
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// ---------------------------------------------------------------------------
// TenantConfigModel
// ---------------------------------------------------------------------------

// TenantConfigModel is the persistence model for typed tenant settings.
type TenantConfigModel struct {
	TenantID  uuid.UUID              `gorm:"type:uuid;primary_key"`
	Key       string                 `gorm:"type:varchar(128);primary_key"`
	ValueType tenant.ConfigValueType `gorm:"type:varchar(10);not null"`
	RawValue  string                 `gorm:"type:text;not null"`
	UpdatedAt time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantConfigModel) TableName() string {
	return "tenant_configs"
}

// ToDomain converts the persistence model to a domain ConfigEntry.
func (m *TenantConfigModel) ToDomain() tenant.ConfigEntry {
	return tenant.ConfigEntry{
		TenantID:  m.TenantID,
		Key:       m.Key,
		ValueType: m.ValueType,
		RawValue:  m.RawValue,
	}
}

// FromDomain populates the persistence model from a domain ConfigEntry.
func (m *TenantConfigModel) FromDomain(e tenant.ConfigEntry) {
	m.TenantID = e.TenantID
	m.Key = e.Key
	m.ValueType = e.ValueType
	m.RawValue = e.RawValue
	m.UpdatedAt = time.Now()
}

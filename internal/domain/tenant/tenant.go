package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant owns all synchronized entities. Connection endpoints are stored on
// the tenant; credentials live encrypted on the job envelope.
type Tenant struct {
	ID                  uuid.UUID
	Name                string
	SourceEndpoint      string
	DestinationEndpoint string
	Settings            SyncSettings
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SyncSettings are per-tenant knobs for the sync engine.
type SyncSettings struct {
	// ConfigStaleness is the maximum age of a successful config sync before a
	// product sync triggers a nested config refresh.
	ConfigStaleness time.Duration
	// SkipExisting makes product syncs create-only.
	SkipExisting bool
	// LanguagePreference is the ordered list of language tags used when
	// resolving localized text, e.g. ["de", "en"].
	LanguagePreference []string
}

// DefaultSyncSettings returns the engine defaults.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		ConfigStaleness:    6 * time.Hour,
		SkipExisting:       false,
		LanguagePreference: []string{"en"},
	}
}

// NewTenant creates an active tenant with default settings.
func NewTenant(name, sourceEndpoint, destinationEndpoint string) (*Tenant, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if sourceEndpoint == "" || destinationEndpoint == "" {
		return nil, ErrInvalidEndpoint
	}
	now := time.Now()
	return &Tenant{
		ID:                  uuid.New(),
		Name:                name,
		SourceEndpoint:      sourceEndpoint,
		DestinationEndpoint: destinationEndpoint,
		Settings:            DefaultSyncSettings(),
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

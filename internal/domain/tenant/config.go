package tenant

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Typed key-value tenant configuration
// ---------------------------------------------------------------------------

// ConfigValueType discriminates how a config value is decoded.
type ConfigValueType string

const (
	ConfigTypeString  ConfigValueType = "string"
	ConfigTypeNumber  ConfigValueType = "number"
	ConfigTypeBoolean ConfigValueType = "boolean"
	ConfigTypeJSON    ConfigValueType = "json"
)

// Well-known configuration keys.
const (
	ConfigKeyFrontendURL        = "frontend.url"
	ConfigKeyDefaultPriceTypeID = "price.defaultTypeId"
	ConfigKeyRRPPriceTypeID     = "price.rrpTypeId"
	ConfigKeyTaxIDTable         = "tax.idTable"
	ConfigKeyDestTaxID          = "destination.taxId"
	ConfigKeyDestTaxRate        = "destination.taxRate"
	ConfigKeyDestCurrencyID     = "destination.currencyId"
	ConfigKeyDestRootCategoryID = "destination.rootCategoryId"
	ConfigKeyDestSalesChannelID = "destination.salesChannelId"
	ConfigKeyFieldRules         = "product.fieldRules"
	ConfigKeyMediaFolderName    = "media.folderName"

	// Credential blobs are stored pre-encrypted in vault wire format; they are
	// copied onto job envelopes verbatim and only decrypted at execution time.
	ConfigKeySourceCredentials = "credentials.source"
	ConfigKeyDestCredentials   = "credentials.destination"
)

// ConfigEntry is one typed key-value setting for a tenant. Values are stored
// as JSON text and decoded according to ValueType.
type ConfigEntry struct {
	TenantID  uuid.UUID
	Key       string
	ValueType ConfigValueType
	RawValue  string
}

// String decodes the entry as a string.
func (e *ConfigEntry) String() (string, error) {
	if e.ValueType != ConfigTypeString {
		return "", ErrConfigWrongType
	}
	var s string
	if err := json.Unmarshal([]byte(e.RawValue), &s); err != nil {
		return "", ErrConfigWrongType
	}
	return s, nil
}

// Number decodes the entry as a float64.
func (e *ConfigEntry) Number() (float64, error) {
	if e.ValueType != ConfigTypeNumber {
		return 0, ErrConfigWrongType
	}
	var n float64
	if err := json.Unmarshal([]byte(e.RawValue), &n); err != nil {
		return 0, ErrConfigWrongType
	}
	return n, nil
}

// Boolean decodes the entry as a bool.
func (e *ConfigEntry) Boolean() (bool, error) {
	if e.ValueType != ConfigTypeBoolean {
		return false, ErrConfigWrongType
	}
	var b bool
	if err := json.Unmarshal([]byte(e.RawValue), &b); err != nil {
		return false, ErrConfigWrongType
	}
	return b, nil
}

// JSON decodes the entry into out.
func (e *ConfigEntry) JSON(out any) error {
	if e.ValueType != ConfigTypeJSON {
		return ErrConfigWrongType
	}
	if err := json.Unmarshal([]byte(e.RawValue), out); err != nil {
		return ErrConfigWrongType
	}
	return nil
}

// NewStringEntry builds a string-typed entry.
func NewStringEntry(tenantID uuid.UUID, key, value string) ConfigEntry {
	raw, _ := json.Marshal(value)
	return ConfigEntry{TenantID: tenantID, Key: key, ValueType: ConfigTypeString, RawValue: string(raw)}
}

// NewNumberEntry builds a number-typed entry.
func NewNumberEntry(tenantID uuid.UUID, key string, value float64) ConfigEntry {
	raw, _ := json.Marshal(value)
	return ConfigEntry{TenantID: tenantID, Key: key, ValueType: ConfigTypeNumber, RawValue: string(raw)}
}

// NewBooleanEntry builds a boolean-typed entry.
func NewBooleanEntry(tenantID uuid.UUID, key string, value bool) ConfigEntry {
	raw, _ := json.Marshal(value)
	return ConfigEntry{TenantID: tenantID, Key: key, ValueType: ConfigTypeBoolean, RawValue: string(raw)}
}

// NewJSONEntry builds a JSON-typed entry from any marshalable value.
func NewJSONEntry(tenantID uuid.UUID, key string, value any) (ConfigEntry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return ConfigEntry{}, err
	}
	return ConfigEntry{TenantID: tenantID, Key: key, ValueType: ConfigTypeJSON, RawValue: string(raw)}, nil
}

// Config is the materialized setting map for one tenant.
type Config struct {
	TenantID uuid.UUID
	entries  map[string]ConfigEntry
}

// NewConfig builds a Config from loaded entries.
func NewConfig(tenantID uuid.UUID, entries []ConfigEntry) *Config {
	m := make(map[string]ConfigEntry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return &Config{TenantID: tenantID, entries: m}
}

// GetString returns a string setting, or fallback when absent.
func (c *Config) GetString(key, fallback string) string {
	if e, ok := c.entries[key]; ok {
		if s, err := e.String(); err == nil {
			return s
		}
	}
	return fallback
}

// GetNumber returns a numeric setting, or fallback when absent.
func (c *Config) GetNumber(key string, fallback float64) float64 {
	if e, ok := c.entries[key]; ok {
		if n, err := e.Number(); err == nil {
			return n
		}
	}
	return fallback
}

// GetBoolean returns a boolean setting, or fallback when absent.
func (c *Config) GetBoolean(key string, fallback bool) bool {
	if e, ok := c.entries[key]; ok {
		if b, err := e.Boolean(); err == nil {
			return b
		}
	}
	return fallback
}

// GetJSON decodes a JSON setting into out; returns ErrConfigKeyNotFound when
// the key is absent.
func (c *Config) GetJSON(key string, out any) error {
	e, ok := c.entries[key]
	if !ok {
		return ErrConfigKeyNotFound
	}
	return e.JSON(out)
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// Repository persists tenants.
type Repository interface {
	// FindByID finds a tenant by ID, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// Save creates or updates a tenant.
	Save(ctx context.Context, t *Tenant) error
}

// ConfigRepository persists typed tenant settings.
type ConfigRepository interface {
	// Load returns all settings for a tenant.
	Load(ctx context.Context, tenantID uuid.UUID) (*Config, error)

	// Set creates or replaces one setting.
	Set(ctx context.Context, entry ConfigEntry) error
}

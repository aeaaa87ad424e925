package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_TypedGetters(t *testing.T) {
	tenantID := uuid.New()

	taxTable, err := NewJSONEntry(tenantID, ConfigKeyTaxIDTable, map[string]string{"19": "tax-std", "7": "tax-reduced"})
	require.NoError(t, err)

	cfg := NewConfig(tenantID, []ConfigEntry{
		NewStringEntry(tenantID, ConfigKeyFrontendURL, "https://shop.example.com"),
		NewNumberEntry(tenantID, ConfigKeyDestTaxRate, 19),
		NewBooleanEntry(tenantID, "sync.skipExisting", true),
		taxTable,
	})

	assert.Equal(t, "https://shop.example.com", cfg.GetString(ConfigKeyFrontendURL, ""))
	assert.Equal(t, "fallback", cfg.GetString("missing", "fallback"))
	assert.Equal(t, float64(19), cfg.GetNumber(ConfigKeyDestTaxRate, 0))
	assert.Equal(t, 7.0, cfg.GetNumber("missing", 7.0))
	assert.True(t, cfg.GetBoolean("sync.skipExisting", false))

	var table map[string]string
	require.NoError(t, cfg.GetJSON(ConfigKeyTaxIDTable, &table))
	assert.Equal(t, "tax-std", table["19"])

	assert.ErrorIs(t, cfg.GetJSON("missing", &table), ErrConfigKeyNotFound)
}

func TestConfigEntry_TypeMismatch(t *testing.T) {
	e := NewStringEntry(uuid.New(), "k", "v")

	_, err := e.Number()
	assert.ErrorIs(t, err, ErrConfigWrongType)
	_, err = e.Boolean()
	assert.ErrorIs(t, err, ErrConfigWrongType)
}

func TestCredentials_Validate(t *testing.T) {
	valid := &SourceCredentials{BaseURL: "https://erp.example.com", Username: "u", Password: "p"}
	assert.NoError(t, valid.Validate())

	missing := &SourceCredentials{BaseURL: "https://erp.example.com"}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidSourceCredentials)

	badURL := &DestinationCredentials{BaseURL: "not-a-url", ClientID: "c", ClientSecret: "s"}
	assert.ErrorIs(t, badURL.Validate(), ErrInvalidDestinationCredentials)

	dst := &DestinationCredentials{BaseURL: "https://shop.example.com", ClientID: "c", ClientSecret: "s"}
	assert.NoError(t, dst.Validate())
}

func TestNewTenant(t *testing.T) {
	tn, err := NewTenant("Acme", "https://erp.example.com", "https://shop.example.com")
	require.NoError(t, err)
	assert.True(t, tn.Active)
	assert.Equal(t, DefaultSyncSettings().ConfigStaleness, tn.Settings.ConfigStaleness)

	_, err = NewTenant("", "a", "b")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewTenant("Acme", "", "b")
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

package destination

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/tenant"
)

func newRemoteTestServer(t *testing.T, handler http.Handler) (*httptest.Server, *RemoteClient) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "opaque-token",
			"expires_in":   600,
		})
	})
	mux.Handle("/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewRemoteClient(tenant.DestinationCredentials{
		BaseURL:      srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	}, zap.NewNop())
	require.NoError(t, err)
	return srv, client
}

func TestRemoteClient_CreateProduct(t *testing.T) {
	var gotAuth string
	_, client := newRemoteTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/product", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var p Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "SKU-9", p.SKU)

		_ = json.NewEncoder(w).Encode(OperationResult{ID: "dest-9", Success: true})
	}))

	result, err := client.CreateProduct(context.Background(), &Product{
		SKU:        "SKU-9",
		GrossPrice: decimal.NewFromInt(42),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "dest-9", result.ID)
	assert.Equal(t, "Bearer opaque-token", gotAuth)
}

func TestRemoteClient_ProductIDBySKU(t *testing.T) {
	_, client := newRemoteTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/product/by-sku/KNOWN" {
			_ = json.NewEncoder(w).Encode(OperationResult{ID: "dest-1", Success: true})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	id, err := client.ProductIDBySKU(context.Background(), "KNOWN")
	require.NoError(t, err)
	assert.Equal(t, "dest-1", id)

	id, err = client.ProductIDBySKU(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRemoteClient_ErrorStatusBecomesFailedResult(t *testing.T) {
	_, client := newRemoteTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(OperationResult{Success: false, Error: "name must not be empty"})
	}))

	result, err := client.CreateManufacturer(context.Background(), Manufacturer{Name: ""})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "name must not be empty", result.Error)
}

func TestTokenExpiry_FallsBackWithoutJWT(t *testing.T) {
	exp := tokenExpiry("not-a-jwt", 120)
	assert.WithinDuration(t, time.Now().Add(120*time.Second), exp, 5*time.Second)

	exp = tokenExpiry("not-a-jwt", 0)
	assert.WithinDuration(t, time.Now().Add(defaultTokenLifetime), exp, 5*time.Second)
}

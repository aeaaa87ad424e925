package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/tenant"
)

const (
	// maxRemoteResponseSize bounds response bodies.
	maxRemoteResponseSize = 10 * 1024 * 1024
	// remoteTokenMargin triggers token refresh this long before expiry.
	remoteTokenMargin = 60 * time.Second
	// defaultTokenLifetime applies when the token carries no readable expiry.
	defaultTokenLifetime = 10 * time.Minute
)

// RemoteClient implements API against the destination platform's admin REST
// API using a client-credentials grant.
type RemoteClient struct {
	baseURL    string
	creds      tenant.DestinationCredentials
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewRemoteClient builds a client from decrypted destination credentials.
func NewRemoteClient(creds tenant.DestinationCredentials, logger *zap.Logger) (*RemoteClient, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &RemoteClient{
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func (c *RemoteClient) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	valid := c.token != "" && time.Until(c.tokenExpiry) > remoteTokenMargin
	c.mu.Unlock()
	if valid {
		return nil
	}
	return c.authenticate(ctx)
}

func (c *RemoteClient) authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.creds.ClientID)
	form.Set("client_secret", c.creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("destination: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteResponseSize)).Decode(&tokenResp); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if tokenResp.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	c.mu.Lock()
	c.token = tokenResp.AccessToken
	c.tokenExpiry = tokenExpiry(tokenResp.AccessToken, tokenResp.ExpiresIn)
	c.mu.Unlock()
	return nil
}

// tokenExpiry prefers the JWT exp claim over the advertised lifetime; some
// gateways report expires_in relative to issue time on the server clock.
func tokenExpiry(token string, expiresIn int64) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Now().Add(defaultTokenLifetime)
}

// ---------------------------------------------------------------------------
// API implementation
// ---------------------------------------------------------------------------

// ProductIDBySKU checks product existence by natural key.
func (c *RemoteClient) ProductIDBySKU(ctx context.Context, sku string) (string, error) {
	body, status, err := c.doRequest(ctx, http.MethodGet, "/api/product/by-sku/"+url.PathEscape(sku), nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}
	var result OperationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return result.ID, nil
}

// CreateProduct creates a product.
func (c *RemoteClient) CreateProduct(ctx context.Context, product *Product) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/product", product)
}

// UpdateProduct updates a product by destination ID.
func (c *RemoteClient) UpdateProduct(ctx context.Context, id string, product *Product) (OperationResult, error) {
	return c.write(ctx, http.MethodPatch, "/api/product/"+url.PathEscape(id), product)
}

// UpdateStock updates stock for one SKU.
func (c *RemoteClient) UpdateStock(ctx context.Context, update StockUpdate) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/stock", update)
}

// UpdateStockBatch updates stock for several SKUs in one call.
func (c *RemoteClient) UpdateStockBatch(ctx context.Context, updates []StockUpdate) ([]OperationResult, error) {
	body, status, err := c.doRequest(ctx, http.MethodPost, "/api/stock/batch", updates)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}
	var results []OperationResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return results, nil
}

// CreateManufacturer creates a manufacturer.
func (c *RemoteClient) CreateManufacturer(ctx context.Context, m Manufacturer) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/product-manufacturer", m)
}

// CreateUnit creates a measurement unit.
func (c *RemoteClient) CreateUnit(ctx context.Context, u Unit) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/unit", u)
}

// CreateCategory creates a category.
func (c *RemoteClient) CreateCategory(ctx context.Context, cat Category) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/category", cat)
}

// CreatePropertyGroup creates a classification group.
func (c *RemoteClient) CreatePropertyGroup(ctx context.Context, g PropertyGroup) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/property-group", g)
}

// CreatePropertyOption creates an option under a group.
func (c *RemoteClient) CreatePropertyOption(ctx context.Context, o PropertyOption) (OperationResult, error) {
	return c.write(ctx, http.MethodPost, "/api/property-group/"+url.PathEscape(o.GroupID)+"/option", o)
}

// CreateMediaFromURL instructs the destination to ingest a media file.
func (c *RemoteClient) CreateMediaFromURL(ctx context.Context, mediaURL, folderID string) (OperationResult, error) {
	payload := map[string]string{"url": mediaURL, "folderId": folderID}
	return c.write(ctx, http.MethodPost, "/api/media/from-url", payload)
}

// GetOrCreateMediaFolder resolves a media folder by name, creating it if
// missing.
func (c *RemoteClient) GetOrCreateMediaFolder(ctx context.Context, name string) (OperationResult, error) {
	payload := map[string]string{"name": name}
	return c.write(ctx, http.MethodPost, "/api/media-folder", payload)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *RemoteClient) write(ctx context.Context, method, path string, payload any) (OperationResult, error) {
	body, status, err := c.doRequest(ctx, method, path, payload)
	if err != nil {
		return OperationResult{}, err
	}

	var result OperationResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &result); err != nil {
			return OperationResult{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
	}
	if status >= 400 {
		result.Success = false
		if result.Error == "" {
			result.Error = fmt.Sprintf("status %d", status)
		}
	}
	return result, nil
}

func (c *RemoteClient) doRequest(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, 0, err
	}

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("destination: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.currentToken())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return body, resp.StatusCode, nil
}

func (c *RemoteClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

var _ API = (*RemoteClient)(nil)

// Package sourceapi implements the client for the source commerce/ERP
// backend's REST API: token authentication with proactive refresh, paginated
// and delta fetches, bounded retries with backoff and rate-limit handling.
package sourceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/tenant"
)

const (
	// maxResponseSize bounds response bodies to prevent memory exhaustion.
	maxResponseSize = 20 * 1024 * 1024
	// excerptSize is how much of an error body is kept on a FetchError.
	excerptSize = 256
	// tokenRefreshMargin triggers proactive re-authentication this long
	// before the token expires.
	tokenRefreshMargin = 5 * time.Minute
)

// Config tunes retry and pacing behavior.
type Config struct {
	// MaxAttempts bounds attempts per request, first try included.
	MaxAttempts int
	// RetryBaseDelay is the delay before the first retry; it doubles on each
	// further attempt.
	RetryBaseDelay time.Duration
	// RateLimitWait is the fallback pause on 429 without a Retry-After header.
	RateLimitWait time.Duration
	// PageDelay is the pause between consecutive page fetches.
	PageDelay time.Duration
	// PageSize is the requested page size.
	PageSize int
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		RetryBaseDelay: 500 * time.Millisecond,
		RateLimitWait:  5 * time.Second,
		PageDelay:      200 * time.Millisecond,
		PageSize:       100,
		Timeout:        30 * time.Second,
	}
}

// Client talks to one tenant's source backend. It is created per job with
// the decrypted credentials and is not shared across jobs.
type Client struct {
	baseURL    string
	creds      tenant.SourceCredentials
	config     Config
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	// sleep is swapped out in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from decrypted source credentials.
func NewClient(creds tenant.SourceCredentials, config Config, logger *zap.Logger) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if config.MaxAttempts <= 0 {
		config = DefaultConfig()
	}
	return &Client{
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
		creds:      creds,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
		sleep:      sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// Authenticate obtains a bearer token. Tokens are cached and refreshed
// proactively shortly before expiry; callers normally rely on ensureToken.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
	})
	if err != nil {
		return fmt.Errorf("sourceapi: failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sourceapi: failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	}

	var auth authResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if auth.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	c.mu.Lock()
	c.token = auth.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	c.mu.Unlock()

	c.logger.Debug("source API authenticated",
		zap.Time("token_expiry", c.tokenExpiry))
	return nil
}

// ensureToken authenticates when no token is cached or expiry is near.
func (c *Client) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	valid := c.token != "" && time.Until(c.tokenExpiry) > tokenRefreshMargin
	c.mu.Unlock()
	if valid {
		return nil
	}
	return c.Authenticate(ctx)
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Fetching
// ---------------------------------------------------------------------------

// Filters are query parameters applied to a resource fetch.
type Filters map[string]string

// FetchPage issues one paginated request.
func (c *Client) FetchPage(ctx context.Context, resource string, filters Filters, page int) (*Page, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, v := range filters {
		query.Set(k, v)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("itemsPerPage", strconv.Itoa(c.config.PageSize))

	raw, err := c.doRequest(ctx, resource, query)
	if err != nil {
		return nil, err
	}

	var p Page
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &p, nil
}

// FetchAll walks pages sequentially until the last-page flag is set, pausing
// between pages to respect the source's rate limits.
func (c *Client) FetchAll(ctx context.Context, resource string, filters Filters) ([]json.RawMessage, error) {
	var entries []json.RawMessage
	for page := 1; ; page++ {
		p, err := c.FetchPage(ctx, resource, filters, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, p.Entries...)

		c.logger.Debug("fetched source page",
			zap.String("resource", resource),
			zap.Int("page", p.Page),
			zap.Int("entries", len(p.Entries)),
			zap.Bool("last", p.IsLastPage))

		if p.IsLastPage || len(p.Entries) == 0 {
			return entries, nil
		}
		if err := c.sleep(ctx, c.config.PageDelay); err != nil {
			return nil, err
		}
	}
}

// FetchDelta fetches entries updated since the watermark, expanding the given
// relations. The watermark is converted to the source's epoch-seconds filter.
func (c *Client) FetchDelta(ctx context.Context, resource string, since time.Time, relations []string) ([]json.RawMessage, error) {
	filters := Filters{
		"updatedAtFrom": strconv.FormatInt(since.Unix(), 10),
	}
	if len(relations) > 0 {
		filters["with"] = strings.Join(relations, ",")
	}
	return c.FetchAll(ctx, resource, filters)
}

// doRequest performs one GET with the retry policy: bounded attempts,
// increasing delay, no retry on 4xx except 429, Retry-After honored on 429.
func (c *Client) doRequest(ctx context.Context, resource string, query url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, resource, query.Encode())

	var lastStatus int
	var lastExcerpt string
	var lastRetryAfter string
	var lastErr error
	reauthed := false

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			// 500ms, 1s, 2s, ... strictly increasing between attempts.
			delay := c.config.RetryBaseDelay << (attempt - 2)
			if lastStatus == http.StatusTooManyRequests {
				delay = c.retryAfter(lastRetryAfter)
			}
			c.logger.Warn("retrying source fetch",
				zap.String("resource", resource),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Int("last_status", lastStatus))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("sourceapi: failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.currentToken())
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			lastStatus = 0
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized && !reauthed:
			// Token may have been revoked mid-run; re-authenticate once and
			// repeat the attempt without consuming the retry budget.
			reauthed = true
			c.invalidateToken()
			if err := c.Authenticate(ctx); err != nil {
				return nil, err
			}
			attempt--
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			lastStatus = resp.StatusCode
			lastRetryAfter = resp.Header.Get("Retry-After")
			lastExcerpt = excerpt(body)
			lastErr = nil
			continue

		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Client errors other than 429 are not retryable.
			return nil, &FetchError{
				Resource:   resource,
				StatusCode: resp.StatusCode,
				Excerpt:    excerpt(body),
				Attempts:   attempt,
			}

		default:
			lastStatus = resp.StatusCode
			lastExcerpt = excerpt(body)
			lastErr = nil
		}
	}

	return nil, &FetchError{
		Resource:   resource,
		StatusCode: lastStatus,
		Excerpt:    lastExcerpt,
		Attempts:   c.config.MaxAttempts,
		Err:        lastErr,
	}
}

// retryAfter parses a Retry-After header value in seconds, falling back to
// the configured wait.
func (c *Client) retryAfter(header string) time.Duration {
	if header == "" {
		return c.config.RateLimitWait
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return c.config.RateLimitWait
	}
	return time.Duration(secs) * time.Second
}

func excerpt(body []byte) string {
	if len(body) > excerptSize {
		body = body[:excerptSize]
	}
	return string(body)
}

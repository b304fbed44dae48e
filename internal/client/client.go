// Package client is the HTTP client for the clipshare API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/abdul-hamid-achik/clipshare/internal/store"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

const userAgent = "clip-cli/1.0"

// Client is the clipshare API client.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	cache      *ResultCache
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAdminToken sets the bearer token sent with cleanup requests.
func WithAdminToken(token string) Option {
	return func(c *Client) { c.adminToken = token }
}

// WithCache sets the read-result cache. A nil cache disables caching.
func WithCache(cache *ResultCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		cache:  NewResultCache(DefaultCacheSize, DefaultCacheTTL),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup is the result of reading an entry.
type Lookup struct {
	Exists  bool         `json:"exists"`
	Expired bool         `json:"expired,omitempty"`
	Entry   *store.Entry `json:"entry,omitempty"`
}

// EntryInput is the body of an entry write. A zero TTLMinutes asks for the
// server default.
type EntryInput struct {
	Content     string `json:"content"`
	IsProtected bool   `json:"isProtected"`
	TTLMinutes  int    `json:"ttlMinutes,omitempty"`
}

// APIResponse wraps API responses.
type APIResponse struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error *APIError       `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// request sends body as JSON and decodes the data field of the response
// into out when out is non-nil.
func (c *Client) request(ctx context.Context, method, path string, body, out any, header http.Header) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range header {
		req.Header[k] = v
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api_request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		var apiResp APIResponse
		if err := json.Unmarshal(respBody, &apiResp); err == nil && apiResp.Error != nil {
			apiResp.Error.Status = resp.StatusCode
			return apiResp.Error
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}
	return nil
}

func entryPath(id string) string {
	return "/api/v1/entries/" + url.PathEscape(id)
}

// cached returns the cached result for key or calls fetch and caches it.
func cached[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if c.cache != nil {
		c.cache.Add(key, v)
	}
	return v, nil
}

func (c *Client) invalidate(id string) {
	if c.cache != nil {
		c.cache.Invalidate(id)
	}
}

// GetEntry reads an entry. Results are cached.
func (c *Client) GetEntry(ctx context.Context, id string) (Lookup, error) {
	return cached(c, CacheKey("getEntry", id), func() (Lookup, error) {
		var res Lookup
		err := c.request(ctx, http.MethodGet, entryPath(id), nil, &res, nil)
		return res, err
	})
}

// PutEntry creates or updates the entry with the given id.
func (c *Client) PutEntry(ctx context.Context, id string, in EntryInput) (*store.Entry, error) {
	c.invalidate(id)
	var e store.Entry
	if err := c.request(ctx, http.MethodPut, entryPath(id), in, &e, nil); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEntry stores a new entry under a server-generated id.
func (c *Client) CreateEntry(ctx context.Context, in EntryInput) (*store.Entry, error) {
	var e store.Entry
	if err := c.request(ctx, http.MethodPost, "/api/v1/entries", in, &e, nil); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEntry removes an entry and its secret.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	c.invalidate(id)
	return c.request(ctx, http.MethodDelete, entryPath(id), nil, nil, nil)
}

// SecretExists reports whether a secret is set for id. Results are cached.
func (c *Client) SecretExists(ctx context.Context, id string) (bool, error) {
	return cached(c, CacheKey("secretExists", id), func() (bool, error) {
		var res struct {
			Exists bool `json:"exists"`
		}
		err := c.request(ctx, http.MethodGet, entryPath(id)+"/secret", nil, &res, nil)
		return res.Exists, err
	})
}

// SetSecret sets the secret for id.
func (c *Client) SetSecret(ctx context.Context, id, secret string) error {
	c.invalidate(id)
	return c.request(ctx, http.MethodPost, entryPath(id)+"/secret",
		map[string]string{"password": secret}, nil, nil)
}

// VerifySecret checks secret against the stored digest. Never cached.
func (c *Client) VerifySecret(ctx context.Context, id, secret string) (bool, error) {
	var res struct {
		Valid bool `json:"valid"`
	}
	err := c.request(ctx, http.MethodPut, entryPath(id)+"/secret/verify",
		map[string]string{"password": secret}, &res, nil)
	return res.Valid, err
}

// DeleteSecret removes the secret for id.
func (c *Client) DeleteSecret(ctx context.Context, id string) error {
	c.invalidate(id)
	return c.request(ctx, http.MethodDelete, entryPath(id)+"/secret", nil, nil, nil)
}

// Cleanup asks the server to sweep expired entries and returns the removed
// ids.
func (c *Client) Cleanup(ctx context.Context) ([]string, error) {
	if c.cache != nil {
		c.cache.Purge()
	}
	var header http.Header
	if c.adminToken != "" {
		header = http.Header{"Authorization": {"Bearer " + c.adminToken}}
	}
	var res struct {
		Deleted []string `json:"deleted"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/v1/cleanup", struct{}{}, &res, header); err != nil {
		return nil, err
	}
	return res.Deleted, nil
}

// Health reports whether the server is ready.
func (c *Client) Health(ctx context.Context) error {
	return c.request(ctx, http.MethodGet, "/ready", nil, nil, nil)
}

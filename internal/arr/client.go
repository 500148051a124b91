// Package arr talks to Radarr and Sonarr. The pipeline only needs to verify
// the endpoints are alive before a scan when the operator requires it.
package arr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal Radarr/Sonarr v3 API client.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewRadarr builds a Radarr client.
func NewRadarr(baseURL, apiKey string, opts ...Option) *Client {
	return newClient("radarr", baseURL, apiKey, opts...)
}

// NewSonarr builds a Sonarr client.
func NewSonarr(baseURL, apiKey string, opts ...Option) *Client {
	return newClient("sonarr", baseURL, apiKey, opts...)
}

func newClient(name, baseURL, apiKey string, opts ...Option) *Client {
	client := &Client{
		name:       name,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies which service the client targets.
func (c *Client) Name() string {
	return c.name
}

// Configured reports whether the client has both a URL and an API key.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// TestConnection probes the system status endpoint and reports whether the
// service answered with its API key accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("%s is not configured", c.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/system/status", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", c.name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s rejected the api key", c.name)
	default:
		return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}
}

// CheckAll verifies every configured client; a nil client is skipped. It
// returns the first failure encountered.
func CheckAll(ctx context.Context, clients ...*Client) error {
	for _, client := range clients {
		if client == nil {
			continue
		}
		if err := client.TestConnection(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ErrNoneConfigured indicates the gate found nothing to check.
var ErrNoneConfigured = errors.New("no arr services configured")

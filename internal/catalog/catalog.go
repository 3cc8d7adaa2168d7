// Package catalog looks up stable external identifiers for matched artists
// in a third-party music metadata service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"gigsnap/internal/config"
	"gigsnap/internal/logging"
)

const (
	defaultTimeout = 10 * time.Second
	// tokenSlack refreshes tokens slightly before their announced expiry so
	// an in-flight request never carries a token that dies mid-request.
	tokenSlack = 30 * time.Second
)

// Client queries the catalog service using OAuth client-credentials tokens.
// Tokens are cached with their expiry and refreshed on demand, never eagerly.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New constructs a catalog client from configuration.
func New(cfg config.Catalog, logger *slog.Logger) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		tokenURL:     strings.TrimSpace(cfg.TokenURL),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logging.NewComponentLogger(logger, "catalog"),
		now:          time.Now,
	}
}

// WithHTTPClient overrides the HTTP client, for tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Artist is one catalog search hit.
type Artist struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

// SearchArtist returns the best catalog hit for an artist name, or an empty
// MBID when the catalog has never heard of them.
func (c *Client) SearchArtist(ctx context.Context, name string) (Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Artist{}, errors.New("catalog search: empty artist name")
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return Artist{}, err
	}

	endpoint := c.baseURL + "/artists/search?q=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Artist{}, fmt.Errorf("catalog search: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Artist{}, fmt.Errorf("catalog search: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artist{}, fmt.Errorf("catalog search: read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Artist{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Artist{}, fmt.Errorf("catalog search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Artists []Artist `json:"artists"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Artist{}, fmt.Errorf("catalog search: decode: %w", err)
	}
	if len(parsed.Artists) == 0 {
		return Artist{}, nil
	}
	return parsed.Artists[0], nil
}

// accessToken returns the cached token, fetching a fresh one when the cache
// is empty or within the slack window of expiring. The mutex covers the
// whole refresh so concurrent callers never stampede the token endpoint.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(tokenSlack).Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("catalog token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("catalog token: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("catalog token: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("catalog token: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("catalog token: decode: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("catalog token: empty access_token")
	}
	if parsed.ExpiresIn <= 0 {
		parsed.ExpiresIn = 3600
	}

	c.token = parsed.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	c.logger.Debug("refreshed catalog token",
		logging.String("expires_at", c.tokenExpiry.Format(time.RFC3339)))
	return c.token, nil
}

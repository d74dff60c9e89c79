package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shokofin/shokofin/internal/config"
	"github.com/shokofin/shokofin/internal/shoko"
	shokohttp "github.com/shokofin/shokofin/internal/shoko/http"
)

const apiKeyHeader = "apikey"

// Client talks to the Shoko Server v3 REST API
type Client struct {
	baseURL    string
	publicURL  string
	httpClient *shokohttp.Client
	cache      *SeriesCache
	debug      bool
	logger     *slog.Logger

	mu     sync.RWMutex
	apiKey string
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg == nil {
		cfg = config.Default()
	}

	if logger == nil {
		logger = slog.Default()
	}

	httpClient := shokohttp.NewClient(shokohttp.ClientConfig{
		Timeout:    cfg.Shoko.Timeout,
		MaxRetries: cfg.Shoko.MaxRetries,
		Debug:      cfg.Advanced.Debug,
		Logger:     logger,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.Shoko.URL, "/"),
		publicURL:  cfg.Shoko.PublicBaseURL(),
		httpClient: httpClient,
		cache:      NewSeriesCache(),
		debug:      cfg.Advanced.Debug,
		logger:     logger,
		apiKey:     cfg.Shoko.APIKey,
	}
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Cache returns the series cache
func (c *Client) Cache() *SeriesCache {
	return c.cache
}

// SetAPIKey replaces the key sent with every request
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// HasAPIKey reports whether requests are authenticated
func (c *Client) HasAPIKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// ImageURL returns the public URL for img, or "" when it cannot be served
func (c *Client) ImageURL(img shoko.Image) string {
	return img.URL(c.publicURL)
}

// Login exchanges a username and password for an API key. The key is also
// stored on the client. An empty device name gets a generated one.
func (c *Client) Login(ctx context.Context, username, password, device string) (string, error) {
	if device == "" {
		device = "shokofin-" + uuid.NewString()[:8]
	}

	body := loginRequest{User: username, Pass: password, Device: device}

	var response loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth", nil, body, &response); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if response.APIKey == "" {
		return "", fmt.Errorf("login failed: %w: response has no apikey", shoko.ErrSchemaMismatch)
	}

	c.SetAPIKey(response.APIKey)
	return response.APIKey, nil
}

// Health returns an error unless the server has finished starting up
func (c *Client) Health(ctx context.Context) (*ServerStatus, error) {
	var status ServerStatus
	if err := c.do(ctx, http.MethodGet, "/api/v3/Init/Status", nil, nil, &status); err != nil {
		return nil, err
	}

	if !status.Started() {
		if status.StartupMessage != "" {
			return &status, fmt.Errorf("server is not ready (%s): %s", status.State, status.StartupMessage)
		}
		return &status, fmt.Errorf("server is not ready (%s)", status.State)
	}

	return &status, nil
}

// GetSeries retrieves a series, serving repeated lookups from the cache
func (c *Client) GetSeries(ctx context.Context, id int) (*shoko.Series, error) {
	if cached, ok := c.cache.Get(id); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("/api/v3/Series/%d", id)
	params := url.Values{"includeDataFrom": {"AniDB"}}

	body, err := c.raw(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, fmt.Errorf("get series %d failed: %w", id, err)
	}

	series, err := shoko.Unmarshal[shoko.Series](body)
	if err != nil {
		return nil, fmt.Errorf("get series %d failed: %w", id, err)
	}

	c.cache.Set(id, series)
	return series, nil
}

// RefreshSeries drops the cached copy of a series and fetches it again
func (c *Client) RefreshSeries(ctx context.Context, id int) (*shoko.Series, error) {
	c.cache.Invalidate(id)
	return c.GetSeries(ctx, id)
}

// ListSeries retrieves every series the server knows about and caches them
func (c *Client) ListSeries(ctx context.Context) ([]shoko.Series, error) {
	params := url.Values{
		"pageSize":        {"0"},
		"includeDataFrom": {"AniDB"},
	}

	list, err := listOf[shoko.Series](ctx, c, "/api/v3/Series", params)
	if err != nil {
		return nil, fmt.Errorf("list series failed: %w", err)
	}

	for i := range list {
		c.cache.Set(list[i].IDs.ID, &list[i])
	}
	return list, nil
}

// GetSeriesEpisodes retrieves all episodes of a series, hidden ones included
func (c *Client) GetSeriesEpisodes(ctx context.Context, seriesID int) ([]shoko.Episode, error) {
	endpoint := fmt.Sprintf("/api/v3/Series/%d/Episode", seriesID)
	params := url.Values{
		"pageSize":        {"0"},
		"includeHidden":   {"true"},
		"includeDataFrom": {"AniDB"},
		"includeXRefs":    {"true"},
	}

	episodes, err := listOf[shoko.Episode](ctx, c, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("get episodes for series %d failed: %w", seriesID, err)
	}

	if c.debug {
		c.logger.Debug("fetched series episodes", "series", seriesID, "count", len(episodes))
	}

	return episodes, nil
}

// GetEpisode retrieves a single episode
func (c *Client) GetEpisode(ctx context.Context, id int) (*shoko.Episode, error) {
	endpoint := fmt.Sprintf("/api/v3/Episode/%d", id)
	params := url.Values{
		"includeDataFrom": {"AniDB"},
		"includeXRefs":    {"true"},
	}

	body, err := c.raw(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, fmt.Errorf("get episode %d failed: %w", id, err)
	}

	episode, err := shoko.Unmarshal[shoko.Episode](body)
	if err != nil {
		return nil, fmt.Errorf("get episode %d failed: %w", id, err)
	}
	return episode, nil
}

// SetEpisodeWatched marks an episode watched or unwatched on the server
func (c *Client) SetEpisodeWatched(ctx context.Context, id int, watched bool) error {
	endpoint := fmt.Sprintf("/api/v3/Episode/%d/Watched/%s", id, strconv.FormatBool(watched))
	if _, err := c.raw(ctx, http.MethodPost, endpoint, nil, nil); err != nil {
		return fmt.Errorf("set watched state of episode %d failed: %w", id, err)
	}
	return nil
}

func listOf[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	body, err := c.raw(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}

	envelope, err := shoko.Unmarshal[listResult](body)
	if err != nil {
		return nil, err
	}

	items, err := shoko.Unmarshal[[]T](envelope.List)
	if err != nil {
		return nil, err
	}
	return *items, nil
}

// do performs a request and decodes a JSON response into result
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body, result interface{}) error {
	data, err := c.raw(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: decode %T: %w", shoko.ErrSchemaMismatch, result, err)
	}
	return nil
}

// raw performs a request and returns the response body
func (c *Client) raw(ctx context.Context, method, endpoint string, params url.Values, body interface{}) ([]byte, error) {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	headers := map[string]string{}
	c.mu.RLock()
	if c.apiKey != "" {
		headers[apiKeyHeader] = c.apiKey
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(ctx, method, fullURL, body, headers)
	if err != nil {
		var statusErr *shokohttp.StatusError
		if errors.As(err, &statusErr) {
			return nil, newAPIError(statusErr.StatusCode, statusErr.Body)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("HTTP request failed (is Shoko Server running at %s?): %w", c.baseURL, err)
	}

	return resp.Body(), nil
}

func newAPIError(status int, body []byte) *APIError {
	var problem problemDetails
	if err := json.Unmarshal(body, &problem); err == nil {
		switch {
		case problem.Detail != "":
			return &APIError{Status: status, Message: problem.Detail}
		case problem.Title != "":
			return &APIError{Status: status, Message: problem.Title}
		}
	}

	if msg := strings.TrimSpace(string(body)); msg != "" {
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}

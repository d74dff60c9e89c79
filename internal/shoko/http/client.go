package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty.Client with retry logic and timeout handling
type Client struct {
	resty      *resty.Client
	maxRetries int
	timeout    time.Duration
	debug      bool
	logger     *slog.Logger
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout time.Duration
	// MaxRetries of zero means the default; a negative value disables retries.
	MaxRetries int
	RetryWait  time.Duration
	UserAgent  string
	Debug      bool
	Logger     *slog.Logger
}

// StatusError is returned for responses with a 4xx or 5xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d for %s %s: %s", e.StatusCode, e.Method, e.URL, truncate(string(e.Body), 200))
}

// DefaultClientConfig returns sensible defaults for HTTP client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryWait:  time.Second,
		UserAgent:  "shokofin/1.0",
	}
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config ClientConfig) *Client {
	defaults := DefaultClientConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	switch {
	case config.MaxRetries == 0:
		config.MaxRetries = defaults.MaxRetries
	case config.MaxRetries < 0:
		config.MaxRetries = 0
	}
	if config.RetryWait == 0 {
		config.RetryWait = defaults.RetryWait
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(config.RetryWait).
		SetRetryMaxWaitTime(5*config.RetryWait).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json")

	// Retry on network errors, 5xx and 429; never once the caller gave up
	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if r != nil && r.Request != nil && r.Request.Context().Err() != nil {
			return false
		}
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
	})

	client := &Client{
		resty:      restyClient,
		maxRetries: config.MaxRetries,
		timeout:    config.Timeout,
		debug:      config.Debug,
		logger:     config.Logger,
	}

	if config.Debug && config.Logger != nil {
		restyClient.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
			client.logRequest(r)
			return nil
		})
		restyClient.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
			client.logResponse(r)
			return nil
		})
	}

	return client
}

// Get performs a GET request with context support
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// Post performs a POST request with context support
func (c *Client) Post(ctx context.Context, url string, body interface{}, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, headers)
}

// Delete performs a DELETE request with context support
func (c *Client) Delete(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, http.MethodDelete, url, nil, headers)
}

// Do performs a request. Responses with a status of 400 or above are returned
// together with a *StatusError.
func (c *Client) Do(ctx context.Context, method, url string, body interface{}, headers map[string]string) (*resty.Response, error) {
	req := c.resty.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	for key, value := range headers {
		req.SetHeader(key, value)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s request failed for %s: %w", method, url, err)
	}

	if resp.StatusCode() >= 400 {
		return resp, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}

	return resp, nil
}

// SetHeader sets a default header for all requests
func (c *Client) SetHeader(key, value string) {
	c.resty.SetHeader(key, value)
}

// SetHeaders sets multiple default headers
func (c *Client) SetHeaders(headers map[string]string) {
	c.resty.SetHeaders(headers)
}

// GetTimeout returns the configured timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// GetMaxRetries returns the configured max retries
func (c *Client) GetMaxRetries() int {
	return c.maxRetries
}

func (c *Client) logRequest(r *resty.Request) {
	c.logger.Debug("HTTP Request",
		"method", r.Method,
		"url", r.URL,
	)
}

func (c *Client) logResponse(r *resty.Response) {
	c.logger.Debug("HTTP Response",
		"status", r.StatusCode(),
		"url", r.Request.URL,
		"time", r.Time(),
		"body", truncate(r.String(), 1000),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}

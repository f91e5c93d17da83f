package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ytcbow/config"
	"ytcbow/metrics"
)

// API is the subset of the YouTube Data API client the crawlers depend on.
type API interface {
	Get(ctx context.Context, method string, params map[string]string) (json.RawMessage, error)
}

// Client performs authenticated GET requests against the YouTube Data API v3.
type Client struct {
	baseURL   string
	key       string
	quotaUser string
	http      *http.Client
	retry     RetryConfig
}

func NewClient(cfg *config.Config, key string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/") + "/",
		key:       key,
		quotaUser: cfg.QuotaUser,
		http: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retry: RetryConfig{
			Attempts: cfg.MaxAttempts,
			Delay:    cfg.RetryDelay,
		},
	}
}

// WithRetry replaces the retry policy, mostly for tests.
func (c *Client) WithRetry(rc RetryConfig) *Client {
	c.retry = rc
	return c
}

// Get issues GET <base>/<method>?params&key=..&quotaUser=.. and returns the parsed JSON body.
// Empty parameter values are omitted. The HTTP status is not inspected; API errors come back
// as JSON documents and surface later as a ShapeError.
func (c *Client) Get(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("key", c.key)
	q.Set("quotaUser", c.quotaUser)
	endpoint := c.baseURL + method + "?" + q.Encode()

	onRetry := func(attempt int, err error) {
		metrics.YouTubeRetriesTotal.WithLabelValues(method).Inc()
	}
	body, err := RetryDo(ctx, c.retry, onRetry, func() (json.RawMessage, error) {
		body, err := c.do(ctx, endpoint)
		metrics.YouTubeRequestsTotal.WithLabelValues(method, metrics.Status(err)).Inc()
		return body, err
	})
	if err != nil {
		return nil, fmt.Errorf("youtube data API %s: %w", method, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON response (HTTP %d)", resp.StatusCode)
	}
	return json.RawMessage(data), nil
}

// ShapeError reports a response that lacks a required key. It carries the raw payload.
type ShapeError struct {
	Method string
	Key    string
	Raw    json.RawMessage
}

func (e *ShapeError) Error() string {
	raw := string(e.Raw)
	if len(raw) > 512 {
		raw = raw[:512] + "..."
	}
	return fmt.Sprintf("youtube data API %s: unexpected response shape, missing %s: %s", e.Method, e.Key, raw)
}

// decode unmarshals a response into v, reporting failure as a ShapeError.
func decode(method string, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &ShapeError{Method: method, Key: "valid document (" + err.Error() + ")", Raw: raw}
	}
	return nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cuemby/cattle-tools/pkg/config"
	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval is the pause between re-fetches while waiting
	DefaultPollInterval = 1 * time.Second

	// DefaultRequestTimeout bounds a single API call
	DefaultRequestTimeout = 30 * time.Second

	// RequestIDHeader carries a per-call id that also appears in log lines
	RequestIDHeader = "X-Request-Id"
)

// Client talks to a single Cattle v2-beta API endpoint
type Client struct {
	baseURL      *url.URL
	accessKey    string
	secretKey    string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPollInterval sets the pause between re-fetches in AwaitActive and
// AwaitHealthy
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = d
	}
}

// WithLogger replaces the component logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the endpoint and keys in cfg
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(config.WithTrailingSlash(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("invalid cattle url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("cattle url must be absolute, got %q", cfg.URL)
	}

	c := &Client{
		baseURL:   base,
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: DefaultRequestTimeout,
		},
		pollInterval: DefaultPollInterval,
		logger:       log.WithComponent("client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the API root every relative path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolve turns a path relative to the API root, or an absolute URL taken
// from a document's links, into a request URL
func (c *Client) resolve(pathOrURL string) (*url.URL, error) {
	ref, err := url.Parse(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("invalid resource path %q: %w", pathOrURL, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	return c.baseURL.ResolveReference(ref), nil
}

// Do performs an authenticated request and decodes the JSON response into
// out. params is a struct with `url` tags (or nil) added to the query
// string; body, when non-nil, is sent as JSON. Any non-2xx status returns
// an *HTTPError.
func (c *Client) Do(ctx context.Context, method, pathOrURL string, params, body, out interface{}) error {
	u, err := c.resolve(pathOrURL)
	if err != nil {
		return err
	}

	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("failed to encode query parameters: %w", err)
		}
		q := u.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.SetBasicAuth(c.accessKey, c.secretKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", u.Redacted()).
		Logger()

	timer := metrics.NewTimer()
	resp, err := c.httpClient.Do(req)
	timer.ObserveDurationVec(metrics.APIRequestDuration, method)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "error").Inc()
		logger.Debug().Err(err).Msg("API request failed")
		return fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", timer.Duration()).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{
			Method:     method,
			URL:        u.Redacted(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, u.Redacted(), err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, pathOrURL string, params, out interface{}) error {
	return c.Do(ctx, http.MethodGet, pathOrURL, params, nil, out)
}

func (c *Client) post(ctx context.Context, pathOrURL string, params, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, pathOrURL, params, body, out)
}

func (c *Client) put(ctx context.Context, pathOrURL string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, pathOrURL, nil, body, out)
}

// nameFilter is the server-side name filter on collection listings
type nameFilter struct {
	Name string `url:"name"`
}

// actionParams dispatches a resource action
type actionParams struct {
	Action string `url:"action"`
}

func servicesPath(projectID string) string {
	return fmt.Sprintf("projects/%s/services", url.PathEscape(projectID))
}

func servicePath(projectID, serviceID string) string {
	return fmt.Sprintf("%s/%s", servicesPath(projectID), url.PathEscape(serviceID))
}

func stacksPath(projectID string) string {
	return fmt.Sprintf("projects/%s/stacks", url.PathEscape(projectID))
}

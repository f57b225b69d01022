// Package client is a typed JSON client for the scheduler REST API.
//
// Every call is a single attempt: there are no retries and no client-side
// timeout, the caller's context is the only deadline. Responses outside the
// 2xx range are handed to the configured ErrorMapper and its result is
// returned as the error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
)

// Header names used by the client
const (
	HeaderETag        = "ETag"
	HeaderIfMatch     = "If-Match"
	HeaderRequestID   = "X-Request-ID"
	HeaderContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// ErrorMapper converts a non-2xx response into an error
type ErrorMapper func(resp *http.Response) error

// Client performs JSON calls against a single scheduler origin
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	mapError   ErrorMapper
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.SugaredLogger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithErrorMapper replaces apierror.Map
func WithErrorMapper(mapper ErrorMapper) Option {
	return func(c *Client) {
		c.mapError = mapper
	}
}

// WithRateLimit paces outgoing requests. A non-positive limit disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header of every request
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the scheduler at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse scheduler base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("scheduler base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: cleanhttp.DefaultPooledClient(),
		mapError:   apierror.Map,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the scheduler origin the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List issues GET path and returns the items of the {"items": [...]} envelope
func List[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list struct {
		Items []T `json:"items"`
	}
	if err := decode(resp, &list); err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	if list.Items == nil {
		list.Items = []T{}
	}

	return list.Items, nil
}

// Get issues GET path and returns the decoded body with the ETag header,
// which is empty when the server sent none
func Get[T any](ctx context.Context, c *Client, path string) (T, string, error) {
	var item T

	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return item, "", err
	}
	defer resp.Body.Close()

	if err := decode(resp, &item); err != nil {
		return item, "", errors.Wrapf(err, "GET %s", path)
	}

	return item, resp.Header.Get(HeaderETag), nil
}

// Post issues POST path with body as JSON and decodes the response into out.
// out may be nil when the response is not needed. A *[]byte out receives
// the body verbatim.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, http.MethodPost, path, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch out := out.(type) {
	case nil:
		return nil
	case *[]byte:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrapf(err, "POST %s", path)
		}
		*out = raw
		return nil
	}
	// an empty body leaves out untouched
	if err := decode(resp, out); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "POST %s", path)
	}

	return nil
}

// Patch issues PATCH path with body as JSON.
// A non-empty etag makes the update conditional via If-Match.
func (c *Client) Patch(ctx context.Context, path string, body any, etag string) error {
	resp, err := c.do(ctx, http.MethodPatch, path, body, etag)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Delete issues DELETE path.
// A non-empty etag makes the delete conditional via If-Match.
func (c *Client) Delete(ctx context.Context, path string, etag string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, etag)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// resolve joins path (which may carry a query) onto the base url
func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse request path %q", path)
	}

	u := c.baseURL.JoinPath(ref.EscapedPath())
	u.RawQuery = ref.RawQuery

	return u.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, etag string) (*http.Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s %s body", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s %s", method, path)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set(HeaderContentType, contentTypeJSON)
	}
	if etag != "" {
		req.Header.Set(HeaderIfMatch, etag)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("scheduler request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err.Error(),
		)
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}

	c.logger.Debugw("scheduler request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, c.mapError(resp)
	}

	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

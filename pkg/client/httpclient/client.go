package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/devantler-tech/apitest/pkg/client/netretry"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/siderolabs/go-retry/retry"
)

const (
	// DefaultRetryTimeout bounds the total time spent retrying a request.
	DefaultRetryTimeout = 10 * time.Second
	// DefaultRetryInterval is the pause between two attempts.
	DefaultRetryInterval = 250 * time.Millisecond
	// DefaultRequestTimeout bounds a single attempt.
	DefaultRequestTimeout = 30 * time.Second
)

var (
	// ErrNodeOutOfRange is returned when asking for a node the cluster does not have.
	ErrNodeOutOfRange = errors.New("node index out of range")
	// ErrUnexpectedStatus is wrapped by StatusError.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Client sends requests to a single cluster node.
type Client struct {
	baseURL       string
	auth          *testlib.Auth
	httpClient    *http.Client
	retryTimeout  time.Duration
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetry sets the retry budget. A zero timeout disables retries.
func WithRetry(timeout, interval time.Duration) Option {
	return func(c *Client) {
		c.retryTimeout = timeout
		c.retryInterval = interval
	}
}

// New creates a client for baseURL authenticating with auth.
func New(baseURL string, auth testlib.Auth, opts ...Option) *Client {
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		auth:          &auth,
		httpClient:    newHTTPClient(),
		retryTimeout:  DefaultRetryTimeout,
		retryInterval: DefaultRetryInterval,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ForNode creates a client for the node-th node of the cluster.
func ForNode(cluster testlib.Cluster, node int, opts ...Option) (*Client, error) {
	urls := cluster.URLs()
	if node < 0 || node >= len(urls) {
		return nil, fmt.Errorf("%w: %d (cluster has %d nodes)", ErrNodeOutOfRange, node, len(urls))
	}

	return New(urls[node], cluster.Auth(), opts...), nil
}

// ForCluster creates one client per node, in node order.
func ForCluster(cluster testlib.Cluster, opts ...Option) []*Client {
	urls := cluster.URLs()
	clients := make([]*Client, 0, len(urls))

	for _, baseURL := range urls {
		clients = append(clients, New(baseURL, cluster.Auth(), opts...))
	}

	return clients
}

// newHTTPClient honours proxy settings from the environment.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	transport.Proxy = http.ProxyFromEnvironment

	return &http.Client{Transport: transport, Timeout: DefaultRequestTimeout}
}

// BaseURL returns the node base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Anonymous returns a copy of the client that sends no credentials.
func (c *Client) Anonymous() *Client {
	clone := *c
	clone.auth = nil

	return &clone
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, "")
}

// PostForm sends form-encoded values.
func (c *Client) PostForm(ctx context.Context, path string, values url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, []byte(values.Encode()), "application/x-www-form-urlencoded")
}

// PostJSON sends payload encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	return c.Do(ctx, http.MethodPost, path, body, "application/json")
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, "")
}

// GetJSON fetches path, requires a 200 response and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}

	err = resp.ExpectStatus(http.StatusOK)
	if err != nil {
		return err
	}

	return resp.DecodeJSON(out)
}

// Do sends a request, retrying transient failures within the retry budget.
//
// Idempotent methods (GET, HEAD, OPTIONS) are retried on transient network
// errors and on 5xx or 429 statuses. Other methods are only retried when the
// connection was refused, so the node never received them. Statuses are never
// errors: once the budget is spent the last response is returned as is.
func (c *Client) Do(
	ctx context.Context,
	method, path string,
	body []byte,
	contentType string,
) (*Response, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")

	if c.retryTimeout <= 0 {
		resp, err := c.attempt(ctx, method, target, body, contentType)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, target, err)
		}

		return resp, nil
	}

	idempotent := isIdempotent(method)

	var (
		resp    *Response
		lastErr error
	)

	retryErr := retry.Constant(c.retryTimeout, retry.WithUnits(c.retryInterval)).
		RetryWithContext(ctx, func(ctx context.Context) error {
			var err error

			resp, err = c.attempt(ctx, method, target, body, contentType)
			lastErr = err

			switch {
			case err != nil && idempotent && netretry.IsRetryable(err):
				return retry.ExpectedError(err)
			case err != nil && netretry.IsConnectionRefused(err):
				return retry.ExpectedError(err)
			case err != nil:
				return err
			case idempotent && netretry.IsRetryableStatus(resp.StatusCode):
				return retry.ExpectedError(resp.statusError())
			default:
				return nil
			}
		})
	if retryErr == nil {
		return resp, nil
	}

	if lastErr == nil && resp != nil {
		return resp, nil
	}

	if lastErr == nil {
		lastErr = retryErr
	}

	return nil, fmt.Errorf("%s %s: %w", method, target, lastErr)
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func (c *Client) attempt(
	ctx context.Context,
	method, target string,
	body []byte,
	contentType string,
) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.auth != nil && c.auth.Username != "" {
		req.SetBasicAuth(c.auth.Username, c.auth.Password)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header.Clone(),
		Body:       data,
	}, nil
}

// Response is a fully read HTTP response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ExpectStatus returns a *StatusError unless the status is one of codes.
func (r *Response) ExpectStatus(codes ...int) error {
	if slices.Contains(codes, r.StatusCode) {
		return nil
	}

	return r.statusError()
}

// DecodeJSON decodes the body into out.
func (r *Response) DecodeJSON(out any) error {
	err := json.Unmarshal(r.Body, out)
	if err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.Method, r.URL, err)
	}

	return nil
}

func (r *Response) statusError() *StatusError {
	return &StatusError{
		Method:     r.Method,
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       string(r.Body),
	}
}

// StatusError reports a response with an unexpected status code.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

const maxBodyInError = 200

// Error implements the error interface.
func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > maxBodyInError {
		body = body[:maxBodyInError] + "..."
	}

	return fmt.Sprintf("%s %s: %d %s: %s",
		e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), strings.TrimSpace(body))
}

// Unwrap lets callers match ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

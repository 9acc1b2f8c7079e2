// Package supabase implements the backend ports against a Supabase project:
// GoTrue for identity, PostgREST for tasks, Storage for images and
// Realtime for insert notifications.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default retry settings for idempotent requests.
const (
	defaultAttempts = 3
	defaultBackoff  = 200 * time.Millisecond
	defaultTimeout  = 30 * time.Second
)

// APIError is an error response from a Supabase service.
type APIError struct {
	Message string
	Code    string
	Status  int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Temporary reports whether retrying may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// errorBody covers the error shapes of GoTrue, PostgREST and Storage.
type errorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	if json.Unmarshal(raw, &body) == nil {
		for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
			if m != "" {
				apiErr.Message = m
				break
			}
		}
		apiErr.Code = body.ErrorCode
		if s, ok := body.Code.(string); ok && apiErr.Code == "" {
			apiErr.Code = s
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// Options configures a Client.
// Fields are ordered to minimize memory padding.
type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	URL        string // Project URL, e.g. https://xyz.supabase.co
	AnonKey    string
	Attempts   int           // Attempts for idempotent requests (0 = 3)
	Backoff    time.Duration // Initial retry delay, doubled per attempt (0 = 200ms)
}

// Client is the shared HTTP core of the Supabase adapters.
// Fields are ordered to minimize memory padding.
type Client struct {
	http     *http.Client
	logger   *slog.Logger
	token    func(ctx context.Context) string
	renew    func(ctx context.Context, stale string) (string, error)
	baseURL  string
	anonKey  string
	attempts int
	backoff  time.Duration
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	c := &Client{
		http:     opts.HTTPClient,
		logger:   opts.Logger,
		baseURL:  strings.TrimRight(opts.URL, "/"),
		anonKey:  opts.AnonKey,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.attempts <= 0 {
		c.attempts = defaultAttempts
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	c.token = func(context.Context) string { return c.anonKey }
	return c
}

// SetTokenSource sets the function supplying the bearer token.
// Until set, requests authenticate with the anon key.
func (c *Client) SetTokenSource(fn func(ctx context.Context) string) {
	c.token = func(ctx context.Context) string {
		if t := fn(ctx); t != "" {
			return t
		}
		return c.anonKey
	}
}

// SetRenewer sets the function that replaces a token the server rejected
// with 401. Requests using the token source are retried once with the
// renewed token.
func (c *Client) SetRenewer(fn func(ctx context.Context, stale string) (string, error)) {
	c.renew = fn
}

// request describes one HTTP call.
// Fields are ordered to minimize memory padding.
type request struct {
	body     any       // JSON-encoded unless Reader is set
	reader   io.Reader // Raw body, never retried
	query    url.Values
	headers  map[string]string
	out      any // Decoded from a JSON response when non-nil
	method   string
	path     string
	bearer   string // Overrides the token source when set
	retrying bool
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs the request. Idempotent requests are retried on network
// errors and 5xx responses with exponential backoff. A request sent with
// the session token is retried once after a 401 if the token can be renewed.
func (c *Client) do(ctx context.Context, r request) error {
	bearer := r.bearer
	if bearer == "" {
		bearer = c.token(ctx)
	}

	err := c.withRetry(ctx, r, bearer)
	if r.bearer != "" || r.reader != nil || c.renew == nil || !unauthorized(err) {
		return err
	}
	renewed, rerr := c.renew(ctx, bearer)
	if rerr != nil || renewed == "" || renewed == bearer {
		return err
	}
	c.logger.Debug("retrying with renewed token", "method", r.method, "path", r.path)
	return c.withRetry(ctx, r, renewed)
}

func (c *Client) withRetry(ctx context.Context, r request, bearer string) error {
	attempts := 1
	if r.retrying && r.reader == nil {
		attempts = c.attempts
	}

	var err error
	delay := c.backoff
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.once(ctx, r, bearer)
		if err == nil || !retryable(err) || attempt == attempts {
			break
		}
		c.logger.Debug("retrying request", "method", r.method, "path", r.path, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func (c *Client) once(ctx context.Context, r request, bearer string) error {
	body := r.reader
	if body == nil && r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint(r.path, r.query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.reader == nil && r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func unauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}

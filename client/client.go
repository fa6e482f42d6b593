// Package client provides the HTTP client used to talk to repository hosts.
//
// Requests are retried on rate limiting and server errors with exponential
// backoff, grouped behind a circuit breaker per host, and dialed through a
// shared DNS cache.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

const (
	defaultUserAgent  = "modsync"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
	maxBodySize       = 32 << 20
)

// Client is an HTTP client with retry logic for repository host APIs.
type Client struct {
	http        *http.Client
	userAgent   string
	maxRetries  int
	baseDelay   time.Duration
	headers     http.Header
	rateLimiter RateLimiter
	tokens      TokenSource
	breakers    *breakerSet

	tokenOnce *sync.Once
	token     *string
	tokenErr  *error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the initial delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithUserAgentOption sets the User-Agent header.
func WithUserAgentOption(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers.Set(name, value)
	}
}

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithRateLimiter paces outgoing requests.
func WithRateLimiter(rl RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = rl
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBreakerThreshold sets how many consecutive upstream failures trip a host's breaker.
func WithBreakerThreshold(n int64) Option {
	return func(c *Client) {
		c.breakers.threshold = n
	}
}

// WithBreakerBackOff sets how long a tripped host stays open before a
// trial request is let through. newBackOff is called once per host.
func WithBreakerBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.breakers.newBackOff = newBackOff
		}
	}
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return NewClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: newTransport(),
		},
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		headers:    make(http.Header),
		breakers:   newBreakerSet(5),
		tokenOnce:  &sync.Once{},
		token:      new(string),
		tokenErr:   new(error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithUserAgent returns a copy of the client using the given User-Agent.
func (c *Client) WithUserAgent(ua string) *Client {
	cp := *c
	cp.headers = c.headers.Clone()
	cp.userAgent = ua
	return &cp
}

// BreakerStates reports the circuit breaker state per host.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.states()
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// GetJSONPage decodes one page of a paginated listing into v and returns
// the URL of the next page, or "" on the last page.
func (c *Client) GetJSONPage(ctx context.Context, url string, v any) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, url)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	return NextLink(resp.Header.Get("Link")), nil
}

// GetBody fetches url and returns the raw body.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetText fetches url and returns the body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Head issues a HEAD request and returns the response headers.
func (c *Client) Head(ctx context.Context, url string) (http.Header, error) {
	resp, err := c.Do(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	return resp.Header, nil
}

// Do performs a request through the host's circuit breaker with retries.
// Client errors such as 404 are returned to the caller but never count
// as breaker failures.
func (c *Client) Do(ctx context.Context, method, url string) (*Response, error) {
	host := hostOf(url)
	breaker := c.breakers.get(host)

	var resp *Response
	var passthrough error
	err := breaker.Call(func() error {
		r, err := c.doWithRetry(ctx, method, url)
		if err != nil {
			if !countsAsFailure(ctx, err) {
				passthrough = err
				return nil
			}
			return err
		}
		resp = r
		return nil
	}, 0)

	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}
	if err != nil {
		return nil, err
	}
	if passthrough != nil {
		return nil, passthrough
	}
	return resp, nil
}

func (c *Client) doWithRetry(ctx context.Context, method, url string) (*Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.baseDelay
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()

	for attempt := 0; ; attempt++ {
		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.doOnce(ctx, method, url)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) || attempt >= c.maxRetries {
			return nil, err
		}

		delay := bo.NextBackOff()
		var rl *RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			delay = time.Duration(rl.RetryAfter) * time.Second
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) doOnce(ctx context.Context, method, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	for name, values := range c.headers {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	token, err := c.resolveToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
		return &Response{
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       body,
		}, nil

	case httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: retryAfter(httpResp.Header)}

	case httpResp.StatusCode == http.StatusForbidden && httpResp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, &RateLimitError{RetryAfter: resetAfter(httpResp.Header)}

	default:
		return nil, &HTTPError{
			StatusCode: httpResp.StatusCode,
			URL:        url,
			Body:       truncate(string(body), 1024),
		}
	}
}

func (c *Client) resolveToken() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	c.tokenOnce.Do(func() {
		*c.token, *c.tokenErr = c.tokens.Token()
	})
	if *c.tokenErr != nil {
		return "", fmt.Errorf("resolving token: %w", *c.tokenErr)
	}
	return *c.token, nil
}

func retryable(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return false
}

// countsAsFailure reports whether err says something about the host's health.
func countsAsFailure(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}

func retryAfter(h http.Header) int {
	if v := h.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func resetAfter(h http.Header) int {
	if n := retryAfter(h); n > 0 {
		return n
	}
	reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return 0
	}
	wait := time.Until(time.Unix(reset, 0))
	if wait <= 0 {
		return 0
	}
	return int(wait.Seconds()) + 1
}

// NextLink extracts the rel="next" target from an RFC 8288 Link header.
func NextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

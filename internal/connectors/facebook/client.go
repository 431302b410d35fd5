package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of attempts for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 32 << 20
)

// Client performs authenticated Graph API requests with rate limiting and
// retries on transient failures.
type Client struct {
	http        *http.Client
	baseURL     string
	rateLimiter *RateLimiter
	retryDelay  time.Duration
	maxRetries  int
}

// NewClient creates a Graph API client for the configured host and version.
func NewClient(cfg *Config) *Client {
	return NewClientWithHTTPClient(cfg, &http.Client{Timeout: DefaultTimeout})
}

// NewClientWithHTTPClient creates a client with a custom http.Client.
func NewClientWithHTTPClient(cfg *Config, httpClient *http.Client) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion != "" {
		base += "/" + strings.Trim(cfg.APIVersion, "/")
	}
	return &Client{
		http:        httpClient,
		baseURL:     base,
		rateLimiter: NewRateLimiter(cfg.RequestsPerSecond),
		retryDelay:  RetryDelay,
		maxRetries:  MaxRetries,
	}
}

// SetRetryDelay overrides the initial delay between retries.
func (c *Client) SetRetryDelay(d time.Duration) {
	c.retryDelay = d
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Get requests path with params, authenticating with a token from ts, and
// decodes the JSON response into out.
//
// Network failures and throttling are retried with exponential backoff.
// Non-2xx responses are returned as *APIError without retry.
func (c *Client) Get(ctx context.Context, ts oauth2.TokenSource, path string, params url.Values, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	delay := c.retryDelay
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			logger.Debug("Retrying %s (attempt %d/%d): %v", path, attempt, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		err := c.do(ctx, ts, endpoint, out)
		if err == nil {
			return nil
		}
		if !isRetryable(ctx, err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// do performs a single request.
func (c *Client) do(ctx context.Context, ts oauth2.TokenSource, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if ts != nil {
		tok, err := ts.Token()
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &networkError{err: err}
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromResponse(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &networkError{err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, body, redactURL(endpoint))
		if resp.StatusCode == http.StatusTooManyRequests || isThrottleCode(apiErr.Code) {
			return fmt.Errorf("%w: %w", c.rateLimiter.RecordThrottle(apiErr.Code), apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// networkError marks transport failures as retryable.
type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network error: " + e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }

// isRetryable reports whether err is transient.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr *networkError
	return errors.As(err, &netErr) || IsRateLimited(err)
}

// redactURL drops the access token from a URL before it is logged or
// reported in errors.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Del("access_token")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

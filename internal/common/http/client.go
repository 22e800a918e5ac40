// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var ErrTimeout = errors.New("request timed out")

// StatusError reports the last non-200 status after retries ran out.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.StatusCode)
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

type Option func(*Client)

// WithRateLimit caps outgoing requests at rps with the given burst. rps <= 0
// leaves requests unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithRetry sets how many times a failed request is repeated and the first
// backoff; each further attempt doubles it.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseDelay:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req.WithContext(ctx))
}

// PostJSON posts body to url, retrying transport errors and non-200
// statuses with exponential backoff. The caller closes the returned body.
// Context expiry at any point yields ErrTimeout.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	return c.doWithRetry(ctx, http.MethodPost, url, body, headers)
}

// GetJSON is PostJSON for GET requests.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return c.doWithRetry(ctx, http.MethodGet, url, nil, headers)
}

func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTimeout
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, ErrTimeout
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if ctx.Err() != nil || isTimeout(err) {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ErrTimeout
		}
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		resp.Body.Close()
		lastErr = &StatusError{StatusCode: resp.StatusCode}
		if !retryableStatus(resp.StatusCode) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// retryableStatus is true for 5xx and 429; any other failure status
// would come back the same on the next attempt.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

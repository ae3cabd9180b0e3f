package metabrainz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// get performs a GET request with retry logic and returns the response body.
//
// Network errors, 429 and 5xx responses are retried with exponential
// backoff. Any other non-200 status is returned as *Error without retrying.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	backoff := c.backoff

	for i := 0; i < c.maxRetries; i++ {
		c.logDebugf("metabrainz: GET %s (attempt %d/%d)", endpoint, i+1, c.maxRetries)

		body, retryAfter, err := c.do(ctx, target, endpoint)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		if !shouldRetry(err) || i == c.maxRetries-1 {
			break
		}

		wait := backoff
		if retryAfter > 0 {
			wait = retryAfter
		}
		c.logDebugf("metabrainz: retrying %s in %s: %v", endpoint, wait, err)
		if !sleep(ctx, wait) {
			return nil, ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}

	var apiErr *Error
	if errors.As(lastErr, &apiErr) && !apiErr.Temporary() {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do issues a single request. The Retry-After delay is returned for 429/503.
func (c *Client) do(ctx context.Context, target, endpoint string) ([]byte, time.Duration, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseRetryAfter(resp), &Error{StatusCode: resp.StatusCode, URL: endpoint}
	}

	return body, 0, nil
}

// shouldRetry checks if a failed attempt is retryable.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Transport level failures (DNS, reset, per-request timeout).
	return true
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff doubles the backoff duration, capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

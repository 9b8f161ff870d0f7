package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// routingStatusError is a non-2xx answer from the routing service.
type routingStatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *routingStatusError) Error() string {
	return fmt.Sprintf("routing service status %d: %s", e.Code, e.Body)
}

type retryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var defaultRetry = retryPolicy{Attempts: 4, Base: 200 * time.Millisecond, Max: 5 * time.Second}

// delay is the wait before attempt+1. A Retry-After hint wins when it asks
// for longer than the backoff; both are capped at Max.
func (p retryPolicy) delay(attempt int, err error) time.Duration {
	d := p.Base << (attempt - 1)
	var se *routingStatusError
	if errors.As(err, &se) && se.RetryAfter > d {
		d = se.RetryAfter
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// call sends one request to the routing service, retrying rate limits, 5xx
// answers and network errors under o.retry. The caller closes the body.
func (o *ORSDistanceProvider) call(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body []byte,
) (*http.Response, error) {
	target := o.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := max(o.retry.Attempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.send(ctx, method, target, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) || attempt == attempts {
			break
		}

		timer := time.NewTimer(o.retry.delay(attempt, err))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%s %s: %w", method, path, lastErr)
}

func (o *ORSDistanceProvider) send(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	se := &routingStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return nil, se
}

func retryable(err error) bool {
	var se *routingStatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

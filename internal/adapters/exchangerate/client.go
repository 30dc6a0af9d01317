// internal/adapters/exchangerate/client.go
package exchangerate

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"propfeed/internal/adapters/observability"
	"propfeed/internal/domain"
)

const DefaultBaseURL = "https://open.er-api.com/v6/latest"

var ErrUpstreamFailed = errors.New("exchangerate: upstream reported failure")

// ErrRateLimited means the local request budget is spent; callers fall back.
var ErrRateLimited = errors.New("exchangerate: local rate limit exceeded")

type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	attempts int
}

// New builds a client for base (e.g. DefaultBaseURL). attempts <= 1 means a
// single request per call; transient failures are left to the next caller.
func New(base string, rps, attempts int) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 2
	}
	if attempts <= 0 {
		attempts = 1
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 10 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: attempts,
	}
}

type latestResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// Latest fetches rates quoted as units of each currency per 1 unit of base.
func (c *Client) Latest(ctx context.Context, base string) (domain.RateTable, error) {
	var out latestResponse
	start := time.Now()
	status, err := c.get(ctx, fmt.Sprintf("%s/%s", c.base, strings.ToUpper(base)), &out)
	observability.ObserveExternal("exchangerate", "latest", status, time.Since(start))
	if err != nil {
		return nil, err
	}
	if out.Result != "success" || len(out.Rates) == 0 {
		return nil, fmt.Errorf("%w: result=%q", ErrUpstreamFailed, out.Result)
	}
	return domain.RateTable(out.Rates), nil
}

// ---- Internals ----

// get performs a GET with client-side rate limiting and JSON decode into out.
// An exhausted limiter fails fast with ErrRateLimited instead of queueing.
// With attempts > 1 it retries 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, url string, out any) (int, error) {
	if !c.rl.Allow() {
		return 0, ErrRateLimited
	}

	last := c.attempts - 1
	var lastErr error
	var lastStatus int
	for i := 0; i < c.attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "propfeed/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = err
			if i < last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, lastErr
		}
		lastStatus = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return resp.StatusCode, err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return resp.StatusCode, ctx.Err()
			}
			return resp.StatusCode, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return resp.StatusCode, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastStatus, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms doubling per attempt plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

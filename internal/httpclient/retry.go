package httpclient

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const (
	backoffBase   = time.Second
	backoffMax    = 60 * time.Second
	backoffFactor = 2.0
	jitterFrac    = 0.25
)

// backoffDelay computes the wait before retry number attempt (1-based).
// A server-provided Retry-After hint replaces the computed backoff
// entirely; the server knows its own window better than our schedule.
func backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > backoffMax {
			return backoffMax
		}
		return retryAfter
	}

	d := backoffBase
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * backoffFactor)
		if d >= backoffMax {
			d = backoffMax
			break
		}
	}
	// Up to 25% extra, never less, so synchronized clients fan out.
	d += time.Duration(rand.Float64() * jitterFrac * float64(d))
	if d > backoffMax {
		d = backoffMax
	}
	return d
}

// retryAfterHint extracts a Retry-After duration from a 429/503 response,
// or zero when absent or unparseable.
func retryAfterHint(resp *Response) time.Duration {
	if resp == nil {
		return 0
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package monzo

import (
	"context"
	"time"
)

// RetryPolicy bounds per-request retries. The policy is a value passed
// to the client so it can be exercised independently of the HTTP
// transport. Counters reset for every page request; retries are
// per-page, not cumulative across a whole fetch.
type RetryPolicy struct {
	// RateLimitAttempts is the total number of tries for a request that
	// keeps answering 429. When the last try is also rate limited the
	// request fails with *RateLimitError.
	RateLimitAttempts int
	// RateLimitBackoff are the delays slept between rate limited tries.
	// The last entry repeats if there are more tries than entries.
	RateLimitBackoff []time.Duration
	// ServerErrorRetries is how many extra tries a 5xx response gets.
	ServerErrorRetries int
	// ServerErrorDelay is the fixed delay before a server error retry.
	ServerErrorDelay time.Duration
}

// DefaultRetryPolicy returns the production policy: three tries for
// rate limits backing off 1s/2s/4s, one retry after 2s for a server
// error.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimitAttempts:  3,
		RateLimitBackoff:   []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		ServerErrorRetries: 1,
		ServerErrorDelay:   2 * time.Second,
	}
}

// rateLimitDelay returns the sleep before retry number n (1-based).
func (p RetryPolicy) rateLimitDelay(n int) time.Duration {
	if len(p.RateLimitBackoff) == 0 {
		return 0
	}
	if n > len(p.RateLimitBackoff) {
		return p.RateLimitBackoff[len(p.RateLimitBackoff)-1]
	}
	return p.RateLimitBackoff[n-1]
}

// sleepFunc waits for a duration, honouring context cancellation.
// Injected in tests to record delays without sleeping.
type sleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package crawl

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/fhircrawl"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*fhircrawl.Response, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetryDelays calls fetch until it succeeds or the delays run out.
// One attempt is made per delay plus the initial one. Transport errors,
// 5xx responses and 429 responses are retried; anything else is returned as
// is, and EINVALID errors are never retried. After the last attempt the last
// response or error is returned.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*fhircrawl.Response, error) {
	maxAttempts := len(delays) + 1

	var resp *fhircrawl.Response
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = fetch(ctx, url)
		if !retryable(resp, err) {
			return resp, err
		}

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %v", url, attempt+2, describe(resp, err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return resp, err
}

func retryable(resp *fhircrawl.Response, err error) bool {
	if err != nil {
		return fhircrawl.ErrorCode(err) != fhircrawl.EINVALID
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

func describe(resp *fhircrawl.Response, err error) any {
	if err != nil {
		return err
	}
	return http.StatusText(resp.StatusCode)
}

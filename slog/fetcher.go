package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/fhircrawl"
)

// Ensure LoggingFetcher implements fhircrawl.Fetcher.
var _ fhircrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging. The token is never logged.
type LoggingFetcher struct {
	next   fhircrawl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next fhircrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the request.
func (f *LoggingFetcher) Fetch(ctx context.Context, url, token string) (resp *fhircrawl.Response, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", url, "duration", time.Since(begin)}
		if resp != nil {
			attrs = append(attrs, "status", resp.StatusCode, "bytes", len(resp.Body))
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		f.logger.Debug("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url, token)
}

package mock

import (
	"context"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of fhircrawl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url, token string) (*fhircrawl.Response, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url, token string) (*fhircrawl.Response, error) {
	return f.FetchFn(ctx, url, token)
}

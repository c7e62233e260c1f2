package mock

import (
	"context"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.RequestQueue = (*RequestQueue)(nil)

// RequestQueue is a mock implementation of fhircrawl.RequestQueue.
type RequestQueue struct {
	AddFn     func(url string) error
	NextFn    func() (string, error)
	HasNextFn func() bool
}

func (q *RequestQueue) Add(url string) error {
	return q.AddFn(url)
}

func (q *RequestQueue) Next() (string, error) {
	return q.NextFn()
}

func (q *RequestQueue) HasNext() bool {
	return q.HasNextFn()
}

var _ fhircrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of fhircrawl.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

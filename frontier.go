package fhircrawl

import "context"

// RequestQueue is the frontier of URLs waiting to be crawled.
// Implementations must be safe for concurrent use.
type RequestQueue interface {
	// Add classifies and enqueues a URL. URLs that were already accepted are
	// ignored. Returns EINVALID if the URL cannot be classified.
	Add(url string) error

	// Next removes and returns the next URL to crawl.
	// Returns ESTATE if the queue is empty.
	Next() (string, error)

	// HasNext reports whether Next would return a URL.
	HasNext() bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

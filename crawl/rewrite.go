package crawl

import (
	"strings"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.RequestQueue = (*RewritingQueue)(nil)

// RewriteConfig configures a RewritingQueue.
type RewriteConfig struct {
	// Replace is the base URL prefix found in links returned by the server.
	Replace string
	// With is the base URL prefix the crawl should request instead.
	With string
}

// Validate returns an error if either prefix is missing.
func (c RewriteConfig) Validate() error {
	if c.Replace == "" {
		return fhircrawl.Errorf(fhircrawl.EINVALID, "replace url required")
	}
	if c.With == "" {
		return fhircrawl.Errorf(fhircrawl.EINVALID, "with url required")
	}
	return nil
}

// RewritingQueue rewrites the base URL of every added request before it
// reaches the wrapped queue. It is used when the server advertises links under
// a public base URL that differs from the one the crawler can reach.
type RewritingQueue struct {
	next    fhircrawl.RequestQueue
	replace string
	with    string
}

// NewRewritingQueue wraps next. Both prefixes are normalized to end in a slash.
// Returns EINVALID if either prefix is empty.
func NewRewritingQueue(next fhircrawl.RequestQueue, cfg RewriteConfig) (*RewritingQueue, error) {
	if next == nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "request queue required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RewritingQueue{
		next:    next,
		replace: withTrailingSlash(cfg.Replace),
		with:    withTrailingSlash(cfg.With),
	}, nil
}

// Add rewrites the prefix of url, if it matches, and forwards it.
func (q *RewritingQueue) Add(url string) error {
	if rest, ok := strings.CutPrefix(url, q.replace); ok {
		url = q.with + rest
	}
	return q.next.Add(url)
}

// Next delegates to the wrapped queue.
func (q *RewritingQueue) Next() (string, error) {
	return q.next.Next()
}

// HasNext delegates to the wrapped queue.
func (q *RewritingQueue) HasNext() bool {
	return q.next.HasNext()
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

package crawl

import (
	"regexp"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.RequestQueue = (*FilteringQueue)(nil)

// FilteringQueue drops search requests the target deployment does not support.
// Reads always pass through so every resource reachable by id is still crawled.
type FilteringQueue struct {
	next  fhircrawl.RequestQueue
	allow *regexp.Regexp
}

// NewFilteringQueue wraps next so that only searches whose full URL matches
// allowQueryURLPattern are enqueued. An empty pattern allows every search.
// Returns EINVALID if the pattern does not compile.
func NewFilteringQueue(next fhircrawl.RequestQueue, allowQueryURLPattern string) (*FilteringQueue, error) {
	if next == nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "request queue required")
	}
	if allowQueryURLPattern == "" {
		allowQueryURLPattern = ".*"
	}
	re, err := regexp.Compile(`^(?:` + allowQueryURLPattern + `)$`)
	if err != nil {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "invalid allow query url pattern %q: %v", allowQueryURLPattern, err)
	}
	return &FilteringQueue{next: next, allow: re}, nil
}

// Add forwards url unless it is a search that does not match the allow pattern.
func (q *FilteringQueue) Add(url string) error {
	entry, err := fhircrawl.Classify(url)
	if err != nil {
		return err
	}
	if entry.IsSearch() && !q.allow.MatchString(url) {
		return nil
	}
	return q.next.Add(url)
}

// Next delegates to the wrapped queue.
func (q *FilteringQueue) Next() (string, error) {
	return q.next.Next()
}

// HasNext delegates to the wrapped queue.
func (q *FilteringQueue) HasNext() bool {
	return q.next.HasNext()
}

package crawl

import (
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/fhircrawl"
)

// Compile-time interface verification.
var _ fhircrawl.RequestQueue = (*BalancingQueue)(nil)

// tier selects between groups that never yielded a search and groups that did.
type tier int

const (
	tierNormal tier = iota
	tierLow
)

// group holds the pending requests for one resource type.
type group struct {
	resourceType string
	searches     []string // insertion order
	reads        []string // sorted by URL
	// deprioritized is set once a search from this group has been dispatched
	// and is never cleared.
	deprioritized bool
}

func (g *group) empty() bool {
	return len(g.searches) == 0 && len(g.reads) == 0
}

func (g *group) in(t tier) bool {
	return g.deprioritized == (t == tierLow)
}

// BalancingQueue is a RequestQueue that interleaves work across resource types.
//
// A search against one resource type usually fans out into many reads of the
// same type. To keep a single type from monopolizing the crawl, a type is
// moved to the low tier as soon as one of its searches is dispatched, and the
// low tier is only served once every other type has been drained. Within a
// tier, types take turns in alphabetical order, searches are dispatched before
// reads, and reads are dispatched in URL order.
//
// URLs are deduplicated over the lifetime of the queue: a URL that was ever
// accepted is ignored when added again, even after it has been dispatched.
//
// It is safe for concurrent use by multiple goroutines.
type BalancingQueue struct {
	mu      sync.Mutex
	seen    map[uint64]struct{}
	groups  map[string]*group
	types   []string // sorted keys of groups
	cursors [2]string
	pending int
}

// NewBalancingQueue creates an empty BalancingQueue.
func NewBalancingQueue() *BalancingQueue {
	return &BalancingQueue{
		seen:   make(map[uint64]struct{}),
		groups: make(map[string]*group),
	}
}

// Add classifies url and places it in its resource type's search or read lane.
// Returns EINVALID if the URL cannot be classified; the queue is unchanged.
func (q *BalancingQueue) Add(url string) error {
	entry, err := fhircrawl.Classify(url)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	key := xxhash.Sum64String(url)
	if _, ok := q.seen[key]; ok {
		return nil
	}
	q.seen[key] = struct{}{}

	g, ok := q.groups[entry.ResourceType]
	if !ok {
		g = &group{resourceType: entry.ResourceType}
		q.groups[entry.ResourceType] = g
		pos, _ := slices.BinarySearch(q.types, entry.ResourceType)
		q.types = slices.Insert(q.types, pos, entry.ResourceType)
	}

	if entry.IsSearch() {
		g.searches = append(g.searches, url)
	} else {
		pos, _ := slices.BinarySearch(g.reads, url)
		g.reads = slices.Insert(g.reads, pos, url)
	}
	q.pending++
	return nil
}

// HasNext reports whether any resource type has pending requests.
func (q *BalancingQueue) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending > 0
}

// Len returns the number of pending requests.
func (q *BalancingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Next removes and returns the next request.
// Returns ESTATE if the queue is empty.
func (q *BalancingQueue) Next() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == 0 {
		return "", fhircrawl.Errorf(fhircrawl.ESTATE, "request queue is empty")
	}

	t := tierNormal
	if q.pick(tierNormal, (*group).hasItems) == nil {
		t = tierLow
	}

	g := q.pick(t, (*group).hasSearches)
	if g == nil {
		g = q.pick(t, (*group).hasItems)
	}

	var url string
	if len(g.searches) > 0 {
		url = g.searches[0]
		g.searches = g.searches[1:]
		// A group demoted out of the normal tier is no longer part of its
		// rotation, so the normal cursor stays where the last read left it.
		if t == tierLow {
			q.cursors[t] = g.resourceType
		}
		g.deprioritized = true
	} else {
		url = g.reads[0]
		g.reads = g.reads[1:]
		q.cursors[t] = g.resourceType
	}
	q.pending--
	return url, nil
}

func (g *group) hasItems() bool    { return !g.empty() }
func (g *group) hasSearches() bool { return len(g.searches) > 0 }

// pick walks the resource types of tier t in alphabetical order, starting one
// past the tier's cursor and wrapping around, and returns the first group
// satisfying match. Returns nil if no group matches.
func (q *BalancingQueue) pick(t tier, match func(*group) bool) *group {
	n := len(q.types)
	start, found := slices.BinarySearch(q.types, q.cursors[t])
	if found {
		start++
	}
	for i := 0; i < n; i++ {
		g := q.groups[q.types[(start+i)%n]]
		if g.in(t) && match(g) {
			return g
		}
	}
	return nil
}

package crawl

import (
	"strings"
	"sync"

	"github.com/fwojciec/fhircrawl"
)

var (
	_ fhircrawl.ResultCollector = (*ResultSummary)(nil)
	_ fhircrawl.FailureCounter  = (*ResultSummary)(nil)
	_ fhircrawl.ResultCollector = (*IgnoreFilter)(nil)
	_ fhircrawl.FailureCounter  = (*IgnoreFilter)(nil)
)

// ResultSummary counts results per outcome and forwards them to the next
// collector, if any.
type ResultSummary struct {
	next fhircrawl.ResultCollector

	mu     sync.Mutex
	counts map[fhircrawl.Outcome]int
	total  int
}

// NewResultSummary creates a ResultSummary. next may be nil.
func NewResultSummary(next fhircrawl.ResultCollector) *ResultSummary {
	return &ResultSummary{
		next:   next,
		counts: make(map[fhircrawl.Outcome]int),
	}
}

// Init initializes the next collector.
func (s *ResultSummary) Init() error {
	if s.next == nil {
		return nil
	}
	return s.next.Init()
}

// Add counts result and forwards it.
func (s *ResultSummary) Add(result fhircrawl.Result) {
	s.mu.Lock()
	s.counts[result.Outcome]++
	s.total++
	s.mu.Unlock()

	if s.next != nil {
		s.next.Add(result)
	}
}

// Done finishes the next collector.
func (s *ResultSummary) Done() error {
	if s.next == nil {
		return nil
	}
	return s.next.Done()
}

// Total returns the number of results seen.
func (s *ResultSummary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Count returns the number of results seen with the given outcome.
func (s *ResultSummary) Count(o fhircrawl.Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[o]
}

// Failures returns the number of results with a failed outcome.
func (s *ResultSummary) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total - s.counts[fhircrawl.OutcomeOK]
}

// IgnoreFilter separates failures the operator expects from real ones.
// A failed result whose query contains one of the ignore patterns is counted
// as ignored instead of failed. Every result is still forwarded.
type IgnoreFilter struct {
	next    fhircrawl.ResultCollector
	ignores []string

	mu       sync.Mutex
	failures int
	ignored  int
}

// NewIgnoreFilter creates an IgnoreFilter from a comma-separated list of
// substrings. Blank entries are skipped. next may be nil.
func NewIgnoreFilter(next fhircrawl.ResultCollector, ignores string) *IgnoreFilter {
	var patterns []string
	for _, p := range strings.Split(ignores, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return &IgnoreFilter{next: next, ignores: patterns}
}

// Init initializes the next collector.
func (f *IgnoreFilter) Init() error {
	if f.next == nil {
		return nil
	}
	return f.next.Init()
}

// Add classifies a failed result as ignored or failed and forwards it.
func (f *IgnoreFilter) Add(result fhircrawl.Result) {
	if result.Outcome.Failed() {
		f.mu.Lock()
		if f.isIgnored(result.Query) {
			f.ignored++
		} else {
			f.failures++
		}
		f.mu.Unlock()
	}

	if f.next != nil {
		f.next.Add(result)
	}
}

// Done finishes the next collector.
func (f *IgnoreFilter) Done() error {
	if f.next == nil {
		return nil
	}
	return f.next.Done()
}

// Failures returns the number of failures not covered by an ignore pattern.
func (f *IgnoreFilter) Failures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

// Ignored returns the number of failures covered by an ignore pattern.
func (f *IgnoreFilter) Ignored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ignored
}

func (f *IgnoreFilter) isIgnored(query string) bool {
	for _, p := range f.ignores {
		if strings.Contains(query, p) {
			return true
		}
	}
	return false
}

// Collectors fans results out to several collectors in order.
type Collectors []fhircrawl.ResultCollector

var _ fhircrawl.ResultCollector = Collectors(nil)

// Init initializes every collector, stopping at the first error.
func (cs Collectors) Init() error {
	for _, c := range cs {
		if err := c.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Add forwards result to every collector.
func (cs Collectors) Add(result fhircrawl.Result) {
	for _, c := range cs {
		c.Add(result)
	}
}

// Done finishes every collector and returns the first error.
func (cs Collectors) Done() error {
	var first error
	for _, c := range cs {
		if err := c.Done(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

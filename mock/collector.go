package mock

import (
	"sync"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.ResultCollector = (*ResultCollector)(nil)

// ResultCollector is a mock implementation of fhircrawl.ResultCollector.
type ResultCollector struct {
	InitFn func() error
	AddFn  func(result fhircrawl.Result)
	DoneFn func() error
}

func (c *ResultCollector) Init() error {
	return c.InitFn()
}

func (c *ResultCollector) Add(result fhircrawl.Result) {
	c.AddFn(result)
}

func (c *ResultCollector) Done() error {
	return c.DoneFn()
}

var _ fhircrawl.ResultCollector = (*Results)(nil)

// Results is an in-memory fhircrawl.ResultCollector that records every result.
type Results struct {
	mu      sync.Mutex
	results []fhircrawl.Result
	inits   int
	dones   int
}

func (r *Results) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

func (r *Results) Add(result fhircrawl.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *Results) Done() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dones++
	return nil
}

// All returns a copy of the recorded results in arrival order.
func (r *Results) All() []fhircrawl.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fhircrawl.Result(nil), r.results...)
}

// Queries returns the query of every recorded result in arrival order.
func (r *Results) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	queries := make([]string, len(r.results))
	for i, res := range r.results {
		queries[i] = res.Query
	}
	return queries
}

// Calls returns how many times Init and Done were called.
func (r *Results) Calls() (inits, dones int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits, r.dones
}

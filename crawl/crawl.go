// Package crawl provides the crawl scheduler: a request queue that balances
// work across FHIR resource types, decorators that filter or rewrite queued
// URLs, and a concurrent crawler that drains the queue while feeding it the
// URLs it discovers.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/fhircrawl"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a Crawler.
type State int

// Crawl lifecycle states.
const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

// DefaultWorkers is the worker pool size used when Crawler.Workers is not set.
const DefaultWorkers = 10

// Summary describes how a crawl ended.
type Summary struct {
	State      State
	Dispatched int
	Elapsed    time.Duration
}

// Crawler drains a RequestQueue with a fixed pool of workers. Each worker
// fetches a URL, feeds the URLs extracted from the response back into the
// queue and records one Result. The crawl ends when the queue is empty and no
// worker is still processing a URL, or when the time limit is exceeded.
type Crawler struct {
	Queue     fhircrawl.RequestQueue
	Fetcher   fhircrawl.Fetcher
	Extractor fhircrawl.Extractor
	Results   fhircrawl.ResultCollector

	// Token returns the bearer token for each request. Optional.
	Token func() string

	// RateLimiter throttles requests per host. Optional.
	RateLimiter fhircrawl.DomainLimiter

	// Workers is the number of concurrent fetches. Defaults to DefaultWorkers.
	Workers int

	// TimeLimit stops the crawl from claiming new URLs once exceeded.
	// Zero means no limit.
	TimeLimit time.Duration

	// RetryDelays are the backoff delays between fetch attempts.
	// Nil or empty means a single attempt.
	RetryDelays []time.Duration

	// RetryLog is told about every retry. Optional.
	RetryLog LogFunc

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	mu         sync.Mutex
	cond       *sync.Cond
	state      State
	inFlight   int
	dispatched int
	deadline   time.Time
	timedOut   bool
}

// State returns the current lifecycle state.
func (c *Crawler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Crawl runs the crawl to completion. Per-request failures are recorded as
// results and never returned; the returned error is non-nil only for
// misconfiguration, a second call, collector Init/Done failures, or context
// cancellation. Exceeding the time limit is not an error: the summary state
// is StateTimedOut.
func (c *Crawler) Crawl(ctx context.Context) (*Summary, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state != StateNotStarted {
		c.mu.Unlock()
		return nil, fhircrawl.Errorf(fhircrawl.ESTATE, "crawl already started")
	}
	c.state = StateRunning
	c.cond = sync.NewCond(&c.mu)
	started := c.now()
	if c.TimeLimit > 0 {
		c.deadline = started.Add(c.TimeLimit)
	}
	c.mu.Unlock()

	if err := c.Results.Init(); err != nil {
		return nil, fmt.Errorf("init results: %w", err)
	}

	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, c.wake)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return c.work(gctx)
		})
	}
	waitErr := g.Wait()
	stop()

	c.mu.Lock()
	if c.timedOut {
		c.state = StateTimedOut
	} else {
		c.state = StateCompleted
	}
	summary := &Summary{
		State:      c.state,
		Dispatched: c.dispatched,
		Elapsed:    c.now().Sub(started),
	}
	c.mu.Unlock()

	if err := c.Results.Done(); err != nil {
		return summary, fmt.Errorf("finish results: %w", err)
	}
	return summary, waitErr
}

func (c *Crawler) validate() error {
	switch {
	case c.Queue == nil:
		return fhircrawl.Errorf(fhircrawl.EINVALID, "crawler request queue required")
	case c.Fetcher == nil:
		return fhircrawl.Errorf(fhircrawl.EINVALID, "crawler fetcher required")
	case c.Extractor == nil:
		return fhircrawl.Errorf(fhircrawl.EINVALID, "crawler extractor required")
	case c.Results == nil:
		return fhircrawl.Errorf(fhircrawl.EINVALID, "crawler result collector required")
	}
	return nil
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// work is the loop run by every pool worker. It returns the context error
// when the crawl is canceled and nil otherwise.
func (c *Crawler) work(ctx context.Context) error {
	for {
		u, ok := c.claim(ctx)
		if !ok {
			return ctx.Err()
		}
		c.process(ctx, u)
		c.release()
	}
}

// wake rouses workers blocked in claim so they notice cancellation.
func (c *Crawler) wake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cond.Broadcast()
}

// claim takes the next URL and counts it as in flight. It blocks while the
// queue is empty but other workers may still add to it. The bool result is
// false once the worker should exit.
func (c *Crawler) claim(ctx context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return "", false
		}
		hasNext := c.Queue.HasNext()
		if !hasNext && c.inFlight == 0 {
			return "", false
		}
		if hasNext && !c.deadline.IsZero() && c.now().After(c.deadline) {
			c.timedOut = true
			return "", false
		}
		if hasNext {
			u, err := c.Queue.Next()
			if err == nil {
				c.inFlight++
				c.dispatched++
				return u, true
			}
		}
		c.cond.Wait()
	}
}

// release marks the current URL as done. Follow-ups must already be queued so
// that waiting workers observe them before the in-flight count drops.
func (c *Crawler) release() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	c.cond.Broadcast()
}

// process fetches u, queues its follow-ups and records exactly one result.
func (c *Crawler) process(ctx context.Context, u string) {
	result := fhircrawl.Result{
		Query:     u,
		Timestamp: c.now(),
	}

	resp, err := c.fetch(ctx, u)
	result.Duration = c.now().Sub(result.Timestamp)

	switch {
	case err != nil && fhircrawl.ErrorCode(err) == fhircrawl.EINVALID:
		result.Outcome = fhircrawl.OutcomeInvalidURL
		result.Message = fhircrawl.ErrorMessage(err)
	case err != nil:
		result.Outcome = fhircrawl.OutcomeRequestFailed
		result.Message = err.Error()
	case !resp.OK():
		result.Outcome = fhircrawl.OutcomeRequestFailed
		result.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	default:
		result.Outcome, result.Message = c.follow(resp)
	}

	c.Results.Add(result)
}

// follow extracts the URLs referenced by resp and queues them.
func (c *Crawler) follow(resp *fhircrawl.Response) (fhircrawl.Outcome, string) {
	urls, err := c.Extractor.Extract(resp)
	if err != nil {
		return fhircrawl.OutcomeInvalidPayload, fhircrawl.ErrorMessage(err)
	}

	var rejected int
	for _, u := range urls {
		if err := c.Queue.Add(u); err != nil {
			rejected++
		}
	}
	if rejected > 0 {
		return fhircrawl.OutcomeOK, fmt.Sprintf("skipped %d unrecognized links", rejected)
	}
	return fhircrawl.OutcomeOK, ""
}

func (c *Crawler) fetch(ctx context.Context, u string) (*fhircrawl.Response, error) {
	token := ""
	if c.Token != nil {
		token = c.Token()
	}

	fetchFn := func(ctx context.Context, u string) (*fhircrawl.Response, error) {
		if c.RateLimiter != nil {
			parsed, err := url.Parse(u)
			if err != nil {
				return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "invalid url %q: %v", u, err)
			}
			if err := c.RateLimiter.Wait(ctx, parsed.Host); err != nil {
				return nil, err
			}
		}
		return c.Fetcher.Fetch(ctx, u, token)
	}
	return FetchWithRetryDelays(ctx, u, fetchFn, c.RetryLog, c.RetryDelays)
}

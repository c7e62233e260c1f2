package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/crawl"
	"github.com/fwojciec/fhircrawl/fhir"
	"github.com/fwojciec/fhircrawl/fs"
	"github.com/fwojciec/fhircrawl/jwt"
	fhirslog "github.com/fwojciec/fhircrawl/slog"
)

// RunStateCanceled is recorded for runs interrupted before they finished.
const RunStateCanceled = "canceled"

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	queue, err := c.queue()
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	discovery, err := deps.Seeds.Discover(deps.Ctx, c.BaseURL, c.Patient)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}
	for _, q := range slices.Concat(discovery.Queries, c.Seed) {
		if err := queue.Add(q); err != nil {
			printError(deps.Stderr, err)
			return err
		}
	}

	c.warnTokenExpiry(deps)

	run := &fhircrawl.Run{BaseURL: c.BaseURL, PatientID: c.Patient}
	if err := deps.Runs.CreateRun(deps.Ctx, run); err != nil {
		printError(deps.Stderr, err)
		return err
	}
	fmt.Fprintf(deps.Stdout, "Crawling patient %s at %s (%s, run %s)\n",
		c.Patient, c.BaseURL, discovery.FHIRVersion, run.ID)

	store := crawl.Collectors{
		fs.NewCollector(c.Output, "patient-crawl-"+c.Patient),
		deps.RunResults(run.ID),
	}
	summary := crawl.NewResultSummary(fhirslog.NewLoggingCollector(store, deps.Logger))
	results := crawl.NewIgnoreFilter(summary, c.Ignores)

	extractor := fhir.NewExtractor()
	extractor.FollowReferences = c.FollowReferences

	crawler := &crawl.Crawler{
		Queue:       queue,
		Fetcher:     deps.Fetcher,
		Extractor:   extractor,
		Results:     results,
		Token:       func() string { return c.Token },
		Workers:     c.Threads,
		TimeLimit:   c.TimeLimit,
		RetryDelays: retryDelays(c.Retries),
		Now:         deps.Now,
		RetryLog: func(format string, args ...any) {
			deps.Logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
		},
	}
	if c.RPS > 0 {
		crawler.RateLimiter = crawl.NewDomainLimiter(c.RPS, 1)
	}

	s, crawlErr := crawler.Crawl(deps.Ctx)

	upd := fhircrawl.RunUpdate{State: RunStateCanceled, Failures: results.Failures()}
	if s != nil {
		upd.Dispatched = s.Dispatched
		if !errors.Is(crawlErr, context.Canceled) {
			upd.State = s.State.String()
		}
	}
	// The crawl context may be canceled; the run record is still updated.
	if _, err := deps.Runs.FinishRun(context.WithoutCancel(deps.Ctx), run.ID, upd); err != nil {
		printError(deps.Stderr, err)
		return err
	}

	if crawlErr != nil {
		printError(deps.Stderr, crawlErr)
		return crawlErr
	}

	fmt.Fprintln(deps.Stdout, crawl.FormatSummary(s, results.Failures()))
	for _, o := range []fhircrawl.Outcome{
		fhircrawl.OutcomeInvalidURL,
		fhircrawl.OutcomeInvalidPayload,
		fhircrawl.OutcomeRequestFailed,
	} {
		if n := summary.Count(o); n > 0 {
			fmt.Fprintf(deps.Stdout, "  %s: %d\n", o, n)
		}
	}
	if n := results.Ignored(); n > 0 {
		fmt.Fprintf(deps.Stdout, "  ignored: %d\n", n)
	}

	if n := results.Failures(); n > 0 {
		fmt.Fprintf(deps.Stderr, "Hint: Run 'fhircrawl failures %s' to list them\n", run.ID)
		return fmt.Errorf("%d failures", n)
	}
	return nil
}

// queue builds the request queue: filtering wraps rewriting wraps balancing.
func (c *CrawlCmd) queue() (fhircrawl.RequestQueue, error) {
	var q fhircrawl.RequestQueue = crawl.NewBalancingQueue()

	if c.URLReplace != "" {
		rq, err := crawl.NewRewritingQueue(q, crawl.RewriteConfig{Replace: c.URLReplace, With: c.BaseURL})
		if err != nil {
			return nil, err
		}
		q = rq
	}

	fq, err := crawl.NewFilteringQueue(q, c.AllowQueryURLPattern)
	if err != nil {
		return nil, err
	}
	return fq, nil
}

func (c *CrawlCmd) warnTokenExpiry(deps *Dependencies) {
	if c.Token == "" || c.TimeLimit <= 0 {
		return
	}
	if exp, ok := jwt.ExpiresBefore(c.Token, deps.now().Add(c.TimeLimit)); ok {
		deps.Logger.Warn("access token expires before the time limit", "expires", exp)
	}
}

func retryDelays(retries int) []time.Duration {
	delays := crawl.DefaultRetryDelays()
	if retries < len(delays) {
		delays = delays[:max(retries, 0)]
	}
	for len(delays) < retries {
		delays = append(delays, delays[len(delays)-1])
	}
	return delays
}

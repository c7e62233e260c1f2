package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/fhircrawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Runs fhircrawl.RunService
	// RunResults returns the collector that stores the results of a run.
	RunResults func(runID string) fhircrawl.ResultCollector

	Seeds   fhircrawl.SeedService
	Fetcher fhircrawl.Fetcher

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  kong.ConfigFlag `help:"Load flag values from a YAML file"`
	DB      string          `name:"db" env:"FHIRCRAWL_DB" help:"SQLite database path"`
	Verbose bool            `short:"v" help:"Log every request and result"`

	Crawl    CrawlCmd    `cmd:"" help:"Crawl the resources of a patient"`
	Runs     RunsCmd     `cmd:"" help:"List recorded crawl runs"`
	Failures FailuresCmd `cmd:"" help:"Show the failed requests of a run"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	BaseURL              string        `arg:"" name:"base-url" help:"FHIR server base URL"`
	Patient              string        `short:"p" required:"" help:"Patient ID"`
	Token                string        `env:"FHIRCRAWL_TOKEN" help:"Bearer token sent with every request"`
	Threads              int           `short:"t" default:"10" help:"Concurrent requests"`
	TimeLimit            time.Duration `help:"Stop dispatching requests after this long (0 means no limit)"`
	AllowQueryURLPattern string        `name:"allow-query-url-pattern" help:"Only queue searches matching this regex"`
	URLReplace           string        `name:"url-replace" help:"Base URL in server links to replace with the crawl base URL"`
	Ignores              string        `help:"Comma separated URL fragments whose failures are ignored"`
	Seed                 []string      `sep:"none" help:"Additional query to crawl (repeatable)"`
	Output               string        `short:"o" default:"target" help:"Directory for result files"`
	RPS                  float64       `name:"rps" help:"Requests per second per host (0 means unlimited)"`
	Retries              int           `default:"3" help:"Retries for failed requests"`
	RequestTimeout       time.Duration `default:"30s" help:"Timeout for a single request"`
	FollowReferences     bool          `help:"Also crawl resource references found in payloads"`
	Insecure             bool          `help:"Skip TLS certificate verification"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Patient string `short:"p" help:"Only show runs for this patient"`
	Limit   int    `short:"n" default:"20" help:"Maximum number of runs to show"`
}

// FailuresCmd is the "failures" subcommand.
type FailuresCmd struct {
	RunID string `arg:"" name:"run-id" help:"Run ID"`
	All   bool   `help:"Show successful requests too"`
}

// printError reports err on w. Application errors show their message only;
// anything else is printed in full.
func printError(w io.Writer, err error) {
	var e *fhircrawl.Error
	if errors.As(err, &e) {
		fmt.Fprintf(w, "error: %s\n", e.Message)
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

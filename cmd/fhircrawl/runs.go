package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/crawl"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := fhircrawl.RunFilter{Limit: c.Limit}
	if c.Patient != "" {
		filter.PatientID = &c.Patient
	}

	runs, err := deps.Runs.FindRuns(deps.Ctx, filter)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'fhircrawl crawl' to start one.")
		return nil
	}

	for _, r := range runs {
		elapsed := "-"
		if !r.FinishedAt.IsZero() {
			elapsed = crawl.FormatDuration(r.FinishedAt.Sub(r.StartedAt))
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %-9s  %d requests  %d failures  %s  patient %s  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.State, r.Dispatched, r.Failures,
			elapsed, r.PatientID, r.BaseURL)
	}

	return nil
}

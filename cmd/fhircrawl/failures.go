package main

import (
	"fmt"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/crawl"
)

// maxQueryWidth bounds the URL column of the failures listing.
const maxQueryWidth = 100

// Run executes the failures command.
func (c *FailuresCmd) Run(deps *Dependencies) error {
	if _, err := deps.Runs.FindRunByID(deps.Ctx, c.RunID); err != nil {
		printError(deps.Stderr, err)
		return err
	}

	results, err := deps.Runs.FindResults(deps.Ctx, fhircrawl.ResultFilter{RunID: c.RunID, FailedOnly: !c.All})
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No failures recorded.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(deps.Stdout, "%-15s  %s\n", r.Outcome, crawl.TruncateURL(r.Query, maxQueryWidth))
		if r.Message != "" {
			fmt.Fprintf(deps.Stdout, "                 %s\n", r.Message)
		}
	}

	return nil
}

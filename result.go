package fhircrawl

import "time"

// Outcome classifies the result of crawling a single URL.
type Outcome int

// Crawl outcomes.
const (
	OutcomeOK Outcome = iota
	OutcomeInvalidURL
	OutcomeInvalidPayload
	OutcomeRequestFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:             "OK",
	OutcomeInvalidURL:     "INVALID_URL",
	OutcomeInvalidPayload: "INVALID_PAYLOAD",
	OutcomeRequestFailed:  "REQUEST_FAILED",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Failed reports whether the outcome counts as a crawl failure.
func (o Outcome) Failed() bool { return o != OutcomeOK }

// ParseOutcome returns the Outcome with the given name.
func ParseOutcome(name string) (Outcome, error) {
	for o, n := range outcomeNames {
		if n == name {
			return o, nil
		}
	}
	return 0, Errorf(EINVALID, "unknown outcome %q", name)
}

// Result records what happened when a single URL was crawled.
type Result struct {
	Query     string
	Outcome   Outcome
	Timestamp time.Time
	Duration  time.Duration
	Message   string
}

// ResultCollector receives one Result per crawled URL.
// Add may be called concurrently from every crawl worker.
type ResultCollector interface {
	// Init prepares the collector before the first result arrives.
	Init() error

	// Add records a result. Storage errors are reported by Done.
	Add(result Result)

	// Done flushes the collector after the last result.
	Done() error
}

// FailureCounter reports how many failed results a collector has seen.
type FailureCounter interface {
	Failures() int
}

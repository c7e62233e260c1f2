package fhircrawl

import (
	"context"
	"time"
)

// Run is a persisted record of one crawl.
type Run struct {
	ID         string    `json:"id"`
	BaseURL    string    `json:"baseUrl"`
	PatientID  string    `json:"patientId"`
	State      string    `json:"state"`
	Dispatched int       `json:"dispatched"`
	Failures   int       `json:"failures"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.BaseURL == "" {
		return Errorf(EINVALID, "run base URL required")
	}
	if r.PatientID == "" {
		return Errorf(EINVALID, "run patient ID required")
	}
	return nil
}

// RunService represents a service for managing crawl runs and their results.
type RunService interface {
	// CreateRun records the start of a crawl.
	CreateRun(ctx context.Context, run *Run) error

	// FinishRun records how a crawl ended.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, id string, upd RunUpdate) (*Run, error)

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// FindResults retrieves results recorded for a run.
	FindResults(ctx context.Context, filter ResultFilter) ([]*Result, error)
}

// RunUpdate represents the fields set when a run finishes.
type RunUpdate struct {
	State      string
	Dispatched int
	Failures   int
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID        *string
	PatientID *string

	Offset int
	Limit  int
}

// ResultFilter represents a filter for FindResults.
type ResultFilter struct {
	RunID      string
	FailedOnly bool

	Offset int
	Limit  int
}

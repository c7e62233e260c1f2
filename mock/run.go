package mock

import (
	"context"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.RunService = (*RunService)(nil)

// RunService is a mock implementation of fhircrawl.RunService.
type RunService struct {
	CreateRunFn   func(ctx context.Context, run *fhircrawl.Run) error
	FinishRunFn   func(ctx context.Context, id string, upd fhircrawl.RunUpdate) (*fhircrawl.Run, error)
	FindRunByIDFn func(ctx context.Context, id string) (*fhircrawl.Run, error)
	FindRunsFn    func(ctx context.Context, filter fhircrawl.RunFilter) ([]*fhircrawl.Run, error)
	FindResultsFn func(ctx context.Context, filter fhircrawl.ResultFilter) ([]*fhircrawl.Result, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *fhircrawl.Run) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FinishRun(ctx context.Context, id string, upd fhircrawl.RunUpdate) (*fhircrawl.Run, error) {
	return s.FinishRunFn(ctx, id, upd)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*fhircrawl.Run, error) {
	return s.FindRunByIDFn(ctx, id)
}

func (s *RunService) FindRuns(ctx context.Context, filter fhircrawl.RunFilter) ([]*fhircrawl.Run, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *RunService) FindResults(ctx context.Context, filter fhircrawl.ResultFilter) ([]*fhircrawl.Result, error) {
	return s.FindResultsFn(ctx, filter)
}

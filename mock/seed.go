package mock

import (
	"context"

	"github.com/fwojciec/fhircrawl"
)

var _ fhircrawl.SeedService = (*SeedService)(nil)

// SeedService is a mock implementation of fhircrawl.SeedService.
type SeedService struct {
	DiscoverFn func(ctx context.Context, baseURL, patientID string) (*fhircrawl.Discovery, error)
}

func (s *SeedService) Discover(ctx context.Context, baseURL, patientID string) (*fhircrawl.Discovery, error) {
	return s.DiscoverFn(ctx, baseURL, patientID)
}

package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/fhircrawl"
	"github.com/fwojciec/fhircrawl/fhir"
)

var _ fhircrawl.SeedService = (*SeedService)(nil)

// SeedService discovers seed queries from a server's metadata endpoint.
type SeedService struct {
	fetcher fhircrawl.Fetcher
	token   string
}

// NewSeedService creates a SeedService that reads metadata with fetcher,
// authenticating with token when it is not empty.
func NewSeedService(fetcher fhircrawl.Fetcher, token string) *SeedService {
	return &SeedService{fetcher: fetcher, token: token}
}

// Discover fetches <baseURL>metadata and derives the patient's seed queries.
// Returns EINVALID if the metadata is not a capability statement.
func (s *SeedService) Discover(ctx context.Context, baseURL, patientID string) (*fhircrawl.Discovery, error) {
	if baseURL == "" {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "base url required")
	}
	if patientID == "" {
		return nil, fhircrawl.Errorf(fhircrawl.EINVALID, "patient id required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	resp, err := s.fetcher.Fetch(ctx, baseURL+"metadata", s.token)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch metadata: HTTP %d for %s", resp.StatusCode, resp.URL)
	}

	caps, err := fhir.ParseCapabilities(resp.Body)
	if err != nil {
		return nil, err
	}

	return &fhircrawl.Discovery{
		BaseURL:     baseURL,
		PatientID:   patientID,
		FHIRVersion: caps.FHIRVersion,
		Queries:     caps.Queries(baseURL, patientID),
	}, nil
}

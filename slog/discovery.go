package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/fhircrawl"
)

// Ensure LoggingSeedService implements fhircrawl.SeedService.
var _ fhircrawl.SeedService = (*LoggingSeedService)(nil)

// LoggingSeedService wraps a SeedService with logging.
type LoggingSeedService struct {
	next   fhircrawl.SeedService
	logger *slog.Logger
}

// NewLoggingSeedService creates a new LoggingSeedService.
func NewLoggingSeedService(next fhircrawl.SeedService, logger *slog.Logger) *LoggingSeedService {
	return &LoggingSeedService{next: next, logger: logger}
}

// Discover delegates to the wrapped service and logs the discovered queries.
func (s *LoggingSeedService) Discover(ctx context.Context, baseURL, patientID string) (d *fhircrawl.Discovery, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Error("discovery", "url", baseURL, "duration", time.Since(begin), "err", err)
			return
		}
		s.logger.Info("discovery",
			"url", baseURL,
			"version", string(d.FHIRVersion),
			"count", len(d.Queries),
			"duration", time.Since(begin),
		)
		for _, q := range d.Queries {
			s.logger.Debug("seed", "query", q)
		}
	}(time.Now())
	return s.next.Discover(ctx, baseURL, patientID)
}
